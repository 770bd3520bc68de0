// Package telemetry defines the dashboard event stream (§6, §8): a
// read-only (tick, proposed action, chosen action, outcome, reason)
// feed external collaborators consume. It adapts the shape of the
// teacher's session.Event record (internal/session/session.go) to this
// domain's tick-level events, publishing over NATS so the dashboard —
// an explicit external collaborator per spec.md §1 — can subscribe
// without being linked into this process.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// TickEvent is one entry in the forensic stream.
type TickEvent struct {
	ID             string    `json:"id"`
	Tick           int64     `json:"tick"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source"` // "executor", "batch", "vlm"
	ProposedAction string    `json:"proposed_action,omitempty"`
	ChosenAction   string    `json:"chosen_action"`
	Outcome        string    `json:"outcome"` // "verified", "phantom_failed", "failed", "blocked", "skipped"
	Reason         string    `json:"reason,omitempty"`
}

// PlanSnapshotEvent is the periodic plan/queue snapshot the dashboard
// refreshes from.
type PlanSnapshotEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	ActiveTask   string    `json:"active_task,omitempty"`
	QueueLength  int       `json:"queue_length"`
	CompletedIDs []string  `json:"completed_ids"`
}

// Publisher is the seam external collaborators subscribe through.
type Publisher interface {
	PublishTick(evt TickEvent) error
	PublishPlanSnapshot(evt PlanSnapshotEvent) error
	Close() error
}

// NewTickEvent stamps a new event with a fresh correlation id.
func NewTickEvent(tick int64, source, chosen, outcome, reason string) TickEvent {
	return TickEvent{
		ID:           uuid.NewString(),
		Tick:         tick,
		Timestamp:    time.Now(),
		Source:       source,
		ChosenAction: chosen,
		Outcome:      outcome,
		Reason:       reason,
	}
}

// noopPublisher discards every event; used when telemetry is disabled
// or no broker is configured, so the agent loop runs standalone.
type noopPublisher struct{}

func (noopPublisher) PublishTick(TickEvent) error             { return nil }
func (noopPublisher) PublishPlanSnapshot(PlanSnapshotEvent) error { return nil }
func (noopPublisher) Close() error                             { return nil }

// NoopPublisher never fails and never leaves the process.
var NoopPublisher Publisher = noopPublisher{}

// NATSPublisher publishes tick and plan-snapshot events to a NATS
// subject prefix, for an external dashboard to subscribe to.
type NATSPublisher struct {
	conn         *nats.Conn
	tickSubject  string
	planSubject  string
}

// NewNATSPublisher connects to url and returns a Publisher scoped to
// subjectPrefix (events publish to "<prefix>.tick" and "<prefix>.plan").
func NewNATSPublisher(url, subjectPrefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{
		conn:        conn,
		tickSubject: subjectPrefix + ".tick",
		planSubject: subjectPrefix + ".plan",
	}, nil
}

func (p *NATSPublisher) PublishTick(evt TickEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.tickSubject, data)
}

func (p *NATSPublisher) PublishPlanSnapshot(evt PlanSnapshotEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.planSubject, data)
}

func (p *NATSPublisher) Close() error {
	p.conn.Drain()
	return nil
}
