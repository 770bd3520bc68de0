// Package agentloop implements the Agent Loop (§4.1): the tick that
// ties the Daily Planner, Prerequisite Resolver, Task Executor, Batch
// Skills, VLM, and Override Chain together. It adapts the teacher's
// cmd/agent `runtime` idiom — a struct assembled once in a `setup()`
// phase, holding every wired component plus a `closers` slice for
// shutdown — from "run one agentfile Workflow" to "run one farm day's
// tick loop".
package agentloop

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/logging"
	agenttelemetry "github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sandahltim/StardewAI-sub000/internal/batch"
	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/config"
	"github.com/sandahltim/StardewAI-sub000/internal/executor"
	"github.com/sandahltim/StardewAI-sub000/internal/lessons"
	"github.com/sandahltim/StardewAI-sub000/internal/overrides"
	"github.com/sandahltim/StardewAI-sub000/internal/planner"
	"github.com/sandahltim/StardewAI-sub000/internal/planstore"
	"github.com/sandahltim/StardewAI-sub000/internal/resolver"
	"github.com/sandahltim/StardewAI-sub000/internal/skillengine"
	"github.com/sandahltim/StardewAI-sub000/internal/targets"
	"github.com/sandahltim/StardewAI-sub000/internal/telemetry"
	"github.com/sandahltim/StardewAI-sub000/internal/vlm"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

const maxActionHistory = 8

// targetPather is the reachability seam the loop passes through to a
// freshly-built Executor on every daily re-plan.
type targetPather = targets.Pather

// Loop owns every wired component and drives the tick described in §4.1.
type Loop struct {
	cfg *config.Config

	bridge    *bridge.Client
	provider  vlm.Provider
	planner   *planner.Planner
	resolver  *resolver.Resolver
	planStore *planstore.Store
	lessons   *lessons.Store
	engine    *skillengine.Engine
	exec      *executor.Executor
	pather    targetPather
	batchRun  *batch.Runner
	chain     *overrides.Chain
	publisher telemetry.Publisher
	logger    *logging.Logger

	lastDayOfYear  int
	dayPlan        *planstore.DayPlan
	queue          []resolver.ResolvedTask
	queueCursor    int
	lastReplan     time.Time
	tick           int64
	actionHistory  []string
	farm           world.FarmSnapshot
	farmFresh      bool

	closers []func() error
}

// Deps bundles every component the loop is assembled from. Fields left
// nil fall back to a no-op default where one exists (Publisher).
type Deps struct {
	Cfg       *config.Config
	Bridge    *bridge.Client
	Provider  vlm.Provider
	Planner   *planner.Planner
	Resolver  *resolver.Resolver
	PlanStore *planstore.Store
	Lessons   *lessons.Store
	Engine    *skillengine.Engine
	Executor  *executor.Executor
	Pather    targets.Pather
	BatchRun  *batch.Runner
	Chain     *overrides.Chain
	Publisher telemetry.Publisher
}

// New assembles a Loop from its dependencies, mirroring the teacher's
// newRuntime/setup two-step construction.
func New(d Deps) *Loop {
	pub := d.Publisher
	if pub == nil {
		pub = telemetry.NoopPublisher
	}
	return &Loop{
		cfg:           d.Cfg,
		bridge:        d.Bridge,
		provider:      d.Provider,
		planner:       d.Planner,
		resolver:      d.Resolver,
		planStore:     d.PlanStore,
		lessons:       d.Lessons,
		engine:        d.Engine,
		exec:          d.Executor,
		pather:        d.Pather,
		batchRun:      d.BatchRun,
		chain:         d.Chain,
		publisher:     pub,
		logger:        logging.New().WithComponent("agentloop"),
		lastDayOfYear: -1,
	}
}

// Close releases everything the loop opened (telemetry connection, etc).
func (l *Loop) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := l.publisher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Run drives ticks at the configured think interval until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	interval := time.Duration(l.cfg.Loop.ThinkIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.logger.Warn("tick error", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// Tick runs exactly one agent-loop iteration (§4.1 steps 1-8).
func (l *Loop) Tick(ctx context.Context) (err error) {
	tracer := agenttelemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "agentloop.tick")
	span.SetAttributes(attribute.Int64("loop.tick", int64(l.tick+1)))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	l.tick++

	// 1. Refresh WorldSnapshot.
	w, err := l.bridge.GetState(ctx)
	if err != nil {
		return fmt.Errorf("refresh world snapshot: %w", err)
	}

	// 2. Day transition check.
	if l.lastDayOfYear != -1 && w.DayOfYear != l.lastDayOfYear {
		if err := l.runDailyTransition(ctx, w); err != nil {
			l.logger.Warn("daily transition failed", map[string]interface{}{"error": err.Error()})
		}
	} else if l.lastDayOfYear == -1 {
		if err := l.runDailyTransition(ctx, w); err != nil {
			l.logger.Warn("initial planning failed", map[string]interface{}{"error": err.Error()})
		}
	}
	l.lastDayOfYear = w.DayOfYear

	if err := l.maybeReplan(ctx, w); err != nil {
		l.logger.Warn("periodic replan failed", map[string]interface{}{"error": err.Error()})
	}

	farm, err := l.refreshFarm(ctx)
	if err != nil {
		return fmt.Errorf("refresh farm snapshot: %w", err)
	}

	// 3. Executor has a locked task.
	if l.exec.State() == executor.StateRunning {
		out, err := l.exec.Tick(ctx, w, farm)
		if err != nil {
			return fmt.Errorf("executor tick: %w", err)
		}
		l.recordTick("executor", out.Skill, string(out.SkillResult), out.Reason)
		if out.TaskComplete {
			l.completeCurrentTask(out.State == executor.StateSkipped)
			l.farmFresh = false
		}
		return nil
	}

	// Pop the next resolved task off the queue, handing batch-override
	// tasks straight to the batch runner and everything else to the
	// executor (§4.2's skill_override / §4.9).
	if l.queueCursor < len(l.queue) {
		task := l.queue[l.queueCursor]
		if task.SkillOverride != "" {
			return l.runBatchTask(ctx, task)
		}
		dest := world.Tile{}
		if task.Destination != nil {
			dest = *task.Destination
		}
		if err := l.exec.Start(ctx, &task, w.PlayerTile, farm, dest); err != nil {
			l.logger.Warn("executor start failed, skipping task", map[string]interface{}{"error": err.Error()})
			l.queueCursor++
			return nil
		}
		if l.exec.State() == executor.StateComplete {
			// Start generated no targets (e.g. every candidate dropped by
			// the reachability filter) -- nothing for Tick to drive, so
			// advance the queue now instead of re-Starting the same task
			// forever.
			l.recordTick("executor", "", "complete", "no targets generated")
			l.completeCurrentTask(false)
			l.farmFresh = false
		}
		return nil
	}

	// 4/5. No queued work: consult the VLM for a proposed action.
	return l.runVLMTurn(ctx, w, farm)
}

func (l *Loop) runDailyTransition(ctx context.Context, w world.WorldSnapshot) error {
	farm, err := l.bridge.GetFarm(ctx)
	if err != nil {
		return fmt.Errorf("get farm for daily plan: %w", err)
	}
	l.farm = farm
	l.farmFresh = true

	surroundings, err := l.bridge.GetSurroundings(ctx)
	if err != nil {
		l.logger.Warn("failed to fetch surroundings for daily plan", map[string]interface{}{"error": err.Error()})
	}

	carryover, _ := l.planStore.LoadCarryover()
	var completions []planner.Completion
	completions = append(completions, carryover.Items...)

	raw := l.planner.Plan(w, farm, planner.Forecast{}, completions)
	resolved, skips := l.resolver.Resolve(raw, w, farm, surroundings)

	plan := &planstore.DayPlan{
		Date:        w.Time.Format("2006-01-02"),
		Raw:         raw,
		Resolved:    resolved,
		SkipReasons: skips,
		Completions: make(map[string]bool),
		CreatedAt:   w.Time,
	}
	if err := l.planStore.Save(plan); err != nil {
		l.logger.Warn("failed to persist day plan", map[string]interface{}{"error": err.Error()})
	}

	l.dayPlan = plan
	l.queue = resolved
	l.queueCursor = 0
	l.lastReplan = w.Time
	l.exec = executor.New(l.bridge, l.engine, l.pather, l.lessons)

	l.publisher.PublishPlanSnapshot(telemetry.PlanSnapshotEvent{
		Timestamp:   w.Time,
		QueueLength: len(resolved),
	})
	return nil
}

// maybeReplan implements the resolved Open Question: re-plan on the
// union of (a) the periodic cadence and (b) any critical skip recorded
// since the last plan.
func (l *Loop) maybeReplan(ctx context.Context, w world.WorldSnapshot) error {
	if l.dayPlan == nil {
		return nil
	}
	period := time.Duration(l.cfg.Loop.ReplanPeriodHours) * time.Hour
	if period <= 0 {
		period = 2 * time.Hour
	}
	dueToCadence := !l.lastReplan.IsZero() && w.Time.Sub(l.lastReplan) >= period
	dueToCriticalSkip := false
	for _, sk := range l.dayPlan.SkipReasons {
		if sk.Reason == "critical" {
			dueToCriticalSkip = true
			break
		}
	}
	if !dueToCadence && !dueToCriticalSkip {
		return nil
	}
	return l.runDailyTransition(ctx, w)
}

func (l *Loop) refreshFarm(ctx context.Context) (world.FarmSnapshot, error) {
	if l.farmFresh {
		return l.farm, nil
	}
	farm, err := l.bridge.GetFarm(ctx)
	if err != nil {
		return world.FarmSnapshot{}, err
	}
	l.farm = farm
	l.farmFresh = true
	return farm, nil
}

func (l *Loop) completeCurrentTask(skipped bool) {
	task := l.queue[l.queueCursor]
	if l.dayPlan != nil {
		l.dayPlan.Completions[task.ParentTaskID] = !skipped
		l.planStore.Save(l.dayPlan)
	}
	l.queueCursor++
}

func (l *Loop) runBatchTask(ctx context.Context, task resolver.ResolvedTask) error {
	dest := world.Tile{}
	if task.Destination != nil {
		dest = *task.Destination
	}
	interrupt := func(w world.WorldSnapshot) (overrides.Decision, bool) {
		d := l.chain.Evaluate(overrides.Context{World: w})
		return d, d.Verdict != overrides.VerdictPass
	}
	report, err := l.batchRun.Run(ctx, batch.Name(task.SkillOverride), dest, interrupt)
	if err != nil {
		l.logger.Warn("batch skill failed", map[string]interface{}{"error": err.Error()})
	}
	l.recordTick("batch", string(task.SkillOverride), string(report.Termination), "")
	l.completeCurrentTask(report.Termination == batch.TerminationUniformBlocked)
	l.farmFresh = false
	return nil
}

func (l *Loop) runVLMTurn(ctx context.Context, w world.WorldSnapshot, farm world.FarmSnapshot) error {
	if l.provider == nil {
		return nil
	}
	prompt := l.buildPrompt(w)
	timeout := time.Duration(l.cfg.VLM.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := l.provider.Complete(vctx, nil, prompt)
	if err != nil {
		l.recordTick("vlm", "", "failed", err.Error())
		return nil
	}
	resp, err := vlm.ParseResponse(raw)
	if err != nil {
		l.recordTick("vlm", "", "skipped", "parse failure")
		return nil
	}
	if len(resp.Actions) == 0 {
		l.recordTick("vlm", "", "skipped", "no actions proposed")
		return nil
	}

	proposed := resp.Actions[0]
	decision := l.chain.Evaluate(overrides.Context{World: w, Farm: farm, Proposed: proposed})

	switch decision.Verdict {
	case overrides.VerdictBlock:
		l.recordTick("vlm", proposed.Type, "blocked", decision.Reason)
		return nil
	case overrides.VerdictReplace:
		l.pushHistory(decision.Action.Type)
		return l.dispatch(ctx, decision.Action)
	default:
		l.pushHistory(proposed.Type)
		return l.dispatch(ctx, proposed)
	}
}

func (l *Loop) dispatch(ctx context.Context, action vlm.ProposedAction) error {
	if _, ok := l.engine.CatalogHas(action.Type); ok {
		outcome, err := l.engine.Run(ctx, action.Type, skillengine.Invocation{})
		if err != nil {
			l.recordTick("vlm", action.Type, "failed", err.Error())
			return nil
		}
		l.recordTick("vlm", action.Type, string(outcome.Result), outcome.Reason)
		return nil
	}
	if prim, ok := action.AsPrimitive(); ok {
		res, err := l.bridge.Execute(ctx, prim)
		if err != nil {
			l.recordTick("vlm", action.Type, "failed", err.Error())
			return nil
		}
		bridge.Settle(ctx, prim)
		outcome := "verified"
		if !res.Success {
			outcome = "failed"
		}
		l.recordTick("vlm", action.Type, outcome, res.Message)
		return nil
	}
	l.recordTick("vlm", action.Type, "skipped", "unknown action type")
	return nil
}

func (l *Loop) buildPrompt(w world.WorldSnapshot) string {
	var activeTask string
	if l.queueCursor < len(l.queue) {
		activeTask = l.queue[l.queueCursor].Description
	}
	return fmt.Sprintf(
		"time=%s weather=%s energy=%d/%d money=%d location=%s active_task=%q history=%v",
		w.Time.Format("15:04"), w.Weather, w.Energy, w.MaxEnergy, w.Money, w.Location, activeTask, l.actionHistory,
	)
}

func (l *Loop) pushHistory(actionType string) {
	l.actionHistory = append(l.actionHistory, actionType)
	if len(l.actionHistory) > maxActionHistory {
		l.actionHistory = l.actionHistory[len(l.actionHistory)-maxActionHistory:]
	}
}

func (l *Loop) recordTick(source, chosen, outcome, reason string) {
	evt := telemetry.NewTickEvent(l.tick, source, chosen, outcome, reason)
	if err := l.publisher.PublishTick(evt); err != nil {
		l.logger.Debug("telemetry publish failed", map[string]interface{}{"error": err.Error()})
	}
}
