package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nats-io/nats.go"

	"github.com/sandahltim/StardewAI-sub000/internal/telemetry"
)

// dashboard styles follow internal/setup/setup.go's lipgloss palette,
// repointed from a setup wizard's accent colors to a read-only status
// feed.
var (
	dashTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	dashDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	dashOkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	dashWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const maxDashEvents = 20

// tickMsg wraps one telemetry.TickEvent delivered from the NATS
// subscription into a bubbletea message.
type tickMsg telemetry.TickEvent

// planMsg wraps one telemetry.PlanSnapshotEvent the same way.
type planMsg telemetry.PlanSnapshotEvent

// dashModel is a read-only view over the agent loop's tick feed; it
// never writes back to the loop or the bridge, matching spec.md §1's
// "dashboard" external collaborator boundary. The event log renders
// through a bubbles/viewport so a feed longer than the terminal still
// scrolls, the same component internal/setup/setup.go reaches for
// whenever a wizard step's content outgrows one screen.
type dashModel struct {
	events []tickMsg
	plan   planMsg
	sub    chan interface{}
	feed   viewport.Model
	ready  bool
}

func (m dashModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m dashModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.sub
	}
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 3
		footerHeight := 2
		if !m.ready {
			m.feed = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.feed.Width = msg.Width
			m.feed.Height = msg.Height - headerHeight - footerHeight
		}
		m.feed.SetContent(m.renderFeed())
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd
	case tickMsg:
		m.events = append(m.events, msg)
		if len(m.events) > maxDashEvents {
			m.events = m.events[len(m.events)-maxDashEvents:]
		}
		m.feed.SetContent(m.renderFeed())
		m.feed.GotoBottom()
		return m, m.waitForEvent()
	case planMsg:
		m.plan = msg
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m dashModel) renderFeed() string {
	var b strings.Builder
	for _, e := range m.events {
		line := fmt.Sprintf("tick %-6d %-10s %-20s %s", e.Tick, e.Source, e.ChosenAction, e.Outcome)
		if e.Outcome == "verified" || e.Outcome == "skipped" {
			b.WriteString(dashOkStyle.Render(line) + "\n")
		} else {
			b.WriteString(dashWarnStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m dashModel) View() string {
	header := dashTitleStyle.Render("farmagent dashboard") + "\n"
	header += dashDimStyle.Render(fmt.Sprintf("active task: %s  queue: %d  completed: %d",
		m.plan.ActiveTask, m.plan.QueueLength, len(m.plan.CompletedIDs))) + "\n\n"

	if !m.ready {
		return header + dashDimStyle.Render("waiting for terminal size...")
	}
	return header + m.feed.View() + "\n" + dashDimStyle.Render("q to quit, arrows to scroll")
}

// runDashboard subscribes to the NATS tick/plan subjects and drives a
// bubbletea program rendering them, until ctx is canceled.
func runDashboard(ctx context.Context, url, prefix string) error {
	conn, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("connect to telemetry broker: %w", err)
	}
	defer conn.Close()

	sub := make(chan interface{}, 64)

	tickSub, err := conn.Subscribe(prefix+".tick", func(m *nats.Msg) {
		var evt telemetry.TickEvent
		if json.Unmarshal(m.Data, &evt) == nil {
			sub <- tickMsg(evt)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to tick stream: %w", err)
	}
	defer tickSub.Unsubscribe()

	planSub, err := conn.Subscribe(prefix+".plan", func(m *nats.Msg) {
		var evt telemetry.PlanSnapshotEvent
		if json.Unmarshal(m.Data, &evt) == nil {
			sub <- planMsg(evt)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to plan stream: %w", err)
	}
	defer planSub.Unsubscribe()

	program := tea.NewProgram(dashModel{sub: sub})
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, err = program.Run()
	return err
}
