// Package main is the entry point for the farm agent CLI.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Run     RunCmd     `cmd:"" help:"Run the agent loop against the game bridge"`
	Plan    PlanCmd    `cmd:"" help:"Dry-run the daily planner and resolver against current state"`
	Replay  ReplayCmd  `cmd:"" help:"Replay a saved day plan for forensic analysis"`
	Lessons LessonsCmd `cmd:"" help:"List recorded lessons"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// RunCmd starts the agent loop.
type RunCmd struct {
	Config    string `help:"Config file path" default:"agent.toml"`
	Dashboard bool   `help:"Launch the read-only terminal dashboard alongside the loop"`
}

// PlanCmd runs the planner/resolver once and prints the resolved queue
// without dispatching anything, for inspecting what the agent would do.
type PlanCmd struct {
	Config string `help:"Config file path" default:"agent.toml"`
}

// ReplayCmd prints a previously saved day plan.
type ReplayCmd struct {
	Config string `help:"Config file path" default:"agent.toml"`
	Date   string `arg:"" help:"Day plan date to replay, YYYY-MM-DD"`
}

// LessonsCmd lists every recorded lesson.
type LessonsCmd struct {
	Config string `help:"Config file path" default:"agent.toml"`
	Kind   string `help:"Filter by lesson kind (phantom-fail, unreachable, requires-tool-upgrade)"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
