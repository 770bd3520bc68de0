package main

import (
	"context"
	"fmt"
)

// Run prints a previously saved day plan for forensic analysis,
// following the teacher's replay idiom (cmd/agent/replay.go) of
// reading a persisted record back and rendering it to stdout, scaled
// down here to one day's plan file instead of a full session
// transcript.
func (r *ReplayCmd) Run(ctx context.Context) error {
	rig, err := buildRig(r.Config)
	if err != nil {
		return err
	}

	plan, err := rig.planStore.Load(r.Date)
	if err != nil {
		return fmt.Errorf("load day plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("no plan recorded for %s", r.Date)
	}

	fmt.Printf("day plan %s (created %s)\n", plan.Date, plan.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("\nraw tasks: %d\n", len(plan.Raw))
	for _, t := range plan.Raw {
		fmt.Printf("  [%s] %-10s %s\n", t.Priority, t.Kind, t.Description)
	}

	fmt.Printf("\nresolved queue: %d steps\n", len(plan.Resolved))
	for _, s := range plan.Resolved {
		status := "pending"
		if done, ok := plan.Completions[s.ParentTaskID]; ok {
			if done {
				status = "complete"
			} else {
				status = "skipped"
			}
		}
		fmt.Printf("  %3d. %-20s %-10s [%s]\n", s.Position, s.Kind, s.Description, status)
	}

	if len(plan.SkipReasons) > 0 {
		fmt.Printf("\nskipped chains: %d\n", len(plan.SkipReasons))
		for _, s := range plan.SkipReasons {
			fmt.Printf("  %s: %s\n", s.TaskID, s.Reason)
		}
	}
	return nil
}
