package main

import (
	"context"
	"fmt"

	"github.com/sandahltim/StardewAI-sub000/internal/planner"
)

// Run dry-runs the Daily Planner and Prerequisite Resolver against the
// bridge's current state and prints the resolved queue, without
// dispatching anything — useful for inspecting what the agent would do
// before letting it loose.
func (p *PlanCmd) Run(ctx context.Context) error {
	rig, err := buildRig(p.Config)
	if err != nil {
		return err
	}

	w, err := rig.bridge.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get world state: %w", err)
	}
	farm, err := rig.bridge.GetFarm(ctx)
	if err != nil {
		return fmt.Errorf("get farm state: %w", err)
	}
	surroundings, err := rig.bridge.GetSurroundings(ctx)
	if err != nil {
		return fmt.Errorf("get surroundings: %w", err)
	}

	carryover, err := rig.planStore.LoadCarryover()
	if err != nil {
		return fmt.Errorf("load carryover: %w", err)
	}

	plnr := planner.New(planner.DefaultConfig())
	raw := plnr.Plan(w, farm, planner.Forecast{}, carryover.Items)
	queue, skipped := rig.resolver.Resolve(raw, w, farm, surroundings)

	fmt.Printf("raw tasks: %d\n", len(raw))
	for _, t := range raw {
		fmt.Printf("  [%s] %-10s %s\n", t.Priority, t.Kind, t.Description)
	}

	fmt.Printf("\nresolved queue: %d steps\n", len(queue))
	for _, s := range queue {
		fmt.Printf("  %3d. %-20s %s\n", s.Position, s.Kind, s.Description)
	}

	if len(skipped) > 0 {
		fmt.Printf("\nskipped chains: %d\n", len(skipped))
		for _, s := range skipped {
			fmt.Printf("  %s: %s\n", s.TaskID, s.Reason)
		}
	}
	return nil
}
