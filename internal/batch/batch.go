// Package batch implements Batch Skills (§4.9): dedicated routines
// that bypass per-tile VLM consultation for phases uniform enough that
// per-step inference is pure overhead. It adapts the teacher's
// internal/executor/converge.go idiom — loop a bounded number of times
// feeding results forward until a termination condition fires — from
// "iterate an LLM call until it reports CONVERGED" to "iterate the
// skill engine over a generated target list until done or uniformly
// blocked".
package batch

import (
	"context"
	"fmt"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/sandahltim/StardewAI-sub000/internal/lessons"
	"github.com/sandahltim/StardewAI-sub000/internal/overrides"
	"github.com/sandahltim/StardewAI-sub000/internal/skillengine"
	"github.com/sandahltim/StardewAI-sub000/internal/targets"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// Name identifies a registered batch skill.
type Name string

const (
	AutoFarmChores     Name = "auto_farm_chores"
	BatchMineSession   Name = "batch_mine_session"
	BatchGatherWood    Name = "batch_gather_wood"
	BatchOrganizeInv   Name = "batch_organize_inventory"
)

// Termination describes why a batch run stopped.
type Termination string

const (
	TerminationComplete      Termination = "complete"       // phase fully swept
	TerminationUniformBlocked Termination = "uniform_blocked" // every remaining target is blocked
	TerminationInterrupted   Termination = "interrupted"     // override chain interrupted (safety threshold)
	TerminationCanceled      Termination = "canceled"        // context canceled
)

// StepRecord is one logged step of a batch run, for telemetry.
type StepRecord struct {
	Tile   world.Tile
	Skill  string
	Result skillengine.Result
}

// Report summarizes a completed (or interrupted) batch run.
type Report struct {
	Name        Name
	Steps       []StepRecord
	Termination Termination
	SkippedTile []targets.SkipReason
}

// WorldSource supplies fresh snapshots between steps; a batch run must
// re-read the world after every primitive since earlier steps change it.
type WorldSource interface {
	Snapshot(ctx context.Context) (world.WorldSnapshot, world.FarmSnapshot, error)
}

// Pather resolves reachability for target generation.
type Pather = targets.Pather

// InterruptCheck lets the override chain break a batch run early at a
// safety threshold (low energy, late night) per §4.9's last sentence.
type InterruptCheck func(w world.WorldSnapshot) (overrides.Decision, bool)

// Runner drives one batch skill to completion.
type Runner struct {
	engine  *skillengine.Engine
	world   WorldSource
	pather  Pather
	lessons *lessons.Store
	logger  *logging.Logger
}

// New builds a batch Runner over the shared skill engine and world source.
func New(engine *skillengine.Engine, ws WorldSource, pather Pather, ls *lessons.Store) *Runner {
	return &Runner{
		engine:  engine,
		world:   ws,
		pather:  pather,
		lessons: ls,
		logger:  logging.New().WithComponent("batch"),
	}
}

// step describes one skill to attempt against one target within a phase.
type step struct {
	kind  targets.TaskKind
	skill string
}

// phaseSteps maps each batch skill to its ordered sub-phases. Each
// sub-phase generates its own target list (§4.9 step 1) and is swept
// to completion or uniform-block before the next begins.
var phaseSteps = map[Name][]step{
	AutoFarmChores: {
		{kind: targets.KindHarvest, skill: "harvest_crop"},
		{kind: targets.KindWater, skill: "water_crop"},
		{kind: targets.KindTill, skill: "till_soil"},
		{kind: targets.KindPlant, skill: "plant_seeds"},
	},
	BatchGatherWood: {
		{kind: targets.KindClear, skill: "chop_tree"},
	},
	BatchOrganizeInv: {
		// organizing inventory has no farm targets; handled as a single
		// bookkeeping step rather than a tile sweep.
	},
}

// Run drives a batch skill until the phase completes, is uniformly
// blocked, or an interrupt check fires. destination is only consulted
// by sub-phases that need a single fixed target (none of the current
// batch skills do, but the signature matches targets.Generate).
func (r *Runner) Run(ctx context.Context, name Name, destination world.Tile, interrupt InterruptCheck) (Report, error) {
	report := Report{Name: name}

	if name == BatchOrganizeInv {
		return r.runOrganizeInventory(ctx)
	}
	if name == BatchMineSession {
		return r.runMineSession(ctx, interrupt)
	}

	steps, ok := phaseSteps[name]
	if !ok {
		return report, fmt.Errorf("unknown batch skill %q", name)
	}

	blocked := false
	for _, sp := range steps {
		select {
		case <-ctx.Done():
			report.Termination = TerminationCanceled
			return report, ctx.Err()
		default:
		}

		sub, err := r.sweep(ctx, sp, destination, interrupt)
		report.Steps = append(report.Steps, sub.Steps...)
		report.SkippedTile = append(report.SkippedTile, sub.SkippedTile...)
		if err != nil {
			return report, err
		}
		if sub.Termination == TerminationInterrupted || sub.Termination == TerminationCanceled {
			report.Termination = sub.Termination
			return report, nil
		}
		if sub.Termination == TerminationUniformBlocked {
			blocked = true
		}
	}

	report.Termination = TerminationComplete
	if blocked {
		report.Termination = TerminationUniformBlocked
	}
	return report, nil
}

// sweep runs one sub-phase (one TaskKind) to completion or block.
func (r *Runner) sweep(ctx context.Context, sp step, destination world.Tile, interrupt InterruptCheck) (Report, error) {
	report := Report{}

	for {
		w, farm, err := r.world.Snapshot(ctx)
		if err != nil {
			return report, fmt.Errorf("batch sweep snapshot: %w", err)
		}

		if interrupt != nil {
			if d, fired := interrupt(w); fired {
				r.logger.Info("batch interrupted by override", map[string]interface{}{
					"rule": d.RuleName,
				})
				report.Termination = TerminationInterrupted
				return report, nil
			}
		}

		tgts, skips := targets.Generate(ctx, sp.kind, w.PlayerTile, farm, destination, r.pather)
		report.SkippedTile = append(report.SkippedTile, skips...)
		if len(tgts) == 0 {
			report.Termination = TerminationComplete
			return report, nil
		}

		blockedInARow := 0
		for _, t := range tgts {
			select {
			case <-ctx.Done():
				report.Termination = TerminationCanceled
				return report, ctx.Err()
			default:
			}

			inv := skillengine.Invocation{Target: t.Tile, TargetFacing: t.Facing}
			outcome, err := r.engine.Run(ctx, sp.skill, inv)
			if err != nil {
				return report, fmt.Errorf("batch skill %s at %v: %w", sp.skill, t.Tile, err)
			}
			report.Steps = append(report.Steps, StepRecord{Tile: t.Tile, Skill: sp.skill, Result: outcome.Result})

			switch outcome.Result {
			case skillengine.ResultVerified:
				blockedInARow = 0
			case skillengine.ResultBlocked, skillengine.ResultFailed, skillengine.ResultPhantomFailed:
				blockedInARow++
				if r.lessons != nil && outcome.Result == skillengine.ResultPhantomFailed {
					r.lessons.Record(lessons.KindPhantomFail, fmt.Sprintf("%s at %d,%d: %s", sp.skill, t.Tile.X, t.Tile.Y, outcome.Reason))
				}
			case skillengine.ResultSkipped:
				// target became invalid between generation and execution; not a block
			}
		}

		if blockedInARow == len(tgts) {
			report.Termination = TerminationUniformBlocked
			return report, nil
		}
		// re-snapshot and regenerate targets next loop iteration; crops
		// that were just watered/harvested fall out of the candidate set.
	}
}

// runOrganizeInventory is a single bookkeeping step: no tile sweep, it
// asks the engine to run a fixed organize skill once.
func (r *Runner) runOrganizeInventory(ctx context.Context) (Report, error) {
	outcome, err := r.engine.Run(ctx, "organize_inventory", skillengine.Invocation{})
	report := Report{Name: BatchOrganizeInv, Steps: []StepRecord{{Skill: "organize_inventory", Result: outcome.Result}}}
	if err != nil {
		return report, err
	}
	report.Termination = TerminationComplete
	return report, nil
}

// runMineSession descends levels, breaking rocks and fighting until
// blocked or interrupted; grounded on the same loop shape as sweep but
// with an unbounded "descend" outer step instead of a target list.
func (r *Runner) runMineSession(ctx context.Context, interrupt InterruptCheck) (Report, error) {
	report := Report{Name: BatchMineSession}

	for {
		select {
		case <-ctx.Done():
			report.Termination = TerminationCanceled
			return report, ctx.Err()
		default:
		}

		w, farm, err := r.world.Snapshot(ctx)
		if err != nil {
			return report, fmt.Errorf("mine session snapshot: %w", err)
		}
		if interrupt != nil {
			if _, fired := interrupt(w); fired {
				report.Termination = TerminationInterrupted
				return report, nil
			}
		}

		rockTargets, skips := targets.Generate(ctx, targets.KindClear, w.PlayerTile, farm, world.Tile{}, r.pather)
		report.SkippedTile = append(report.SkippedTile, skips...)
		if len(rockTargets) == 0 {
			outcome, err := r.engine.Run(ctx, "use_ladder", skillengine.Invocation{})
			if err != nil {
				return report, err
			}
			report.Steps = append(report.Steps, StepRecord{Skill: "use_ladder", Result: outcome.Result})
			if outcome.Result != skillengine.ResultVerified {
				report.Termination = TerminationUniformBlocked
				return report, nil
			}
			continue
		}

		t := rockTargets[0]
		inv := skillengine.Invocation{Target: t.Tile, TargetFacing: t.Facing}
		outcome, err := r.engine.Run(ctx, "break_rock", inv)
		if err != nil {
			return report, err
		}
		report.Steps = append(report.Steps, StepRecord{Tile: t.Tile, Skill: "break_rock", Result: outcome.Result})
	}
}
