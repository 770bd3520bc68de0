// Package executor implements the Task Executor (§4.6): a single-task
// state machine that walks a locked ResolvedTask's target cursor to
// completion, invoking the Skill Engine per target and applying the
// stuck detector and obstacle-detour rules along the way. It adapts
// the teacher's internal/executor.Executor idiom — a struct carrying
// state, counters, and On* callback fields, driven one goal at a time
// — from "drive an agentfile Workflow's goals" to "drive one
// ResolvedTask's spatial target list".
package executor

import (
	"context"
	"fmt"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/lessons"
	"github.com/sandahltim/StardewAI-sub000/internal/resolver"
	"github.com/sandahltim/StardewAI-sub000/internal/skillengine"
	"github.com/sandahltim/StardewAI-sub000/internal/targets"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// State is the executor's current state (§4.6).
type State string

const (
	StateIdle          State = "idle"
	StateRunning       State = "running"
	StateVerifying     State = "verifying"
	StateAwaitingRetry State = "awaiting_retry"
	StateComplete      State = "complete"
	StateSkipped       State = "skipped"
)

const (
	stuckThresholdTicks  = 10
	phantomFailThreshold = 2
	targetFailThreshold  = 3
)

// mode classifies how a resolved task's single target (or target list)
// is approached.
type mode int

const (
	modeSpatial mode = iota // sweep N tiles, skill per tile, adjacency required
	modeArrival              // walk to one destination tile, no skill invocation
	modeDirect               // invoke a skill once, no spatial target at all
)

type profile struct {
	mode     mode
	taskKind targets.TaskKind
	skill    string
}

var profiles = map[resolver.ResolvedKind]profile{
	resolver.StepWaterCrops:   {mode: modeSpatial, taskKind: targets.KindWater, skill: "water_crop"},
	resolver.StepHarvestCrops: {mode: modeSpatial, taskKind: targets.KindHarvest, skill: "harvest_crop"},
	resolver.StepClearDebris:  {mode: modeSpatial, taskKind: targets.KindClear, skill: "clear_debris"},
	resolver.StepPlantSeeds:   {mode: modeSpatial, taskKind: targets.KindPlant, skill: "plant_seeds"},

	resolver.StepNavigateToWater: {mode: modeArrival, taskKind: targets.KindRefill},
	resolver.StepNavigateToShop:  {mode: modeArrival, taskKind: targets.KindNavigate},
	resolver.StepNavigateToFarm:  {mode: modeArrival, taskKind: targets.KindNavigate},
	resolver.StepWarpTo:          {mode: modeArrival, taskKind: targets.KindNavigate},

	resolver.StepRefillCan: {mode: modeDirect, skill: "refill_watering_can"},
	resolver.StepBuySeeds:  {mode: modeDirect, skill: "buy_seeds"},
	resolver.StepShipItems: {mode: modeDirect, skill: "ship_current"},
	resolver.StepGoToBed:   {mode: modeDirect, skill: "go_to_bed"},
}

// blockerTool maps a clearable obstacle's Kind to the tool category
// that clears it (§4.6 obstacle detour).
var blockerTool = map[string]string{
	"Tree":  "axe",
	"Stone": "pickaxe",
	"Twig":  "scythe",
	"Weeds": "scythe",
	"Grass": "scythe",
}

// hardBlockers cannot be cleared regardless of equipped tool; they are
// skipped immediately with a tool-upgrade lesson.
var hardBlockers = map[string]bool{
	"Stump":   true,
	"Boulder": true,
	"Log":     true,
}

// Bridge is the subset of bridge.Client the executor drives directly
// (navigation primitives outside of skill invocations).
type Bridge interface {
	Execute(ctx context.Context, action bridge.PrimitiveAction) (bridge.ActionResult, error)
}

// TickOutcome reports what one Tick did, for telemetry.
type TickOutcome struct {
	State        State
	Target       world.Tile
	Skill        string
	SkillResult  skillengine.Result
	Reason       string
	Advanced     bool
	TaskComplete bool
}

// Executor drives one locked ResolvedTask's target cursor to completion.
type Executor struct {
	bridge  Bridge
	engine  *skillengine.Engine
	pather  targets.Pather
	lessons *lessons.Store
	logger  *logging.Logger

	state  State
	task   *resolver.ResolvedTask
	prof   profile
	cursor int
	tgts   []targets.Target

	skipSet        map[world.Tile]bool
	targetFailures map[world.Tile]int
	phantomCounts  map[world.Tile]int

	lastPlayerTile world.Tile
	stuckTicks     int
	tickCount      int
	commentaryCadence int

	// OnCommentaryTick fires every commentaryCadence ticks while
	// running, carrying narrative context only — it never influences
	// the next dispatched action (§4.6).
	OnCommentaryTick func(ctx context.Context, w world.WorldSnapshot)
	// OnLesson records a lesson to the external lessons store/log.
	OnLesson func(kind lessons.Kind, context string)
}

// New builds an Executor bound to a bridge, skill engine and reachability pather.
func New(b Bridge, engine *skillengine.Engine, pather targets.Pather, ls *lessons.Store) *Executor {
	return &Executor{
		bridge:            b,
		engine:            engine,
		pather:            pather,
		lessons:           ls,
		logger:            logging.New().WithComponent("executor"),
		state:             StateIdle,
		commentaryCadence: 5,
	}
}

// State returns the executor's current state.
func (e *Executor) State() State { return e.state }

// Start locks in a new ResolvedTask and generates its target list.
func (e *Executor) Start(ctx context.Context, task *resolver.ResolvedTask, player world.Tile, farm world.FarmSnapshot, destination world.Tile) error {
	prof, ok := profiles[task.Kind]
	if !ok {
		return fmt.Errorf("executor: no profile for resolved kind %q", task.Kind)
	}
	if task.Destination != nil {
		destination = *task.Destination
	}

	e.task = task
	e.prof = prof
	e.cursor = 0
	e.skipSet = make(map[world.Tile]bool)
	e.targetFailures = make(map[world.Tile]int)
	e.phantomCounts = make(map[world.Tile]int)
	e.stuckTicks = 0
	e.tickCount = 0
	e.lastPlayerTile = player

	switch prof.mode {
	case modeSpatial, modeArrival:
		tgts, _ := targets.Generate(ctx, prof.taskKind, player, farm, destination, e.pather)
		e.tgts = tgts
	case modeDirect:
		e.tgts = []targets.Target{{Tile: destination}}
	}

	if len(e.tgts) == 0 {
		e.state = StateComplete
		return nil
	}
	e.state = StateRunning
	return nil
}

// Tick advances the state machine by one tick. The caller supplies a
// freshly read snapshot; the executor never caches world state across
// ticks.
func (e *Executor) Tick(ctx context.Context, w world.WorldSnapshot, farm world.FarmSnapshot) (TickOutcome, error) {
	if e.state != StateRunning {
		return TickOutcome{State: e.state}, nil
	}
	e.tickCount++

	if e.OnCommentaryTick != nil && e.commentaryCadence > 0 && e.tickCount%e.commentaryCadence == 0 {
		e.OnCommentaryTick(ctx, w)
	}

	// 1. Skip already-failed targets and check for cursor exhaustion.
	for e.cursor < len(e.tgts) && e.skipSet[e.tgts[e.cursor].Tile] {
		e.cursor++
	}
	if e.cursor >= len(e.tgts) {
		if len(e.skipSet) == len(e.tgts) {
			e.state = StateSkipped
			return TickOutcome{State: StateSkipped, TaskComplete: true, Reason: "every target skipped"}, nil
		}
		e.state = StateComplete
		return TickOutcome{State: StateComplete, TaskComplete: true}, nil
	}

	target := e.tgts[e.cursor]

	// Stuck detector: player's tile hasn't moved in stuckThresholdTicks
	// consecutive running ticks.
	if w.PlayerTile == e.lastPlayerTile {
		e.stuckTicks++
	} else {
		e.stuckTicks = 0
		e.lastPlayerTile = w.PlayerTile
	}
	if e.stuckTicks >= stuckThresholdTicks {
		e.logger.Warn("stuck detector tripped, skipping target", map[string]interface{}{
			"tile": target.Tile,
		})
		e.skipSet[target.Tile] = true
		e.stuckTicks = 0
		e.cursor++
		return TickOutcome{State: StateRunning, Target: target.Tile, Reason: "stuck", Advanced: true}, nil
	}

	switch e.prof.mode {
	case modeDirect:
		return e.tickDirect(ctx, target)
	default:
		return e.tickSpatial(ctx, w, farm, target)
	}
}

func (e *Executor) tickDirect(ctx context.Context, target targets.Target) (TickOutcome, error) {
	e.state = StateVerifying
	outcome, err := e.engine.Run(ctx, e.prof.skill, skillengine.Invocation{})
	e.state = StateRunning
	return e.applySkillOutcome(ctx, target, outcome, err)
}

func (e *Executor) tickSpatial(ctx context.Context, w world.WorldSnapshot, farm world.FarmSnapshot, target targets.Target) (TickOutcome, error) {
	standing := targets.StandingTile(target.Tile, target.Facing)

	if e.prof.mode == modeArrival {
		if w.PlayerTile == target.Tile {
			e.cursor++
			if e.cursor >= len(e.tgts) {
				e.state = StateComplete
				return TickOutcome{State: StateComplete, Target: target.Tile, TaskComplete: true, Advanced: true}, nil
			}
			return TickOutcome{State: StateRunning, Target: target.Tile, Advanced: true}, nil
		}
		if _, err := e.bridge.Execute(ctx, bridge.PrimitiveAction{Opcode: bridge.OpMoveTo, Params: map[string]interface{}{
			"x": target.Tile.X, "y": target.Tile.Y,
		}}); err != nil {
			return TickOutcome{State: StateRunning, Target: target.Tile, Reason: "navigation failed"}, nil
		}
		bridge.Settle(ctx, bridge.PrimitiveAction{Opcode: bridge.OpMoveTo})
		return TickOutcome{State: StateRunning, Target: target.Tile}, nil
	}

	if w.PlayerTile != standing || w.Facing != target.Facing {
		if blocked, kind := e.adjacentBlocked(farm, target); blocked {
			if handled, outcome, err := e.handleBlocker(ctx, target, kind); handled {
				return outcome, err
			}
		}
		if w.PlayerTile != standing {
			e.bridge.Execute(ctx, bridge.PrimitiveAction{Opcode: bridge.OpMoveTo, Params: map[string]interface{}{
				"x": standing.X, "y": standing.Y,
			}})
			bridge.Settle(ctx, bridge.PrimitiveAction{Opcode: bridge.OpMoveTo})
		} else {
			e.bridge.Execute(ctx, bridge.PrimitiveAction{Opcode: bridge.OpFace, Params: map[string]interface{}{
				"dir": string(target.Facing),
			}})
			bridge.Settle(ctx, bridge.PrimitiveAction{Opcode: bridge.OpFace})
		}
		return TickOutcome{State: StateRunning, Target: target.Tile, Reason: "navigating"}, nil
	}

	e.state = StateVerifying
	outcome, err := e.engine.Run(ctx, e.prof.skill, skillengine.Invocation{Target: target.Tile, TargetFacing: target.Facing})
	e.state = StateRunning
	return e.applySkillOutcome(ctx, target, outcome, err)
}

// adjacentBlocked checks whether the tile the player needs to stand on
// to reach target is itself occupied by an obstacle that must be
// cleared before navigation can proceed.
func (e *Executor) adjacentBlocked(farm world.FarmSnapshot, target targets.Target) (bool, string) {
	standing := targets.StandingTile(target.Tile, target.Facing)
	obj, ok := farm.ObjectAt(standing)
	if !ok {
		return false, ""
	}
	return true, obj.Kind
}

// handleBlocker consults the blocker->tool table and either issues a
// clearing skill, skips the target with a lesson for hard obstacles,
// or declines to handle (returning handled=false so normal navigation
// proceeds).
func (e *Executor) handleBlocker(ctx context.Context, target targets.Target, blockerKind string) (bool, TickOutcome, error) {
	if hardBlockers[blockerKind] {
		e.skipSet[target.Tile] = true
		e.recordLesson(lessons.KindRequiresToolUpgrade, fmt.Sprintf("%s at %d,%d requires upgraded tool", blockerKind, target.Tile.X, target.Tile.Y))
		e.cursor++
		return true, TickOutcome{State: StateRunning, Target: target.Tile, Reason: "hard obstacle, skipped", Advanced: true}, nil
	}
	tool, ok := blockerTool[blockerKind]
	if !ok {
		return false, TickOutcome{}, nil
	}
	clearSkill := skillForTool(tool)
	outcome, err := e.engine.Run(ctx, clearSkill, skillengine.Invocation{Target: target.Tile, TargetFacing: target.Facing})
	if err != nil {
		return true, TickOutcome{State: StateRunning, Target: target.Tile, Reason: "detour failed"}, nil
	}
	return true, TickOutcome{State: StateRunning, Target: target.Tile, Skill: clearSkill, SkillResult: outcome.Result, Reason: "obstacle detour"}, nil
}

func skillForTool(tool string) string {
	switch tool {
	case "axe":
		return "chop_tree"
	case "pickaxe":
		return "break_rock"
	default:
		return "clear_debris"
	}
}

// applySkillOutcome implements §4.6 steps 4-6: advance, retry, or skip
// based on the skill engine's result for the current target.
func (e *Executor) applySkillOutcome(ctx context.Context, target targets.Target, outcome skillengine.Outcome, err error) (TickOutcome, error) {
	res := TickOutcome{State: StateRunning, Target: target.Tile, Skill: e.prof.skill, SkillResult: outcome.Result, Reason: outcome.Reason}
	if err != nil {
		res.Reason = err.Error()
	}

	switch outcome.Result {
	case skillengine.ResultVerified:
		delete(e.targetFailures, target.Tile)
		delete(e.phantomCounts, target.Tile)
		e.cursor++
		res.Advanced = true
		if e.cursor >= len(e.tgts) {
			e.state = StateComplete
			res.State = StateComplete
			res.TaskComplete = true
		}

	case skillengine.ResultPhantomFailed:
		e.phantomCounts[target.Tile]++
		if e.phantomCounts[target.Tile] >= phantomFailThreshold {
			e.recordLesson(lessons.KindPhantomFail, fmt.Sprintf("%s at %d,%d: %s", e.prof.skill, target.Tile.X, target.Tile.Y, outcome.Reason))
			e.skipSet[target.Tile] = true
			e.cursor++
			res.Advanced = true
			if e.cursor >= len(e.tgts) {
				e.state = StateComplete
				res.State = StateComplete
				res.TaskComplete = true
			}
		} else {
			res.State = StateAwaitingRetry
		}

	case skillengine.ResultFailed, skillengine.ResultBlocked:
		e.targetFailures[target.Tile]++
		if e.targetFailures[target.Tile] >= targetFailThreshold {
			e.skipSet[target.Tile] = true
			e.cursor++
			res.Advanced = true
			if e.cursor >= len(e.tgts) {
				e.state = StateComplete
				res.State = StateComplete
				res.TaskComplete = true
			}
		} else {
			res.State = StateAwaitingRetry
		}

	case skillengine.ResultSkipped:
		e.skipSet[target.Tile] = true
		e.cursor++
		res.Advanced = true
		if e.cursor >= len(e.tgts) {
			e.state = StateComplete
			res.State = StateComplete
			res.TaskComplete = true
		}
	}

	return res, nil
}

func (e *Executor) recordLesson(kind lessons.Kind, context string) {
	if e.lessons != nil {
		e.lessons.Record(kind, context)
	}
	if e.OnLesson != nil {
		e.OnLesson(kind, context)
	}
}
