package skillengine

import (
	"context"
	"strings"
	"sync"

	"github.com/vinayprograms/agentkit/logging"
	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sandahltim/StardewAI-sub000/internal/agenterrors"
	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/verifier"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// Invocation is the calling context a skill's primitive templates
// substitute variables from. Disallow recursive templating: values are
// resolved once, and resolved values are never themselves re-scanned
// for `{...}` placeholders.
type Invocation struct {
	Target       world.Tile
	TargetFacing world.Direction
	Slot         int    // resolved tool slot, if RequiresTool was set
	Item         string // seed/item name for plant/buy-style skills
	Quantity     int
}

// Result is what one skill invocation produced.
type Result string

const (
	ResultVerified      Result = "verified"
	ResultPhantomFailed Result = "phantom_failed"
	ResultFailed        Result = "failed"
	ResultBlocked       Result = "blocked"
	ResultSkipped       Result = "skipped"
)

// Outcome carries the result plus diagnostic detail for telemetry.
type Outcome struct {
	Result        Result
	FailedPrimitive bridge.Opcode
	Reason        string
}

// Bridge is the subset of bridge.Client the engine drives.
type Bridge interface {
	GetState(ctx context.Context) (world.WorldSnapshot, error)
	GetFarm(ctx context.Context) (world.FarmSnapshot, error)
	Execute(ctx context.Context, action bridge.PrimitiveAction) (bridge.ActionResult, error)
}

// Engine executes one skill invocation at a time. catalog is guarded by
// a mutex rather than held immutable, since fsnotify-driven hot-reload
// (§10 Ambient Stack) swaps it from a watcher goroutine while Run reads
// it from the agent loop's goroutine.
type Engine struct {
	bridge Bridge
	mu     sync.RWMutex
	catalog *Catalog
	logger  *logging.Logger
}

// New builds an Engine bound to a bridge and catalog.
func New(b Bridge, catalog *Catalog) *Engine {
	return &Engine{bridge: b, catalog: catalog, logger: logging.New().WithComponent("skillengine")}
}

// CatalogHas reports whether name is a known declarative skill, letting
// callers distinguish a VLM-proposed skill name from a raw opcode.
func (e *Engine) CatalogHas(name string) (SkillDef, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Get(name)
}

// SetCatalog atomically swaps the active catalog, used by the skill
// catalog's fsnotify watcher to apply an on-disk edit without
// restarting the agent loop.
func (e *Engine) SetCatalog(c *Catalog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog = c
}

func (e *Engine) getCatalog() *Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog
}

// Run executes skillName against inv. It evaluates preconditions, runs
// tool auto-selection, rejects destructive primitives aimed at crops,
// substitutes and submits each primitive in order, settles, and
// verifies the declared success criteria.
func (e *Engine) Run(ctx context.Context, skillName string, inv Invocation) (outcome Outcome, err error) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "skillengine.run")
	span.SetAttributes(attribute.String("skill.name", skillName))
	defer func() {
		span.SetAttributes(attribute.String("skill.result", string(outcome.Result)))
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	def, ok := e.getCatalog().Get(skillName)
	if !ok {
		return Outcome{Result: ResultBlocked, Reason: "unknown skill"}, agenterrors.New(agenterrors.KindPrereqUnmet, "skill "+skillName+" not in catalog")
	}

	preWorld, err := e.bridge.GetState(ctx)
	if err != nil {
		return Outcome{Result: ResultFailed}, agenterrors.Wrap(agenterrors.KindBridgeError, "pre-snapshot", err)
	}
	preFarm, err := e.bridge.GetFarm(ctx)
	if err != nil {
		return Outcome{Result: ResultFailed}, agenterrors.Wrap(agenterrors.KindBridgeError, "pre-snapshot", err)
	}

	if inv.Slot == 0 && def.RequiresTool != "" {
		slot, found := preWorld.FindSlotByCategoryFuzzy(def.RequiresTool)
		if !found {
			return Outcome{Result: ResultBlocked, Reason: "no slot matches tool category " + def.RequiresTool},
				agenterrors.New(agenterrors.KindPrereqUnmet, "missing tool category "+def.RequiresTool)
		}
		inv.Slot = slot
	}

	if failed := e.checkPreconditions(def, preWorld, preFarm, inv); failed != "" {
		return Outcome{Result: ResultBlocked, Reason: failed}, agenterrors.New(agenterrors.KindPrereqUnmet, failed)
	}

	actions := make([]bridge.PrimitiveAction, 0, len(def.Actions)+1)
	if def.RequiresTool != "" {
		actions = append(actions, bridge.PrimitiveAction{Opcode: bridge.OpSelectSlot, Params: map[string]interface{}{"n": inv.Slot}})
	}
	for _, tmpl := range def.Actions {
		actions = append(actions, substitute(tmpl, inv))
	}

	for _, action := range actions {
		if blocked, reason := e.safetyBlock(action, preFarm, def.RequiresTool); blocked {
			return Outcome{Result: ResultBlocked, Reason: reason, FailedPrimitive: action.Opcode}, nil
		}
	}

	for _, action := range actions {
		res, err := e.bridge.Execute(ctx, action)
		if err != nil {
			return Outcome{Result: ResultFailed, FailedPrimitive: action.Opcode, Reason: err.Error()},
				agenterrors.Wrap(agenterrors.KindBridgeError, string(action.Opcode), err)
		}
		if !res.Success {
			return Outcome{Result: ResultFailed, FailedPrimitive: action.Opcode, Reason: res.Error},
				agenterrors.New(agenterrors.KindBridgeError, string(action.Opcode)+": "+res.Error)
		}

		if err := bridge.Settle(ctx, action); err != nil {
			return Outcome{Result: ResultFailed, FailedPrimitive: action.Opcode, Reason: "settle interrupted"}, err
		}
	}

	if len(def.Success) == 0 {
		return Outcome{Result: ResultVerified}, nil
	}

	postWorld, err := e.bridge.GetState(ctx)
	if err != nil {
		return Outcome{Result: ResultFailed}, agenterrors.Wrap(agenterrors.KindBridgeError, "post-snapshot", err)
	}
	postFarm, err := e.bridge.GetFarm(ctx)
	if err != nil {
		return Outcome{Result: ResultFailed}, agenterrors.Wrap(agenterrors.KindBridgeError, "post-snapshot", err)
	}

	snaps := verifier.Snapshots{PreWorld: preWorld, PreFarm: preFarm, PostWorld: postWorld, PostFarm: postFarm}
	for _, ct := range def.Success {
		criterion := resolveCriterion(ct, inv)
		outcome, reason := verifier.Verify(snaps, criterion)
		if outcome == verifier.PhantomFailed {
			return Outcome{Result: ResultPhantomFailed, Reason: reason}, agenterrors.New(agenterrors.KindPhantomFailure, reason)
		}
	}
	return Outcome{Result: ResultVerified}, nil
}

// checkPreconditions evaluates def's preconditions against current state.
// Returns a non-empty failure description if any precondition fails.
func (e *Engine) checkPreconditions(def SkillDef, w world.WorldSnapshot, f world.FarmSnapshot, inv Invocation) string {
	for _, p := range def.Preconditions {
		switch p.Kind {
		case PreToolCategory:
			if _, ok := w.FindSlotByCategoryFuzzy(p.Value); !ok {
				return "missing tool category " + p.Value
			}
		case PreLocation:
			if w.Location != p.Value {
				return "not at location " + p.Value
			}
		case PreResourceLevel:
			if p.Value == "water>0" && w.WaterLevel <= 0 {
				return "watering can empty"
			}
		case PreAdjacentToEntity:
			if _, ok := f.ObjectAt(inv.Target); p.Value != "" && !ok {
				return "no entity at target for " + p.Value
			}
		case PreTimeWindow:
			// Time-window gating is evaluated by the resolver/planner,
			// which has access to the wall-clock hour; the engine treats
			// an unparsed window as satisfied to avoid false blocks.
		}
	}
	return ""
}

// safetyBlock refuses an axe/pickaxe/weapon swing whose facing tile
// contains a crop, even if the bridge would accept it (§4.5, §4.8 rule
// 8). Scoped to destructive tool categories only: water_crop and
// till_soil both compile to OpUseTool too, and water_crop's target is
// by construction a tile with a crop on it, so gating on opcode alone
// would block every watering attempt.
func (e *Engine) safetyBlock(action bridge.PrimitiveAction, farm world.FarmSnapshot, toolCategory string) (bool, string) {
	if action.Opcode != bridge.OpUseTool && action.Opcode != bridge.OpSwingWeapon {
		return false, ""
	}
	if !isDestructiveTool(toolCategory) {
		return false, ""
	}
	target, ok := tileParam(action.Params)
	if !ok {
		return false, ""
	}
	if _, hasCrop := farm.CropAt(target); hasCrop {
		return true, "crop protection: refused destructive tool use on planted tile"
	}
	return false, ""
}

func isDestructiveTool(category string) bool {
	switch category {
	case "axe", "pickaxe", "weapon":
		return true
	default:
		return false
	}
}

func tileParam(params map[string]interface{}) (world.Tile, bool) {
	x, okx := params["target_x"].(int)
	y, oky := params["target_y"].(int)
	if okx && oky {
		return world.Tile{X: x, Y: y}, true
	}
	return world.Tile{}, false
}

// substitute resolves `{var}` placeholders in tmpl from inv, one pass,
// no recursion.
func substitute(tmpl PrimitiveTemplate, inv Invocation) bridge.PrimitiveAction {
	params := make(map[string]interface{}, len(tmpl.Params))
	for k, v := range tmpl.Params {
		params[k] = substituteValue(v, inv)
	}
	params["target_x"] = inv.Target.X
	params["target_y"] = inv.Target.Y
	return bridge.PrimitiveAction{Opcode: tmpl.Opcode, Params: params}
}

func substituteValue(v interface{}, inv Invocation) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch s {
	case "{target_direction}":
		return string(inv.TargetFacing)
	case "{slot}":
		return inv.Slot
	case "{item}":
		return inv.Item
	case "{quantity}":
		return inv.Quantity
	case "{target_x}":
		return inv.Target.X
	case "{target_y}":
		return inv.Target.Y
	default:
		if strings.Contains(s, "{") {
			return s // unrecognized placeholder left verbatim, never recursively expanded
		}
		return s
	}
}

func resolveCriterion(t SuccessCriterionTemplate, inv Invocation) verifier.Criterion {
	return verifier.Criterion{
		Kind:     t.Kind,
		Tile:     inv.Target,
		Item:     resolveItem(t.Item, inv),
		Delta:    t.Delta,
		Location: t.Location,
		Facing:   resolveFacing(t.Facing, inv),
	}
}

func resolveItem(item string, inv Invocation) string {
	if item == "{item}" {
		return inv.Item
	}
	return item
}

func resolveFacing(facing string, inv Invocation) world.Direction {
	if facing == "{target_direction}" || facing == "" {
		return inv.TargetFacing
	}
	return world.Direction(facing)
}
