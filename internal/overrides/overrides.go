// Package overrides implements the Override Chain (§4.8): a strict
// ordered list of predicates, each evaluated top-down against the
// current WorldSnapshot and the VLM's proposed action, the first match
// winning. It adapts the teacher's internal/supervision.Supervisor
// idiom — a sequence of independent checks that each contribute a
// trigger/verdict — replacing "reconcile triggers -> verdict" with
// "predicate match -> replacement or block", since here every
// override is a single-source-of-truth policy rather than an
// aggregated trigger list.
package overrides

import (
	"fmt"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/vlm"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// Verdict is what the chain decided for one proposed action.
type Verdict string

const (
	VerdictPass    Verdict = "pass"    // no override matched; dispatch the proposed action unchanged
	VerdictReplace Verdict = "replace" // a higher-priority rule replaced the action
	VerdictBlock   Verdict = "block"   // the action is refused outright, nothing is dispatched
)

// Decision is the chain's output for one tick.
type Decision struct {
	Verdict     Verdict
	Action      vlm.ProposedAction // valid when Verdict is Pass or Replace
	RuleName    string
	Reason      string
}

// Context bundles everything a predicate needs to judge a proposed action.
type Context struct {
	World          world.WorldSnapshot
	Surroundings   world.Surroundings
	Farm           world.FarmSnapshot
	Proposed       vlm.ProposedAction
	LastAction     string
	RepeatCount    int  // how many consecutive ticks LastAction repeated
	AtMapEdge      bool
	MapCenter      world.Tile
	ShopOpen       bool
	NearShippingBin bool
	LateThreshold  string
	EnergyCritical int
}

// Predicate is a single override policy: a pure function of ctx that
// may produce a replacement decision. It returns ok=false when it does
// not match, letting the chain fall through to the next rule.
type Predicate func(ctx Context) (Decision, bool)

// Chain is the ordered list of predicates, evaluated top-down.
type Chain struct {
	rules  []namedPredicate
	logger *logging.Logger
}

type namedPredicate struct {
	name string
	fn   Predicate
}

// NewStandardChain builds the §4.8 standard chain in its specified
// priority order.
func NewStandardChain() *Chain {
	c := &Chain{logger: logging.New().WithComponent("overrides")}
	c.Add("dismiss_popup", dismissPopup)
	c.Add("late_night_bed", lateNightBed)
	c.Add("priority_ship", priorityShip)
	c.Add("no_seeds", noSeeds)
	c.Add("edge_stuck", edgeStuck)
	c.Add("empty_watering_can", emptyWateringCan)
	c.Add("adjacent_filter", adjacentFilter)
	c.Add("crop_protection", cropProtection)
	return c
}

// Add appends a named predicate to the end of the chain.
func (c *Chain) Add(name string, fn Predicate) {
	c.rules = append(c.rules, namedPredicate{name: name, fn: fn})
}

// Evaluate runs the chain top-down and returns the first match, or a
// Pass decision carrying the original proposed action unchanged.
func (c *Chain) Evaluate(ctx Context) Decision {
	for _, r := range c.rules {
		if d, matched := r.fn(ctx); matched {
			d.RuleName = r.name
			c.logger.Debug("override matched", map[string]interface{}{
				"rule":    r.name,
				"verdict": string(d.Verdict),
				"reason":  d.Reason,
			})
			return d
		}
	}
	return Decision{Verdict: VerdictPass, Action: ctx.Proposed}
}

func action(t string, params map[string]interface{}) vlm.ProposedAction {
	return vlm.ProposedAction{Type: t, Params: params}
}

// 1. Dismiss popup: a modal menu/event/dialogue is up and the proposed
// action is not itself a menu op.
func dismissPopup(ctx Context) (Decision, bool) {
	if !ctx.World.MenuOpen && !ctx.World.DialogueOpen {
		return Decision{}, false
	}
	if ctx.Proposed.Type == string(bridge.OpDismissMenu) || ctx.Proposed.Type == string(bridge.OpConfirmDialog) {
		return Decision{}, false
	}
	return Decision{Verdict: VerdictReplace, Action: action(string(bridge.OpDismissMenu), nil), Reason: "modal is up"}, true
}

// 2. Late-night bed: time past threshold or energy critical.
func lateNightBed(ctx Context) (Decision, bool) {
	if ctx.World.Energy >= ctx.EnergyCritical && !pastLateThreshold(ctx) {
		return Decision{}, false
	}
	if ctx.Proposed.Type == string(bridge.OpGoToBed) {
		return Decision{}, false
	}
	return Decision{Verdict: VerdictReplace, Action: action(string(bridge.OpGoToBed), nil), Reason: "late night or critical energy"}, true
}

func pastLateThreshold(ctx Context) bool {
	if ctx.LateThreshold == "" {
		return false
	}
	h, m := ctx.World.Time.Hour(), ctx.World.Time.Minute()
	hhmm := h*60 + m
	th, err := parseHHMM(ctx.LateThreshold)
	if err != nil {
		return false
	}
	return hhmm >= th
}

// parseHHMM parses an "HH:MM" threshold into minutes-since-midnight.
func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse HH:MM %q: %w", s, err)
	}
	return h*60 + m, nil
}

// 3. Priority ship: sellable items in inventory and near the shipping bin.
func priorityShip(ctx Context) (Decision, bool) {
	if !ctx.NearShippingBin {
		return Decision{}, false
	}
	hasSellable := false
	for _, it := range ctx.World.Inventory {
		if it.Type == world.ItemCrop && it.SalePrice > 0 {
			hasSellable = true
			break
		}
	}
	if !hasSellable || ctx.Proposed.Type == string(bridge.OpShip) {
		return Decision{}, false
	}
	return Decision{Verdict: VerdictReplace, Action: action(string(bridge.OpShip), map[string]interface{}{"slot": -1}), Reason: "sellable items near bin"}, true
}

// 4. No seeds: proposed farming action with zero seeds and shop open.
func noSeeds(ctx Context) (Decision, bool) {
	if !isFarmingAction(ctx.Proposed.Type) {
		return Decision{}, false
	}
	seedCount := 0
	for _, it := range ctx.World.Inventory {
		if it.Type == world.ItemSeed {
			seedCount += it.Stack
		}
	}
	if seedCount > 0 || !ctx.ShopOpen {
		return Decision{}, false
	}
	return Decision{Verdict: VerdictReplace, Action: action(string(bridge.OpWarp), map[string]interface{}{"location": "shop"}), Reason: "no seeds, shop open"}, true
}

func isFarmingAction(t string) bool {
	switch t {
	case "till_soil", "plant_seeds", "water_crop", "clear_debris":
		return true
	default:
		return false
	}
}

// 5. Edge stuck: at map edge and the action repeats 3x.
func edgeStuck(ctx Context) (Decision, bool) {
	if !ctx.AtMapEdge || ctx.RepeatCount < 3 {
		return Decision{}, false
	}
	if pastLateThreshold(ctx) {
		return Decision{Verdict: VerdictReplace, Action: action(string(bridge.OpGoToBed), nil), Reason: "stuck at edge at night"}, true
	}
	dir := retreatDirection(ctx.World.PlayerTile, ctx.MapCenter)
	return Decision{Verdict: VerdictReplace, Action: action(string(bridge.OpMoveDirection), map[string]interface{}{"dir": string(dir), "tiles": 3}), Reason: "stuck at map edge"}, true
}

func retreatDirection(from, center world.Tile) world.Direction {
	dx := center.X - from.X
	dy := center.Y - from.Y
	if abs(dx) >= abs(dy) {
		if dx >= 0 {
			return world.East
		}
		return world.West
	}
	if dy >= 0 {
		return world.South
	}
	return world.North
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// 6. Empty watering can: proposed water_crop with water level 0.
func emptyWateringCan(ctx Context) (Decision, bool) {
	if ctx.Proposed.Type != "water_crop" || ctx.World.WaterLevel > 0 {
		return Decision{}, false
	}
	return Decision{Verdict: VerdictReplace, Action: action("refill_watering_can", nil), Reason: "watering can empty"}, true
}

// 7. Adjacent filter: a tool-use whose facing tile is not a valid target.
func adjacentFilter(ctx Context) (Decision, bool) {
	if !isToolUse(ctx.Proposed.Type) {
		return Decision{}, false
	}
	dirRaw, _ := ctx.Proposed.Params["dir"].(string)
	if dirRaw == "" {
		return Decision{}, false
	}
	dir := world.Direction(dirRaw)
	tile, ok := ctx.Surroundings.Tile(dir)
	if ok && tile.Passable {
		return Decision{}, false // already a valid target
	}
	for _, d := range []world.Direction{world.North, world.South, world.East, world.West} {
		if t, ok := ctx.Surroundings.Tile(d); ok && t.Passable {
			params := cloneParams(ctx.Proposed.Params)
			params["dir"] = string(d)
			return Decision{Verdict: VerdictReplace, Action: action(ctx.Proposed.Type, params), Reason: "auto-targeted valid adjacent direction"}, true
		}
	}
	return Decision{Verdict: VerdictBlock, Reason: "no valid adjacent target in any direction"}, true
}

func isToolUse(t string) bool {
	switch t {
	case string(bridge.OpUseTool), string(bridge.OpSwingWeapon), "till_soil", "water_crop", "clear_debris", "chop_tree", "break_rock":
		return true
	default:
		return false
	}
}

func cloneParams(p map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// 8. Crop protection: a destructive tool swing aimed at a planted tile.
func cropProtection(ctx Context) (Decision, bool) {
	if ctx.Proposed.Type != string(bridge.OpUseTool) && ctx.Proposed.Type != string(bridge.OpSwingWeapon) &&
		ctx.Proposed.Type != "chop_tree" && ctx.Proposed.Type != "break_rock" {
		return Decision{}, false
	}
	dirRaw, _ := ctx.Proposed.Params["dir"].(string)
	tile, ok := ctx.Surroundings.Tile(world.Direction(dirRaw))
	if !ok {
		return Decision{}, false
	}
	target := ctx.World.PlayerTile.Adjacent(world.Direction(dirRaw))
	_ = tile
	if _, hasCrop := ctx.Farm.CropAt(target); hasCrop {
		return Decision{Verdict: VerdictBlock, Reason: "crop protection"}, true
	}
	return Decision{}, false
}
