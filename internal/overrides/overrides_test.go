package overrides

import (
	"testing"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/vlm"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

func TestChain_DismissPopup_TakesPriority(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World:    world.WorldSnapshot{MenuOpen: true, Energy: 100},
		Proposed: vlm.ProposedAction{Type: "harvest"},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "dismiss_popup" {
		t.Errorf("Evaluate() = %+v, want dismiss_popup replace", d)
	}
	if d.Action.Type != string(bridge.OpDismissMenu) {
		t.Errorf("Action.Type = %s, want %s", d.Action.Type, bridge.OpDismissMenu)
	}
}

func TestChain_DismissPopup_DoesNotBlockTheDismissItself(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World:    world.WorldSnapshot{MenuOpen: true},
		Proposed: vlm.ProposedAction{Type: string(bridge.OpDismissMenu)},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictPass {
		t.Errorf("Evaluate() = %+v, want pass through for the dismiss action itself", d)
	}
}

func TestChain_LateNightBed_EnergyCritical(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World:          world.WorldSnapshot{Energy: 5},
		EnergyCritical: 10,
		Proposed:       vlm.ProposedAction{Type: "harvest"},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "late_night_bed" {
		t.Errorf("Evaluate() = %+v, want late_night_bed replace", d)
	}
}

func TestChain_PriorityShip_NearBinWithSellables(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World: world.WorldSnapshot{
			Energy:    100,
			Inventory: []world.InventoryItem{{Name: "Parsnip", Type: world.ItemCrop, SalePrice: 10, Stack: 3}},
		},
		NearShippingBin: true,
		Proposed:        vlm.ProposedAction{Type: "harvest"},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "priority_ship" {
		t.Errorf("Evaluate() = %+v, want priority_ship replace", d)
	}
}

func TestChain_NoSeeds_WarpsToShop(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World:    world.WorldSnapshot{Energy: 100},
		ShopOpen: true,
		Proposed: vlm.ProposedAction{Type: "plant_seeds"},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "no_seeds" {
		t.Errorf("Evaluate() = %+v, want no_seeds replace", d)
	}
}

func TestChain_EdgeStuck_RetreatsFromEdge(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World:       world.WorldSnapshot{Energy: 100, PlayerTile: world.Tile{X: 0, Y: 5}},
		AtMapEdge:   true,
		RepeatCount: 3,
		MapCenter:   world.Tile{X: 10, Y: 10},
		Proposed:    vlm.ProposedAction{Type: "move_direction"},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "edge_stuck" {
		t.Errorf("Evaluate() = %+v, want edge_stuck replace", d)
	}
}

func TestChain_EmptyWateringCan(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World:    world.WorldSnapshot{Energy: 100, WaterLevel: 0},
		Proposed: vlm.ProposedAction{Type: "water_crop"},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "empty_watering_can" {
		t.Errorf("Evaluate() = %+v, want empty_watering_can replace", d)
	}
}

func TestChain_AdjacentFilter_RetargetsToPassableDirection(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World: world.WorldSnapshot{Energy: 100},
		Surroundings: world.Surroundings{Tiles: [4]world.AdjacentTile{
			{Direction: world.North, Passable: false},
			{Direction: world.South, Passable: true},
			{Direction: world.East, Passable: false},
			{Direction: world.West, Passable: false},
		}},
		Proposed: vlm.ProposedAction{Type: string(bridge.OpUseTool), Params: map[string]interface{}{"dir": "north"}},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictReplace || d.RuleName != "adjacent_filter" {
		t.Errorf("Evaluate() = %+v, want adjacent_filter replace", d)
	}
	if d.Action.Params["dir"] != "south" {
		t.Errorf("retargeted dir = %v, want south", d.Action.Params["dir"])
	}
}

func TestChain_AdjacentFilter_BlocksWhenNoValidTarget(t *testing.T) {
	c := NewStandardChain()
	ctx := Context{
		World: world.WorldSnapshot{Energy: 100},
		Surroundings: world.Surroundings{Tiles: [4]world.AdjacentTile{
			{Direction: world.North, Passable: false},
			{Direction: world.South, Passable: false},
			{Direction: world.East, Passable: false},
			{Direction: world.West, Passable: false},
		}},
		Proposed: vlm.ProposedAction{Type: string(bridge.OpUseTool), Params: map[string]interface{}{"dir": "north"}},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictBlock || d.RuleName != "adjacent_filter" {
		t.Errorf("Evaluate() = %+v, want adjacent_filter block", d)
	}
}

func TestChain_CropProtection_BlocksDestructiveSwingOnPlantedTile(t *testing.T) {
	c := NewStandardChain()
	target := world.Tile{X: 1, Y: 0}
	ctx := Context{
		World:        world.WorldSnapshot{Energy: 100, PlayerTile: world.Tile{X: 0, Y: 0}},
		Farm:         world.FarmSnapshot{Crops: []world.Crop{{Position: target, Species: "parsnip"}}},
		Surroundings: world.Surroundings{Tiles: [4]world.AdjacentTile{{Direction: world.East, Passable: true}}},
		Proposed:     vlm.ProposedAction{Type: string(bridge.OpSwingWeapon), Params: map[string]interface{}{"dir": "east"}},
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictBlock || d.RuleName != "crop_protection" {
		t.Errorf("Evaluate() = %+v, want crop_protection block", d)
	}
}

func TestChain_Evaluate_PassThroughWhenNothingMatches(t *testing.T) {
	c := NewStandardChain()
	proposed := vlm.ProposedAction{Type: "harvest"}
	ctx := Context{
		World:    world.WorldSnapshot{Energy: 100},
		Proposed: proposed,
	}
	d := c.Evaluate(ctx)
	if d.Verdict != VerdictPass {
		t.Errorf("Evaluate() = %+v, want pass", d)
	}
	if d.Action.Type != proposed.Type {
		t.Errorf("pass-through action = %+v, want unchanged %+v", d.Action, proposed)
	}
}

func TestChain_Add_CustomPredicateRunsInOrder(t *testing.T) {
	c := &Chain{}
	var seen []string
	c.Add("always_pass", func(ctx Context) (Decision, bool) {
		seen = append(seen, "always_pass")
		return Decision{}, false
	})
	c.Add("always_block", func(ctx Context) (Decision, bool) {
		seen = append(seen, "always_block")
		return Decision{Verdict: VerdictBlock, Reason: "test"}, true
	})
	c.logger = logging.New().WithComponent("overrides_test")

	d := c.Evaluate(Context{})
	if d.Verdict != VerdictBlock || d.RuleName != "always_block" {
		t.Errorf("Evaluate() = %+v", d)
	}
	if len(seen) != 2 || seen[0] != "always_pass" || seen[1] != "always_block" {
		t.Errorf("predicate evaluation order = %v, want [always_pass always_block]", seen)
	}
}
