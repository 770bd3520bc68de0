package batch

import (
	"context"
	"testing"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/overrides"
	"github.com/sandahltim/StardewAI-sub000/internal/skillengine"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// fakeBridge mutates farm/state in response to the opcodes the batch
// skills in this package drive, so the engine's post-snapshot
// verification observes a genuine transition instead of a static
// fixture.
type fakeBridge struct {
	state world.WorldSnapshot
	farm  world.FarmSnapshot
}

func (f *fakeBridge) GetState(ctx context.Context) (world.WorldSnapshot, error) { return f.state, nil }
func (f *fakeBridge) GetFarm(ctx context.Context) (world.FarmSnapshot, error)   { return f.farm, nil }

func (f *fakeBridge) Execute(ctx context.Context, action bridge.PrimitiveAction) (bridge.ActionResult, error) {
	x, _ := action.Params["target_x"].(int)
	y, _ := action.Params["target_y"].(int)
	tile := world.Tile{X: x, Y: y}

	switch action.Opcode {
	case bridge.OpHarvest:
		var remaining []world.Crop
		for _, c := range f.farm.Crops {
			if c.Position == tile {
				f.state.Inventory = append(f.state.Inventory, world.InventoryItem{Name: "Parsnip", Type: world.ItemCrop, Stack: 1})
				continue
			}
			remaining = append(remaining, c)
		}
		f.farm.Crops = remaining
	case bridge.OpUseTool:
		// Both water_crop and till_soil compile to the real catalog's
		// use_tool opcode (engine_test.go covers the crop-protection
		// scoping that keeps them distinct); here a crop on the target
		// tile is marked watered, and a tile without one is left as is.
		for i, c := range f.farm.Crops {
			if c.Position == tile {
				f.farm.Crops[i].Watered = true
			}
		}
	}
	return bridge.ActionResult{Success: true, State: bridge.StateComplete}, nil
}

type fakeWorldSource struct{ b *fakeBridge }

func (s fakeWorldSource) Snapshot(ctx context.Context) (world.WorldSnapshot, world.FarmSnapshot, error) {
	return s.b.state, s.b.farm, nil
}

func catalogFor(skills ...string) *skillengine.Catalog {
	doc := ""
	for _, s := range skills {
		opcode := "use_tool"
		criterion := ""
		switch s {
		case "harvest_crop":
			opcode = "harvest"
			criterion = "\n  success:\n    - kind: harvested\n      item: Parsnip\n"
		case "water_crop":
			criterion = "\n  success:\n    - kind: watered\n"
		}
		doc += "- name: " + s + "\n  actions:\n    - opcode: " + opcode + criterion
	}
	cat, err := skillengine.ParseCatalog([]byte(doc))
	if err != nil {
		panic(err)
	}
	return cat
}

func TestRunner_Run_AutoFarmChores_HarvestAndWaterThenComplete(t *testing.T) {
	fb := &fakeBridge{
		farm: world.FarmSnapshot{
			Crops: []world.Crop{
				{Position: world.Tile{X: 0, Y: 0}, Phase: 3, FinalPhase: 3},
				{Position: world.Tile{X: 1, Y: 0}, Watered: false},
			},
		},
	}
	eng := skillengine.New(fb, catalogFor("harvest_crop", "water_crop", "till_soil", "plant_seeds"))
	r := New(eng, fakeWorldSource{fb}, nil, nil)

	report, err := r.Run(context.Background(), AutoFarmChores, world.Tile{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Termination != TerminationComplete {
		t.Errorf("Termination = %s, want complete", report.Termination)
	}
	if _, stillThere := fb.farm.CropAt(world.Tile{X: 0, Y: 0}); stillThere {
		t.Error("expected the ready crop at (0,0) to have been harvested")
	}
	if c, ok := fb.farm.CropAt(world.Tile{X: 1, Y: 0}); !ok || !c.Watered {
		t.Errorf("crop at (1,0) = %+v, want watered", c)
	}
}

func TestRunner_Run_UniformBlockedWhenEverySkillFails(t *testing.T) {
	// A tree standing on a tile that also holds a live crop trips the
	// engine's crop-protection safety block on every attempt (the only
	// ResultBlocked path that doesn't also surface as an error), so the
	// sub-phase sweep terminates uniform_blocked instead of looping.
	chopCat, err := skillengine.ParseCatalog([]byte("- name: chop_tree\n  requires_tool: axe\n  actions:\n    - opcode: use_tool\n"))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	target := world.Tile{X: 3, Y: 3}
	fb := &fakeBridge{
		state: world.WorldSnapshot{Inventory: []world.InventoryItem{{Slot: 0, Name: "Axe", Type: world.ItemTool}}},
		farm: world.FarmSnapshot{
			Objects: []world.WorldObject{{Position: target, Kind: "Tree"}},
			Crops:   []world.Crop{{Position: target}},
		},
	}
	eng := skillengine.New(fb, chopCat)
	r := New(eng, fakeWorldSource{fb}, nil, nil)

	report, err := r.Run(context.Background(), BatchGatherWood, world.Tile{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Termination != TerminationUniformBlocked {
		t.Errorf("Termination = %s, want uniform_blocked", report.Termination)
	}
}

func TestRunner_Run_InterruptStopsEarly(t *testing.T) {
	fb := &fakeBridge{
		farm: world.FarmSnapshot{Crops: []world.Crop{{Position: world.Tile{X: 0, Y: 0}, Phase: 3, FinalPhase: 3}}},
	}
	eng := skillengine.New(fb, catalogFor("harvest_crop"))
	r := New(eng, fakeWorldSource{fb}, nil, nil)

	interrupt := func(w world.WorldSnapshot) (overrides.Decision, bool) {
		return overrides.Decision{RuleName: "late_night_bed"}, true
	}
	report, err := r.Run(context.Background(), AutoFarmChores, world.Tile{}, interrupt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Termination != TerminationInterrupted {
		t.Errorf("Termination = %s, want interrupted", report.Termination)
	}
	if len(report.Steps) != 0 {
		t.Errorf("Steps = %+v, want no steps recorded before the interrupt fired", report.Steps)
	}
}

func TestRunner_Run_UnknownSkillErrors(t *testing.T) {
	fb := &fakeBridge{}
	eng := skillengine.New(fb, catalogFor())
	r := New(eng, fakeWorldSource{fb}, nil, nil)

	_, err := r.Run(context.Background(), Name("mystery_batch"), world.Tile{}, nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered batch skill")
	}
}

func TestRunner_Run_CompleteWhenNoCandidates(t *testing.T) {
	fb := &fakeBridge{}
	eng := skillengine.New(fb, catalogFor("harvest_crop", "water_crop", "till_soil", "plant_seeds"))
	r := New(eng, fakeWorldSource{fb}, nil, nil)

	report, err := r.Run(context.Background(), AutoFarmChores, world.Tile{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Termination != TerminationComplete {
		t.Errorf("Termination = %s, want complete with an empty farm", report.Termination)
	}
	if len(report.Steps) != 0 {
		t.Errorf("Steps = %+v, want no steps when there are no targets", report.Steps)
	}
}
