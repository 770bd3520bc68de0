package world

import "testing"

func TestDirection_Opposite(t *testing.T) {
	cases := map[Direction]Direction{
		North: South,
		South: North,
		East:  West,
		West:  East,
	}
	for d, want := range cases {
		if got := d.Opposite(); got != want {
			t.Errorf("%s.Opposite() = %s, want %s", d, got, want)
		}
	}
}

func TestTile_Adjacent(t *testing.T) {
	origin := Tile{X: 5, Y: 5}
	cases := []struct {
		dir  Direction
		want Tile
	}{
		{North, Tile{X: 5, Y: 4}},
		{South, Tile{X: 5, Y: 6}},
		{East, Tile{X: 6, Y: 5}},
		{West, Tile{X: 4, Y: 5}},
	}
	for _, c := range cases {
		if got := origin.Adjacent(c.dir); got != c.want {
			t.Errorf("Adjacent(%s) = %+v, want %+v", c.dir, got, c.want)
		}
	}
}

func TestWorldSnapshot_InventoryBySlot(t *testing.T) {
	w := WorldSnapshot{Inventory: []InventoryItem{
		{Slot: 0, Name: "Hoe"},
		{Slot: 3, Name: "Parsnip Seeds"},
	}}
	if it, ok := w.InventoryBySlot(3); !ok || it.Name != "Parsnip Seeds" {
		t.Fatalf("InventoryBySlot(3) = %+v, %v", it, ok)
	}
	if _, ok := w.InventoryBySlot(9); ok {
		t.Error("expected no item in an empty slot")
	}
}

func TestWorldSnapshot_CountItem(t *testing.T) {
	w := WorldSnapshot{Inventory: []InventoryItem{
		{Name: "Parsnip", Stack: 3},
		{Name: "Parsnip", Stack: 2},
		{Name: "Hoe", Stack: 1},
	}}
	if got := w.CountItem("Parsnip"); got != 5 {
		t.Errorf("CountItem(Parsnip) = %d, want 5", got)
	}
	if got := w.CountItem("Axe"); got != 0 {
		t.Errorf("CountItem(Axe) = %d, want 0", got)
	}
}

func TestWorldSnapshot_FindSlotByCategoryFuzzy(t *testing.T) {
	w := WorldSnapshot{Inventory: []InventoryItem{
		{Slot: 0, Name: "Rusty Hoe", Category: "hoe", Stack: 1},
		{Slot: 1, Name: "Copper Watering Can", Category: "watering-can", Stack: 1},
		{Slot: 2, Name: "Parsnip Seeds", Stack: 10},
	}}
	slot, ok := w.FindSlotByCategoryFuzzy("hoe")
	if !ok || slot != 0 {
		t.Fatalf("FindSlotByCategoryFuzzy(hoe) = %d, %v, want 0, true", slot, ok)
	}
	if _, ok := w.FindSlotByCategoryFuzzy("pickaxe"); ok {
		t.Error("expected no match for a category nothing carries")
	}
}

func TestWorldSnapshot_FindSlotByCategoryFuzzy_PrefersLargerStack(t *testing.T) {
	w := WorldSnapshot{Inventory: []InventoryItem{
		{Slot: 0, Name: "Parsnip Seeds", Stack: 2},
		{Slot: 4, Name: "Parsnip Seeds", Stack: 9},
	}}
	slot, ok := w.FindSlotByCategoryFuzzy("parsnip")
	if !ok || slot != 4 {
		t.Fatalf("FindSlotByCategoryFuzzy(parsnip) = %d, %v, want 4, true", slot, ok)
	}
}

func TestSurroundings_Tile(t *testing.T) {
	s := Surroundings{Tiles: [4]AdjacentTile{
		{Direction: North, Kind: TileClear},
		{Direction: South, Kind: TileDebris, BlockerName: "Stone"},
	}}
	at, ok := s.Tile(South)
	if !ok || at.Kind != TileDebris || at.BlockerName != "Stone" {
		t.Fatalf("Tile(South) = %+v, %v", at, ok)
	}
	if _, ok := s.Tile(East); ok {
		t.Error("expected no tile entry for a direction not populated")
	}
}

func TestCrop_ReadyToHarvest(t *testing.T) {
	if (Crop{Phase: 2, FinalPhase: 5}).ReadyToHarvest() {
		t.Error("crop mid-growth should not be ready")
	}
	if !(Crop{Phase: 5, FinalPhase: 5}).ReadyToHarvest() {
		t.Error("crop at final phase should be ready")
	}
	if !(Crop{Phase: 6, FinalPhase: 5}).ReadyToHarvest() {
		t.Error("crop past final phase should still report ready")
	}
}

func TestFarmSnapshot_TilledEmptyTiles(t *testing.T) {
	f := FarmSnapshot{
		TilledTiles: []Tile{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}},
		Crops:       []Crop{{Position: Tile{X: 1, Y: 0}}},
	}
	got := f.TilledEmptyTiles()
	if len(got) != 2 || got[0] != (Tile{X: 0, Y: 0}) || got[1] != (Tile{X: 2, Y: 0}) {
		t.Fatalf("TilledEmptyTiles() = %+v, want tiles (0,0) and (2,0)", got)
	}
}

func TestFarmSnapshot_CropAt(t *testing.T) {
	f := FarmSnapshot{Crops: []Crop{{Position: Tile{X: 3, Y: 4}, Species: "Parsnip"}}}
	if c, ok := f.CropAt(Tile{X: 3, Y: 4}); !ok || c.Species != "Parsnip" {
		t.Fatalf("CropAt(3,4) = %+v, %v", c, ok)
	}
	if _, ok := f.CropAt(Tile{X: 9, Y: 9}); ok {
		t.Error("expected no crop at an empty tile")
	}
}

func TestFarmSnapshot_ObjectAt(t *testing.T) {
	f := FarmSnapshot{Objects: []WorldObject{{Position: Tile{X: 7, Y: 2}, Kind: "Tree"}}}
	if o, ok := f.ObjectAt(Tile{X: 7, Y: 2}); !ok || o.Kind != "Tree" {
		t.Fatalf("ObjectAt(7,2) = %+v, %v", o, ok)
	}
	if _, ok := f.ObjectAt(Tile{X: 0, Y: 0}); ok {
		t.Error("expected no object at an empty tile")
	}
}
