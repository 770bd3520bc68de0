// Package world defines the read-only snapshot types the game bridge
// returns. Snapshots are values, never mutated after construction.
package world

import (
	"strings"
	"time"
)

// Direction is a cardinal facing.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

// Tile is an integer grid coordinate.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Adjacent returns the tile one step from t in the given direction.
func (t Tile) Adjacent(d Direction) Tile {
	switch d {
	case North:
		return Tile{X: t.X, Y: t.Y - 1}
	case South:
		return Tile{X: t.X, Y: t.Y + 1}
	case East:
		return Tile{X: t.X + 1, Y: t.Y}
	case West:
		return Tile{X: t.X - 1, Y: t.Y}
	default:
		return t
	}
}

// ItemType classifies an inventory slot.
type ItemType string

const (
	ItemTool  ItemType = "tool"
	ItemSeed  ItemType = "seed"
	ItemCrop  ItemType = "crop"
	ItemOther ItemType = "other"
)

// InventoryItem is one stack in a toolbar slot.
type InventoryItem struct {
	Slot      int      `json:"slot"`
	Name      string   `json:"name"`
	Type      ItemType `json:"type"`
	Stack     int      `json:"stack"`
	Category  string   `json:"category,omitempty"` // e.g. "hoe", "axe", "watering-can"
	SalePrice int      `json:"sale_price,omitempty"`
}

// WorldSnapshot is a read-through view of the game at one instant.
type WorldSnapshot struct {
	Time            time.Time       `json:"time"`
	Weather         string          `json:"weather"` // "sunny", "rainy", ...
	DayOfYear       int             `json:"day_of_year"`
	DayOfWeek       string          `json:"day_of_week"`
	PlayerTile      Tile            `json:"player_tile"`
	Facing          Direction       `json:"facing"`
	Energy          int             `json:"energy"`
	MaxEnergy       int             `json:"max_energy"`
	Health          int             `json:"health"`
	Money           int             `json:"money"`
	Inventory       []InventoryItem `json:"inventory"`
	SelectedSlot    int             `json:"selected_slot"`
	Location        string          `json:"location"`
	WaterLevel      int             `json:"water_level"`      // watering can charge
	WaterCapacity   int             `json:"water_capacity"`
	MenuOpen        bool            `json:"menu_open"`
	DialogueOpen    bool            `json:"dialogue_open"`
}

// InventoryBySlot returns the item in a given slot, if any.
func (w WorldSnapshot) InventoryBySlot(slot int) (InventoryItem, bool) {
	for _, it := range w.Inventory {
		if it.Slot == slot {
			return it, true
		}
	}
	return InventoryItem{}, false
}

// CountItem sums the stack size of all slots matching name (case-sensitive exact match).
func (w WorldSnapshot) CountItem(name string) int {
	total := 0
	for _, it := range w.Inventory {
		if it.Name == name {
			total += it.Stack
		}
	}
	return total
}

// FindSlotByCategoryFuzzy returns the slot index whose item's display name
// or category contains the given substring (case-insensitive), preferring the larger
// stack and breaking ties on lowest slot index.
func (w WorldSnapshot) FindSlotByCategoryFuzzy(substr string) (int, bool) {
	lower := strings.ToLower(substr)
	best := -1
	bestStack := -1
	for _, it := range w.Inventory {
		if !strings.Contains(strings.ToLower(it.Name), lower) && !strings.Contains(strings.ToLower(it.Category), lower) {
			continue
		}
		if it.Stack > bestStack || (it.Stack == bestStack && (best == -1 || it.Slot < best)) {
			best = it.Slot
			bestStack = it.Stack
		}
	}
	return best, best != -1
}

// TileKind describes what sits on a ground tile.
type TileKind string

const (
	TileClear   TileKind = "clear"
	TileTilled  TileKind = "tilled"
	TilePlanted TileKind = "planted"
	TileWatered TileKind = "watered"
	TileDebris  TileKind = "debris"
)

// AdjacentTile describes one cardinal neighbor of the player.
type AdjacentTile struct {
	Direction      Direction `json:"direction"`
	Passable       bool      `json:"passable"`
	Kind           TileKind  `json:"kind"`
	BlockerName    string    `json:"blocker_name,omitempty"`
	WaterDirection Direction `json:"water_direction,omitempty"`
	WaterDistance  int       `json:"water_distance,omitempty"`
}

// Surroundings holds the four cardinal tiles adjacent to the player.
type Surroundings struct {
	Tiles [4]AdjacentTile `json:"tiles"`
}

// Tile looks up one cardinal direction.
func (s Surroundings) Tile(d Direction) (AdjacentTile, bool) {
	for _, t := range s.Tiles {
		if t.Direction == d {
			return t, true
		}
	}
	return AdjacentTile{}, false
}

// NearestWater derives the single nearest water tile from the
// per-direction WaterDirection/WaterDistance hints the bridge attaches
// to each adjacent tile, for the Target Generator's "Refill: nearest
// water tile" rule (§4.4). Reports false if no entry carries a hint.
func (s Surroundings) NearestWater(player Tile) (Tile, bool) {
	best := player
	bestDist := -1
	for _, t := range s.Tiles {
		if t.WaterDistance <= 0 || t.WaterDirection == "" {
			continue
		}
		if bestDist == -1 || t.WaterDistance < bestDist {
			bestDist = t.WaterDistance
			best = player.Step(t.WaterDirection, t.WaterDistance)
		}
	}
	return best, bestDist != -1
}

// Step walks n tiles from t in direction d.
func (t Tile) Step(d Direction, n int) Tile {
	for i := 0; i < n; i++ {
		t = t.Adjacent(d)
	}
	return t
}

// Crop is one planted crop in the farm.
type Crop struct {
	Position    Tile   `json:"position"`
	Species     string `json:"species"`
	Phase       int    `json:"phase"`
	FinalPhase  int    `json:"final_phase"`
	Watered     bool   `json:"watered"`
}

// ReadyToHarvest reports whether the crop has reached its final growth phase.
func (c Crop) ReadyToHarvest() bool {
	return c.Phase >= c.FinalPhase
}

// WorldObject is a placed object or resource clump (tree, stone, twig, chest...).
type WorldObject struct {
	Position Tile   `json:"position"`
	Kind     string `json:"kind"`     // "Tree", "Stone", "Twig", "Weeds", "Chest", ...
	Clumped  bool   `json:"clumped"`  // resource clump vs. single object
}

// Chest is a storage container on the farm.
type Chest struct {
	Position Tile            `json:"position"`
	Items    []InventoryItem `json:"items"`
}

// FarmSnapshot describes the world beyond the player's adjacent radius.
type FarmSnapshot struct {
	TilledTiles []Tile        `json:"tilled_tiles"`
	Crops       []Crop        `json:"crops"`
	Objects     []WorldObject `json:"objects"`
	Chests      []Chest       `json:"chests"`
}

// TilledEmptyTiles returns tilled tiles with no crop planted on them.
func (f FarmSnapshot) TilledEmptyTiles() []Tile {
	planted := make(map[Tile]bool, len(f.Crops))
	for _, c := range f.Crops {
		planted[c.Position] = true
	}
	var out []Tile
	for _, t := range f.TilledTiles {
		if !planted[t] {
			out = append(out, t)
		}
	}
	return out
}

// CropAt returns the crop at a tile, if any.
func (f FarmSnapshot) CropAt(t Tile) (Crop, bool) {
	for _, c := range f.Crops {
		if c.Position == t {
			return c, true
		}
	}
	return Crop{}, false
}

// ObjectAt returns the object at a tile, if any.
func (f FarmSnapshot) ObjectAt(t Tile) (WorldObject, bool) {
	for _, o := range f.Objects {
		if o.Position == t {
			return o, true
		}
	}
	return WorldObject{}, false
}
