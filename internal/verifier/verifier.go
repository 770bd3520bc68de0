// Package verifier is the pure query layer that decides whether a
// primitive sequence produced the world mutation a skill declared it
// would. It never fetches snapshots itself; callers must supply a
// snapshot taken at least bridge.CacheRefreshInterval after settle.
package verifier

import (
	"fmt"

	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// CriterionKind names one of the declarative success predicates in §4.7.
type CriterionKind string

const (
	Tilled         CriterionKind = "tilled"
	Planted        CriterionKind = "planted"
	Watered        CriterionKind = "watered"
	Harvested      CriterionKind = "harvested"
	Cleared        CriterionKind = "cleared"
	InventoryDelta CriterionKind = "inventory_delta"
	LocationEquals CriterionKind = "location_equals"
	AdjacentTo     CriterionKind = "adjacent_to"
)

// Criterion is one declared success criterion for a skill invocation.
type Criterion struct {
	Kind CriterionKind

	Tile world.Tile // tilled/planted/watered/harvested/cleared/adjacent_to

	Item  string // inventory_delta/harvested species
	Delta int    // inventory_delta: signed change required

	Location string // location_equals

	Facing world.Direction // adjacent_to
}

// Outcome is the verifier's verdict for one skill invocation.
type Outcome string

const (
	Verified      Outcome = "verified"
	PhantomFailed Outcome = "phantom_failed"
)

// Snapshots bundles the pre/post world + farm state the verifier reasons over.
type Snapshots struct {
	PreWorld  world.WorldSnapshot
	PreFarm   world.FarmSnapshot
	PostWorld world.WorldSnapshot
	PostFarm  world.FarmSnapshot
}

// Verify evaluates criterion against snaps. If the bridge
// reported failure the caller should not invoke Verify at all (that is
// a BridgeError, not a verifier concern); Verify only distinguishes
// verified from phantom_failed.
func Verify(snaps Snapshots, criterion Criterion) (Outcome, string) {
	if holds(snaps, criterion) {
		return Verified, ""
	}
	return PhantomFailed, fmt.Sprintf("criterion %s did not hold on post-snapshot", criterion.Kind)
}

func holds(s Snapshots, c Criterion) bool {
	switch c.Kind {
	case Tilled:
		if !containsTile(s.PostFarm.TilledTiles, c.Tile) {
			return false
		}
		if !containsTile(s.PreFarm.TilledTiles, c.Tile) {
			return true
		}
		_, preCrop := s.PreFarm.CropAt(c.Tile)
		_, postCrop := s.PostFarm.CropAt(c.Tile)
		return postCrop && !preCrop

	case Planted:
		_, preHas := s.PreFarm.CropAt(c.Tile)
		_, postHas := s.PostFarm.CropAt(c.Tile)
		return postHas && !preHas

	case Watered:
		post, postHas := s.PostFarm.CropAt(c.Tile)
		if !postHas || !post.Watered {
			return false
		}
		if pre, preHas := s.PreFarm.CropAt(c.Tile); preHas && pre.Watered {
			// Idempotence: already watered before, still watered after —
			// that is verified, not a no-op failure.
			return true
		}
		return true

	case Harvested:
		_, preHas := s.PreFarm.CropAt(c.Tile)
		_, postHas := s.PostFarm.CropAt(c.Tile)
		if !preHas || postHas {
			return false
		}
		return s.PostWorld.CountItem(c.Item) > s.PreWorld.CountItem(c.Item)

	case Cleared:
		_, preHas := s.PreFarm.ObjectAt(c.Tile)
		_, postHas := s.PostFarm.ObjectAt(c.Tile)
		return preHas && !postHas

	case InventoryDelta:
		got := s.PostWorld.CountItem(c.Item) - s.PreWorld.CountItem(c.Item)
		if c.Delta >= 0 {
			return got >= c.Delta
		}
		return got <= c.Delta

	case LocationEquals:
		return s.PostWorld.Location == c.Location

	case AdjacentTo:
		return s.PostWorld.PlayerTile.Adjacent(c.Facing) == c.Tile && s.PostWorld.Facing == c.Facing

	default:
		return false
	}
}

func containsTile(tiles []world.Tile, t world.Tile) bool {
	for _, x := range tiles {
		if x == t {
			return true
		}
	}
	return false
}
