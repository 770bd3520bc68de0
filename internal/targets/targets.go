// Package targets converts a resolved task into a deterministic,
// sorted sequence of spatial targets (§4.4). Ordering is row-major
// (y ascending, then x ascending) so the player sweeps the play area
// row by row; the first target additionally tie-breaks toward the row
// nearest the player's current position.
package targets

import (
	"context"
	"sort"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// TaskKind names the task category the generator branches on.
type TaskKind string

const (
	KindWater    TaskKind = "water"
	KindHarvest  TaskKind = "harvest"
	KindTill     TaskKind = "till"
	KindClear    TaskKind = "clear"
	KindPlant    TaskKind = "plant"
	KindRefill   TaskKind = "refill"
	KindNavigate TaskKind = "navigate"
)

// Target is one (x, y, facing) triple a task will visit in order.
type Target struct {
	Tile   world.Tile
	Facing world.Direction
}

// Pather is the subset of the bridge client used for reachability
// filtering (called once per task, not every tick, per §4.4).
type Pather interface {
	CheckPath(ctx context.Context, from, to world.Tile) (bridge.PathResult, error)
}

// SkipReason records why a candidate target was dropped at generation time.
type SkipReason struct {
	Tile   world.Tile
	Reason string
}

// Generate produces the ordered, reachability-filtered target list for
// a task. destination is used only for KindNavigate/KindRefill (a
// single fixed target).
func Generate(ctx context.Context, kind TaskKind, player world.Tile, farm world.FarmSnapshot, destination world.Tile, pather Pather) ([]Target, []SkipReason) {
	var candidates []world.Tile

	switch kind {
	case KindWater:
		for _, c := range farm.Crops {
			if !c.Watered {
				candidates = append(candidates, c.Position)
			}
		}
	case KindHarvest:
		for _, c := range farm.Crops {
			if c.ReadyToHarvest() {
				candidates = append(candidates, c.Position)
			}
		}
	case KindTill:
		for _, o := range farm.Objects {
			if o.Kind == "tillable" {
				candidates = append(candidates, o.Position)
			}
		}
	case KindClear:
		for _, o := range farm.Objects {
			if isDebris(o.Kind) {
				candidates = append(candidates, o.Position)
			}
		}
	case KindPlant:
		candidates = farm.TilledEmptyTiles()
	case KindRefill, KindNavigate:
		candidates = []world.Tile{destination}
	}

	sortRowMajor(candidates, player)

	var out []Target
	var skipped []SkipReason
	for _, t := range candidates {
		if pather != nil {
			res, err := pather.CheckPath(ctx, player, t)
			if err != nil || !res.Reachable {
				skipped = append(skipped, SkipReason{Tile: t, Reason: "unreachable"})
				continue
			}
		}
		out = append(out, Target{Tile: t, Facing: facingToward(player, t)})
	}
	return out, skipped
}

func isDebris(kind string) bool {
	switch kind {
	case "Twig", "Weeds", "Grass", "Stone", "Tree":
		return true
	default:
		return false
	}
}

// sortRowMajor sorts tiles by (y asc, x asc), then rotates the slice so
// the row nearest the player's current y is visited first (tie-break
// for the first target per §4.4).
func sortRowMajor(tiles []world.Tile, player world.Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
	if len(tiles) == 0 {
		return
	}
	closest := 0
	bestDist := absInt(tiles[0].Y - player.Y)
	for i, t := range tiles {
		d := absInt(t.Y - player.Y)
		if d < bestDist {
			bestDist = d
			closest = i
		}
	}
	if closest == 0 {
		return
	}
	rotated := make([]world.Tile, 0, len(tiles))
	rotated = append(rotated, tiles[closest:]...)
	rotated = append(rotated, tiles[:closest]...)
	copy(tiles, rotated)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// facingToward picks the cardinal direction from standing tile toward
// target such that the actionable tile is adjacent, never underfoot.
// Targets are assumed to already be the actionable tile itself; the
// caller stands one step away and faces back toward it.
func facingToward(from, to world.Tile) world.Direction {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if absInt(dx) >= absInt(dy) {
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

// StandingTile returns the tile the player should occupy to act on
// target while facing facing (i.e. the tile adjacent to target in the
// opposite direction).
func StandingTile(target world.Tile, facing world.Direction) world.Tile {
	return target.Adjacent(facing.Opposite())
}
