// Package resolver implements the Prerequisite Resolver (§4.3): it
// rewrites the planner's raw task list into a resolved queue where
// every task's preconditions are either satisfied or preceded by
// enabling tasks (navigate, refill, buy, sell).
package resolver

import (
	"fmt"

	"github.com/sandahltim/StardewAI-sub000/internal/planner"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// ResolvedTask is one entry in the resolver's output queue (§3).
type ResolvedTask struct {
	ParentTaskID string      `json:"parent_task_id"`
	Kind         ResolvedKind `json:"kind"`
	Description  string      `json:"description"`
	Destination  *world.Tile `json:"destination,omitempty"`
	Position     int         `json:"position"` // strict ordinal position in the queue
	SkillOverride string     `json:"skill_override,omitempty"`
}

// ResolvedKind names a resolved step, including the enabling steps the
// resolver inlines ahead of the original task.
type ResolvedKind string

const (
	StepNavigateToWater ResolvedKind = "navigate_to_water"
	StepRefillCan       ResolvedKind = "refill_watering_can"
	StepWaterCrops      ResolvedKind = "water_crops"
	StepNavigateToShop  ResolvedKind = "navigate_to_shop"
	StepBuySeeds        ResolvedKind = "buy_seeds"
	StepNavigateToFarm  ResolvedKind = "navigate_to_farm"
	StepPlantSeeds      ResolvedKind = "plant_seeds"
	StepShipItems       ResolvedKind = "ship_items"
	StepHarvestCrops    ResolvedKind = "harvest_crops"
	StepClearDebris     ResolvedKind = "clear_debris"
	StepWarpTo          ResolvedKind = "warp_to"
	StepGoToBed         ResolvedKind = "go_to_bed"
)

// SkipRecord is surfaced to telemetry/memory when a chain cannot be resolved.
type SkipRecord struct {
	TaskID string
	Reason string
}

// ShopStatus answers location-open questions the resolver needs but
// cannot derive from WorldSnapshot alone (hour window, day-of-week).
type ShopStatus interface {
	IsOpen(location string, w world.WorldSnapshot) bool
	LocationOf(item string) string // e.g. seed shop location name
}

// ReservedItemsPolicy is the external collaborator deciding which
// inventory items smart-sell must not touch (bundles, gifts). The
// resolver treats the set as opaque (§4.3).
type ReservedItemsPolicy interface {
	IsReserved(itemName string) bool
}

// noopReserved reserves nothing; used when no policy is supplied so the
// binary runs standalone.
type noopReserved struct{}

func (noopReserved) IsReserved(string) bool { return false }

// NoopReservedItemsPolicy is the default policy: nothing is reserved.
var NoopReservedItemsPolicy ReservedItemsPolicy = noopReserved{}

// LocationTable maps a named location (shop, farm warp point) to its
// map tile, supplying the Target Generator's "Navigate-to-X: single
// target = destination coords from a location table" rule (§4.4).
type LocationTable interface {
	TileFor(location string) (world.Tile, bool)
}

// noopLocations resolves no location; used when no table is supplied.
type noopLocations struct{}

func (noopLocations) TileFor(string) (world.Tile, bool) { return world.Tile{}, false }

// NoopLocationTable is the default table: every location is unknown.
var NoopLocationTable LocationTable = noopLocations{}

// Resolver rewrites a raw task list into a resolved queue.
type Resolver struct {
	shop      ShopStatus
	reserved  ReservedItemsPolicy
	locations LocationTable
}

// New builds a Resolver. reserved and locations may be nil, in which
// case NoopReservedItemsPolicy / NoopLocationTable are used.
func New(shop ShopStatus, reserved ReservedItemsPolicy, locations LocationTable) *Resolver {
	if reserved == nil {
		reserved = NoopReservedItemsPolicy
	}
	if locations == nil {
		locations = NoopLocationTable
	}
	return &Resolver{shop: shop, reserved: reserved, locations: locations}
}

// Resolve evaluates each TaskRaw's preconditions in order and produces
// the resolved queue plus any chains that had to be dropped.
// surroundings supplies the player's adjacent-tile water hints used to
// locate the nearest water source for a refill chain.
func (r *Resolver) Resolve(raw []planner.TaskRaw, w world.WorldSnapshot, farm world.FarmSnapshot, surroundings world.Surroundings) ([]ResolvedTask, []SkipRecord) {
	var queue []ResolvedTask
	var skipped []SkipRecord

	for _, t := range raw {
		chain, skip := r.resolveOne(t, w, farm, surroundings)
		if skip != nil {
			skipped = append(skipped, *skip)
			continue
		}
		for _, step := range chain {
			step.ParentTaskID = t.ID
			step.Position = len(queue)
			queue = append(queue, step)
		}
	}
	return queue, skipped
}

func (r *Resolver) resolveOne(t planner.TaskRaw, w world.WorldSnapshot, farm world.FarmSnapshot, surroundings world.Surroundings) ([]ResolvedTask, *SkipRecord) {
	switch t.Kind {
	case planner.KindWaterCrops:
		return r.resolveWater(t, w, surroundings)
	case planner.KindPlantSeeds:
		return r.resolvePlant(t, w, farm)
	case planner.KindBuySeeds:
		return r.resolveBuy(t, w)
	case planner.KindShipItems:
		return []ResolvedTask{{Kind: StepShipItems, Description: t.Description, SkillOverride: t.SkillOverride}}, nil
	case planner.KindHarvestCrops:
		return []ResolvedTask{{Kind: StepHarvestCrops, Description: t.Description, SkillOverride: t.SkillOverride}}, nil
	case planner.KindClearDebris:
		return []ResolvedTask{{Kind: StepClearDebris, Description: t.Description, SkillOverride: t.SkillOverride}}, nil
	case planner.KindGoToBed:
		return []ResolvedTask{{Kind: StepGoToBed, Description: t.Description}}, nil
	default:
		return nil, &SkipRecord{TaskID: t.ID, Reason: "unknown task kind " + string(t.Kind)}
	}
}

func (r *Resolver) resolveWater(t planner.TaskRaw, w world.WorldSnapshot, surroundings world.Surroundings) ([]ResolvedTask, *SkipRecord) {
	hasCan := false
	for _, it := range w.Inventory {
		if it.Category == "watering can" {
			hasCan = true
			break
		}
	}
	if !hasCan {
		return nil, &SkipRecord{TaskID: t.ID, Reason: "no watering can in inventory"}
	}

	var chain []ResolvedTask
	if w.WaterLevel == 0 {
		dest, ok := surroundings.NearestWater(w.PlayerTile)
		if !ok {
			return nil, &SkipRecord{TaskID: t.ID, Reason: "no reachable water source"}
		}
		chain = append(chain,
			ResolvedTask{Kind: StepNavigateToWater, Description: "navigate to nearest water source", Destination: &dest},
			ResolvedTask{Kind: StepRefillCan, Description: "refill watering can"},
		)
	}
	chain = append(chain, ResolvedTask{Kind: StepWaterCrops, Description: t.Description, SkillOverride: t.SkillOverride})
	return chain, nil
}

func (r *Resolver) resolvePlant(t planner.TaskRaw, w world.WorldSnapshot, farm world.FarmSnapshot) ([]ResolvedTask, *SkipRecord) {
	if len(farm.TilledEmptyTiles()) == 0 {
		return nil, &SkipRecord{TaskID: t.ID, Reason: "no tilled-empty tiles"}
	}

	seedStock := 0
	for _, it := range w.Inventory {
		if it.Type == world.ItemSeed {
			seedStock += it.Stack
		}
	}

	var chain []ResolvedTask
	if seedStock == 0 {
		buyChain, skip := r.resolveBuy(t, w)
		if skip != nil {
			return nil, skip
		}
		chain = append(chain, buyChain...)
		navFarm := ResolvedTask{Kind: StepNavigateToFarm, Description: "navigate back to farm"}
		if tile, ok := r.locations.TileFor("Farm"); ok {
			navFarm.Destination = &tile
		}
		chain = append(chain, navFarm)
	}
	chain = append(chain, ResolvedTask{Kind: StepPlantSeeds, Description: t.Description, SkillOverride: t.SkillOverride})
	return chain, nil
}

func (r *Resolver) resolveBuy(t planner.TaskRaw, w world.WorldSnapshot) ([]ResolvedTask, *SkipRecord) {
	if r.shop == nil {
		return nil, &SkipRecord{TaskID: t.ID, Reason: "no shop status collaborator configured"}
	}

	shopLoc := r.shop.LocationOf("seeds")
	if !r.shop.IsOpen(shopLoc, w) {
		return nil, &SkipRecord{TaskID: t.ID, Reason: "shop closed: " + shopLoc}
	}

	navShop := ResolvedTask{Kind: StepNavigateToShop, Description: "navigate to " + shopLoc}
	if tile, ok := r.locations.TileFor(shopLoc); ok {
		navShop.Destination = &tile
	}

	needed := 20 // baseline unit cost used when exact price is unknown at resolve time
	if w.Money < needed {
		sellChain, ok := r.smartSell(w, needed-w.Money)
		if !ok {
			return nil, &SkipRecord{TaskID: t.ID, Reason: "insufficient money and no sellable non-reserved items"}
		}
		chain := append([]ResolvedTask{}, sellChain...)
		chain = append(chain, navShop, ResolvedTask{Kind: StepBuySeeds, Description: t.Description})
		return chain, nil
	}

	return []ResolvedTask{navShop, {Kind: StepBuySeeds, Description: t.Description}}, nil
}

// smartSell prepends a ship task using only non-reserved items, should
// the resolver need money to satisfy a downstream buy prereq.
func (r *Resolver) smartSell(w world.WorldSnapshot, shortfall int) ([]ResolvedTask, bool) {
	raised := 0
	for _, it := range w.Inventory {
		if r.reserved.IsReserved(it.Name) {
			continue
		}
		if it.Type != world.ItemCrop || it.SalePrice <= 0 {
			continue
		}
		raised += it.SalePrice * it.Stack
		if raised >= shortfall {
			return []ResolvedTask{{Kind: StepShipItems, Description: fmt.Sprintf("sell %s to cover shortfall", it.Name)}}, true
		}
	}
	return nil, false
}
