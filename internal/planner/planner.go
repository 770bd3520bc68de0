// Package planner implements the Daily Planner (§4.2): it emits the
// raw prioritized task list at day transition, applying the standard
// routine in order and skipping any step whose condition is not met.
package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// Priority orders tasks within a day's queue.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Kind names a raw task's category.
type Kind string

const (
	KindWaterCrops   Kind = "water_crops"
	KindHarvestCrops Kind = "harvest_crops"
	KindShipItems    Kind = "ship_items"
	KindPlantSeeds   Kind = "plant_seeds"
	KindBuySeeds     Kind = "buy_seeds"
	KindClearDebris  Kind = "clear_debris"
	KindGoToBed      Kind = "go_to_bed"
)

// TaskRaw is one entry in the Daily Planner's output (§3).
type TaskRaw struct {
	ID             string   `json:"id"`
	Kind           Kind     `json:"kind"`
	Description    string   `json:"description"`
	EstimatedTicks int      `json:"estimated_ticks"`
	Priority       Priority `json:"priority"`
	SkillOverride  string   `json:"skill_override,omitempty"`
}

// Forecast is the bridge-supplied weather forecast, when available.
type Forecast struct {
	TomorrowRainy bool
}

// Config tunes the thresholds the standard routine checks against.
type Config struct {
	CheapestSeedPrice int
	BedTimeThreshold  string // "HH:MM", time-of-day at which go_to_bed is emitted
	LowEnergyThreshold int
	SeasonAllowsPlanting func(dayOfYear int) bool
}

// DefaultConfig returns thresholds matching a typical single farm day.
func DefaultConfig() Config {
	return Config{
		CheapestSeedPrice:    20,
		BedTimeThreshold:     "23:30",
		LowEnergyThreshold:   10,
		SeasonAllowsPlanting: func(int) bool { return true },
	}
}

// Planner builds the day's raw task list from world + farm state.
type Planner struct {
	cfg Config
}

// New builds a Planner.
func New(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// Completion records whether yesterday's task finished.
type Completion struct {
	TaskID    string
	Completed bool
	Priority  Priority
}

// Plan runs the standard routine (§4.2, steps 1-8) in order, skipping
// any step whose condition is not met, and returns the ordered raw
// task list for the new day.
func (p *Planner) Plan(w world.WorldSnapshot, farm world.FarmSnapshot, forecast Forecast, yesterday []Completion) []TaskRaw {
	var tasks []TaskRaw

	// 1. Carry over yesterday's uncompleted critical/high tasks.
	for _, c := range yesterday {
		if c.Completed {
			continue
		}
		if c.Priority == PriorityCritical || c.Priority == PriorityHigh {
			tasks = append(tasks, TaskRaw{
				ID:          newTaskID(),
				Kind:        KindWaterCrops, // carryover kind is re-derived by the resolver from context
				Description: "carryover: " + c.TaskID,
				Priority:    c.Priority,
			})
		}
	}

	anyUnwatered := false
	for _, crop := range farm.Crops {
		if !crop.Watered {
			anyUnwatered = true
			break
		}
	}
	// 2. Water crops — only when today's weather is not rainy.
	if w.Weather != "rainy" && anyUnwatered {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindWaterCrops, Description: "water all unwatered crops", Priority: PriorityHigh, EstimatedTicks: len(farm.Crops)})
	}

	// 3. Harvest ready crops.
	anyReady := false
	for _, crop := range farm.Crops {
		if crop.ReadyToHarvest() {
			anyReady = true
			break
		}
	}
	if anyReady {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindHarvestCrops, Description: "harvest ready crops", Priority: PriorityCritical})
	}

	// 4. Ship sellable items.
	anySellable := false
	for _, it := range w.Inventory {
		if it.Type == world.ItemCrop && it.SalePrice > 0 {
			anySellable = true
			break
		}
	}
	if anySellable {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindShipItems, Description: "ship sellable items", Priority: PriorityMedium})
	}

	// 5. Plant seeds.
	anySeeds := false
	for _, it := range w.Inventory {
		if it.Type == world.ItemSeed && it.Stack > 0 {
			anySeeds = true
			break
		}
	}
	anyTilledEmpty := len(farm.TilledEmptyTiles()) > 0
	if anySeeds && anyTilledEmpty {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindPlantSeeds, Description: "plant seeds on tilled tiles", Priority: PriorityMedium})
	}

	// 6. Buy seeds.
	seasonOK := p.cfg.SeasonAllowsPlanting == nil || p.cfg.SeasonAllowsPlanting(w.DayOfYear)
	seedStock := 0
	for _, it := range w.Inventory {
		if it.Type == world.ItemSeed {
			seedStock += it.Stack
		}
	}
	if seasonOK && w.Money >= p.cfg.CheapestSeedPrice && seedStock == 0 {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindBuySeeds, Description: "buy seeds", Priority: PriorityLow})
	}

	// 7. Clear debris: only if nothing higher-priority applies, or a
	// higher-priority task is blocked by clearable debris. The planner
	// cannot know "blocked by debris" without a resolve pass, so it
	// emits the task whenever no higher-priority task was queued OR any
	// debris exists that overlaps a plant/till target; the resolver is
	// free to drop it if it turns out unnecessary.
	anyDebris := false
	for _, o := range farm.Objects {
		if o.Kind == "Twig" || o.Kind == "Weeds" || o.Kind == "Grass" || o.Kind == "Stone" {
			anyDebris = true
			break
		}
	}
	if anyDebris && (len(tasks) == 0 || blocksHigherPriority(farm)) {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindClearDebris, Description: "clear debris", Priority: PriorityLow})
	}

	// 8. Go to bed.
	if pastBedtime(w.Time, p.cfg.BedTimeThreshold) || w.Energy < p.cfg.LowEnergyThreshold {
		tasks = append(tasks, TaskRaw{ID: newTaskID(), Kind: KindGoToBed, Description: "go to bed", Priority: PriorityCritical})
	}

	return tasks
}

func blocksHigherPriority(farm world.FarmSnapshot) bool {
	empty := make(map[world.Tile]bool)
	for _, t := range farm.TilledEmptyTiles() {
		empty[t] = true
	}
	for _, o := range farm.Objects {
		if empty[o.Position] {
			return true
		}
	}
	return false
}

func pastBedtime(t time.Time, threshold string) bool {
	parsed, err := time.Parse("15:04", threshold)
	if err != nil {
		return false
	}
	hhmm := t.Hour()*60 + t.Minute()
	thHHMM := parsed.Hour()*60 + parsed.Minute()
	return hhmm >= thHHMM
}

func newTaskID() string {
	return uuid.NewString()
}
