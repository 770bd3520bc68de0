// Package shopstatus provides a config-driven resolver.ShopStatus: shop
// hours and item-to-shop mappings are static game data, so it follows
// the same New()-from-config idiom as internal/config rather than
// deriving anything from a live bridge call.
package shopstatus

import (
	"strconv"
	"strings"

	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// Hours is one shop's open window plus the weekday it's closed.
type Hours struct {
	OpenHour  int    // inclusive, 24h
	CloseHour int    // exclusive, 24h
	ClosedDay string // e.g. "Wed"; empty if open every day
}

// Static answers resolver.ShopStatus and resolver.LocationTable from a
// fixed table of shop hours, item-to-location mappings, and
// location-to-tile coordinates, seeded with the standard farm-sim shop
// schedule (§4.3's "Pierre's shop" example) and map layout (§4.4's
// "destination coords from a location table").
type Static struct {
	hours     map[string]Hours
	itemShop  map[string]string
	locations map[string]world.Tile
}

// Default returns the standard shop table: the general store (seeds,
// day-to-day goods) open 9am-5pm, closed Wednesdays; the blacksmith
// open 9am-4pm every day; plus the fixed map coordinates the Target
// Generator needs for navigate_to_shop/navigate_to_farm destinations.
func Default() *Static {
	return &Static{
		hours: map[string]Hours{
			"SeedShop":   {OpenHour: 9, CloseHour: 17, ClosedDay: "Wed"},
			"Blacksmith": {OpenHour: 9, CloseHour: 16},
		},
		itemShop: map[string]string{
			"seeds":             "SeedShop",
			"parsnip seeds":     "SeedShop",
			"cauliflower seeds": "SeedShop",
			"potato seeds":      "SeedShop",
			"bean starter":      "SeedShop",
		},
		locations: map[string]world.Tile{
			"SeedShop":   {X: 28, Y: 13},
			"Blacksmith": {X: 99, Y: 21},
			"Farm":       {X: 64, Y: 15},
		},
	}
}

// New builds a Static table from explicit hours/item/location maps, for
// callers loading shop config from the agent's own TOML file.
func New(hours map[string]Hours, itemShop map[string]string, locations map[string]world.Tile) *Static {
	return &Static{hours: hours, itemShop: itemShop, locations: locations}
}

// TileFor implements resolver.LocationTable.
func (s *Static) TileFor(location string) (world.Tile, bool) {
	t, ok := s.locations[location]
	return t, ok
}

// IsOpen implements resolver.ShopStatus.
func (s *Static) IsOpen(location string, w world.WorldSnapshot) bool {
	h, ok := s.hours[location]
	if !ok {
		return false
	}
	if h.ClosedDay != "" && strings.EqualFold(w.DayOfWeek, h.ClosedDay) {
		return false
	}
	hour, err := strconv.Atoi(w.Time.Format("15"))
	if err != nil {
		return false
	}
	return hour >= h.OpenHour && hour < h.CloseHour
}

// LocationOf implements resolver.ShopStatus.
func (s *Static) LocationOf(item string) string {
	return s.itemShop[strings.ToLower(strings.TrimSpace(item))]
}
