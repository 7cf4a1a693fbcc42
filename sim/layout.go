package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Layout kinds for generated server descriptors.
const (
	LayoutRoadGrid = "road-grid"
	LayoutRandom   = "random"
)

var validLayouts = map[string]bool{LayoutRoadGrid: true, LayoutRandom: true}

// ValidLayoutNames returns sorted layout kinds.
func ValidLayoutNames() []string {
	names := make([]string, 0, len(validLayouts))
	for n := range validLayouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// metersPerDegreeLat is the length of one degree of latitude on the model sphere.
var metersPerDegreeLat = EarthRadiusMeters * math.Pi / 180

// Point is a geographic position in degrees.
type Point struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// Offset returns the point dx meters east and dy meters north of p.
func (p Point) Offset(dx, dy float64) Point {
	lat := p.Latitude + dy/metersPerDegreeLat
	lon := p.Longitude + dx/(metersPerDegreeLat*math.Cos(p.Latitude*math.Pi/180))
	return Point{Latitude: lat, Longitude: lon}
}

// RoadGridPosition returns the planar position (meters) of server i out of n
// along a road network:
//
//	n <= 3: a line at x = 20 + 30i, y = 50
//	n <= 5: a 3-wide grid at x = 10 + 40(i mod 3), y = 25 + 50(i div 3)
//	n >  5: a 4-wide grid at x = 12.5 + 25(i mod 4), y = 25 + 50(i div 4)
func RoadGridPosition(i, n int) (x, y float64) {
	switch {
	case n <= 3:
		return 20 + 30*float64(i), 50
	case n <= 5:
		return 10 + 40*float64(i%3), 25 + 50*float64(i/3)
	default:
		return 12.5 + 25*float64(i%4), 25 + 50*float64(i/4)
	}
}

// RoadGridLayout builds n identical active servers supporting every service,
// positioned on the road grid around origin. IDs are 0..n-1.
func RoadGridLayout(n int, capacity, storage float64, origin Point) []EdgeServer {
	servers := make([]EdgeServer, n)
	for i := 0; i < n; i++ {
		x, y := RoadGridPosition(i, n)
		pos := origin.Offset(x, y)
		servers[i] = EdgeServer{
			ID:              i,
			Latitude:        pos.Latitude,
			Longitude:       pos.Longitude,
			ComputeCapacity: capacity,
			StorageCapacity: storage,
			Active:          true,
			Services:        AllServices(),
		}
	}
	return servers
}

// RandomLayout builds n active servers scattered over the bay-area box
// lat [37, 38], lon [-122.5, -121.5], with capacity U(50, 200) and storage U(100, 1000).
func RandomLayout(n int, rng *rand.Rand) []EdgeServer {
	servers := make([]EdgeServer, n)
	for i := 0; i < n; i++ {
		servers[i] = EdgeServer{
			ID:              i,
			Latitude:        37.0 + rng.Float64(),
			Longitude:       -122.5 + rng.Float64(),
			ComputeCapacity: 50 + 150*rng.Float64(),
			StorageCapacity: 100 + 900*rng.Float64(),
			Active:          true,
			Services:        AllServices(),
		}
	}
	return servers
}

// LayoutConfig selects generated server descriptors.
type LayoutConfig struct {
	Kind            string   `yaml:"kind"`
	Count           int      `yaml:"count"`
	ComputeCapacity *float64 `yaml:"compute_capacity"`
	StorageCapacity *float64 `yaml:"storage_capacity"`
	Origin          *Point   `yaml:"origin"`
}

// Default layout parameters.
const (
	DefaultLayoutCount    = 5
	DefaultServerCapacity = 100.0
	DefaultServerStorage  = 1000.0
)

// DefaultOrigin anchors generated road grids.
var DefaultOrigin = Point{Latitude: 37.75, Longitude: -122.0}

// Validate checks the layout kind and sizes. An empty kind means road-grid.
func (c LayoutConfig) Validate() error {
	if c.Kind != "" && !validLayouts[c.Kind] {
		return fmt.Errorf("%w: unknown layout %q; valid: %s",
			ErrInvalidConfig, c.Kind, strings.Join(ValidLayoutNames(), ", "))
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: layout count must be non-negative, got %d", ErrInvalidConfig, c.Count)
	}
	if c.ComputeCapacity != nil && *c.ComputeCapacity <= 0 {
		return fmt.Errorf("%w: layout compute_capacity must be positive, got %v", ErrInvalidConfig, *c.ComputeCapacity)
	}
	if c.StorageCapacity != nil && *c.StorageCapacity < 0 {
		return fmt.Errorf("%w: layout storage_capacity must be non-negative, got %v", ErrInvalidConfig, *c.StorageCapacity)
	}
	return nil
}

// Build generates the servers described by c. rng is only consulted by the random layout.
func (c LayoutConfig) Build(rng *PartitionedRNG) []EdgeServer {
	n := c.Count
	if n == 0 {
		n = DefaultLayoutCount
	}
	if c.Kind == LayoutRandom {
		return RandomLayout(n, rng.ForSubsystem(SubsystemLayout))
	}
	capacity, storage, origin := DefaultServerCapacity, DefaultServerStorage, DefaultOrigin
	if c.ComputeCapacity != nil {
		capacity = *c.ComputeCapacity
	}
	if c.StorageCapacity != nil {
		storage = *c.StorageCapacity
	}
	if c.Origin != nil {
		origin = *c.Origin
	}
	return RoadGridLayout(n, capacity, storage, origin)
}
