package sim

import (
	"fmt"
	"sort"
)

const (
	// DefaultDecayFactor is applied to every active server's load once per tick.
	DefaultDecayFactor = 0.95
	// LoadEpsilon is the floor below which a decayed load snaps to zero.
	LoadEpsilon = 0.01
)

// Registry holds the canonical, mutable state of all edge servers.
// Servers are kept in ascending ID order so snapshots iterate deterministically.
//
// Thread-safety: NOT thread-safe. The engine is its only writer.
type Registry struct {
	servers []EdgeServer
	index   map[int]int // server ID → position in servers
}

// NewRegistry validates the descriptors and builds a registry.
// Zero or negative capacity and duplicate IDs are configuration errors.
func NewRegistry(servers []EdgeServer) (*Registry, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: registry needs at least one edge server", ErrInvalidConfig)
	}
	sorted := make([]EdgeServer, len(servers))
	copy(sorted, servers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	index := make(map[int]int, len(sorted))
	for i, s := range sorted {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate server id %d", ErrInvalidConfig, s.ID)
		}
		index[s.ID] = i
	}
	return &Registry{servers: sorted, index: index}, nil
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	return len(r.servers)
}

// Get returns a copy of the server with the given ID.
func (r *Registry) Get(id int) (EdgeServer, bool) {
	i, ok := r.index[id]
	if !ok {
		return EdgeServer{}, false
	}
	return r.servers[i], true
}

// mustIndex resolves id or panics: callers only hold IDs drawn from a snapshot.
func (r *Registry) mustIndex(id int) int {
	i, ok := r.index[id]
	if !ok {
		panic(fmt.Sprintf("Registry: unknown server id %d", id))
	}
	return i
}

// ApplyLoad adds delta to the server's current load.
// Panics on unknown IDs and negative deltas (both are engine bugs).
func (r *Registry) ApplyLoad(id int, delta float64) {
	if delta < 0 {
		panic(fmt.Sprintf("Registry.ApplyLoad: negative delta %v for server %d", delta, id))
	}
	r.servers[r.mustIndex(id)].CurrentLoad += delta
}

// SetActive toggles a server's active flag. Servers are never removed.
func (r *Registry) SetActive(id int, active bool) error {
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("unknown server id %d", id)
	}
	r.servers[i].Active = active
	return nil
}

// DecayAll multiplies every active server's load by factor and snaps
// loads below LoadEpsilon to exactly zero.
func (r *Registry) DecayAll(factor float64) {
	if factor < 0 || factor > 1 {
		panic(fmt.Sprintf("Registry.DecayAll: factor %v outside [0, 1]", factor))
	}
	for i := range r.servers {
		s := &r.servers[i]
		if !s.Active {
			continue
		}
		s.CurrentLoad *= factor
		if s.CurrentLoad < LoadEpsilon {
			s.CurrentLoad = 0
		}
	}
}

// Snapshot returns a read-only view over the servers in ascending ID order.
// The view shares storage with the registry and is invalidated by the next mutation.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{servers: r.servers}
}

// UtilizationSample is one server's utilization at a point in time.
type UtilizationSample struct {
	ServerID    int     `json:"server_id"`
	Utilization float64 `json:"utilization"`
	Active      bool    `json:"active"`
}

// Utilizations samples every server in ID order.
func (r *Registry) Utilizations() []UtilizationSample {
	samples := make([]UtilizationSample, len(r.servers))
	for i, s := range r.servers {
		samples[i] = UtilizationSample{ServerID: s.ID, Utilization: s.Utilization(), Active: s.Active}
	}
	return samples
}

// AverageUtilization returns the mean utilization across all servers.
func (r *Registry) AverageUtilization() float64 {
	if len(r.servers) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range r.servers {
		total += s.Utilization()
	}
	return total / float64(len(r.servers))
}

// Servers returns a copy of every server in ID order.
func (r *Registry) Servers() []EdgeServer {
	out := make([]EdgeServer, len(r.servers))
	copy(out, r.servers)
	return out
}

// Snapshot is the read-only registry surface handed to strategies.
// At returns value copies, so strategies cannot mutate registry state.
type Snapshot struct {
	servers []EdgeServer
}

// NewSnapshot wraps servers (assumed sorted by ID) in a view. Intended for tests
// and for hosts that maintain their own server tables.
func NewSnapshot(servers []EdgeServer) Snapshot {
	return Snapshot{servers: servers}
}

// Len returns the number of servers in the view.
func (s Snapshot) Len() int {
	return len(s.servers)
}

// At returns a copy of the i-th server in ascending ID order.
func (s Snapshot) At(i int) EdgeServer {
	return s.servers[i]
}
