// Package dispatch turns placements into per-server deployment instructions.
package dispatch

import (
	"sync"
	"time"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/google/uuid"
)

// Instruction tells one edge server to host one request's service.
type Instruction struct {
	ID            string          `json:"id"`
	ServerID      int             `json:"server_id"`
	RequestID     int             `json:"request_id"`
	Kind          sim.ServiceKind `json:"kind"`
	ResourceUsage float64         `json:"resource_usage"`
	PlacedAt      float64         `json:"placed_at"` // Engine clock at placement
	IssuedAt      time.Time       `json:"issued_at"`
}

// subscriberBuffer is the channel capacity of each subscription.
const subscriberBuffer = 8

// Manager keeps per-server pending instructions and subscribers that stream them.
// It implements sim.Dispatcher and is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	pending map[int][]Instruction                 // server ID → undrained instructions
	subs    map[int]map[chan Instruction]struct{} // server ID → subscribers
	now     func() time.Time
	issued  int
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		pending: make(map[int][]Instruction),
		subs:    make(map[int]map[chan Instruction]struct{}),
		now:     time.Now,
	}
}

// Dispatch implements sim.Dispatcher: it queues an instruction for the placement's
// server and notifies subscribers without blocking.
func (m *Manager) Dispatch(p sim.ServicePlacement) {
	inst := Instruction{
		ID:            uuid.NewString(),
		ServerID:      p.ServerID,
		RequestID:     p.RequestID,
		Kind:          p.Kind,
		ResourceUsage: p.ResourceUsage,
		PlacedAt:      p.PlacedAt,
		IssuedAt:      m.now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	m.pending[p.ServerID] = append(m.pending[p.ServerID], inst)
	for ch := range m.subs[p.ServerID] {
		select {
		case ch <- inst:
		default:
			// slow subscriber; the pending queue still holds the instruction
		}
	}
}

// DrainPending returns and clears all pending instructions for a server.
func (m *Manager) DrainPending(serverID int) []Instruction {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.pending[serverID]
	if len(s) == 0 {
		return nil
	}
	out := make([]Instruction, len(s))
	copy(out, s)
	delete(m.pending, serverID)
	return out
}

// PendingCount returns the number of undrained instructions for a server.
func (m *Manager) PendingCount(serverID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending[serverID])
}

// Issued returns the total number of instructions created.
func (m *Manager) Issued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued
}

// Subscribe creates a channel subscription for a server's instructions.
// Caller must call the returned cancel function, which closes the channel.
func (m *Manager) Subscribe(serverID int) (<-chan Instruction, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Instruction, subscriberBuffer)
	if m.subs[serverID] == nil {
		m.subs[serverID] = make(map[chan Instruction]struct{})
	}
	m.subs[serverID][ch] = struct{}{}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if subs := m.subs[serverID]; subs != nil {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(m.subs, serverID)
				}
			}
		})
	}
}
