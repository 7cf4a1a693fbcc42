// Defines the ServiceRequest value that models a single compute service request
// issued by a vehicle. Requests are immutable once ingested.

package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ServiceKind enumerates the services a vehicle can request.
type ServiceKind int

const (
	TrafficInfo    ServiceKind = 1
	EmergencyAlert ServiceKind = 2
	Infotainment   ServiceKind = 3
	Navigation     ServiceKind = 4
)

// serviceKindNames maps kinds to their config/wire names. Unexported to prevent mutation.
var serviceKindNames = map[ServiceKind]string{
	TrafficInfo:    "traffic-info",
	EmergencyAlert: "emergency-alert",
	Infotainment:   "infotainment",
	Navigation:     "navigation",
}

// AllServiceKinds lists every kind in enumeration order.
func AllServiceKinds() []ServiceKind {
	return []ServiceKind{TrafficInfo, EmergencyAlert, Infotainment, Navigation}
}

func (k ServiceKind) String() string {
	if name, ok := serviceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("service-kind(%d)", int(k))
}

// Valid reports whether k is one of the enumerated kinds.
func (k ServiceKind) Valid() bool {
	_, ok := serviceKindNames[k]
	return ok
}

// ParseServiceKind resolves a config name such as "traffic-info" to its kind.
func ParseServiceKind(name string) (ServiceKind, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for kind, n := range serviceKindNames {
		if n == want {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown service kind %q; valid: %s",
		ErrInvalidConfig, name, strings.Join(ValidServiceKindNames(), ", "))
}

// ValidServiceKindNames returns sorted service kind names.
func ValidServiceKindNames() []string {
	names := make([]string, 0, len(serviceKindNames))
	for _, n := range serviceKindNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalText implements encoding.TextMarshaler so kinds travel as names in JSON and YAML.
func (k ServiceKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid service kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ServiceKind) UnmarshalText(text []byte) error {
	parsed, err := ParseServiceKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ServiceSet is a bit set of supported service kinds. It is a plain value,
// so copying an EdgeServer never aliases its supported-service set.
type ServiceSet uint8

// NewServiceSet builds a set from the given kinds.
func NewServiceSet(kinds ...ServiceKind) ServiceSet {
	var s ServiceSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// AllServices is the set containing every kind.
func AllServices() ServiceSet {
	return NewServiceSet(AllServiceKinds()...)
}

// With returns s plus k.
func (s ServiceSet) With(k ServiceKind) ServiceSet {
	if !k.Valid() {
		return s
	}
	return s | 1<<uint(k)
}

// Contains reports whether k is in s.
func (s ServiceSet) Contains(k ServiceKind) bool {
	return k.Valid() && s&(1<<uint(k)) != 0
}

// Kinds lists the members of s in enumeration order.
func (s ServiceSet) Kinds() []ServiceKind {
	var kinds []ServiceKind
	for _, k := range AllServiceKinds() {
		if s.Contains(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// MarshalJSON encodes the set as a list of kind names.
func (s ServiceSet) MarshalJSON() ([]byte, error) {
	kinds := s.Kinds()
	if kinds == nil {
		kinds = []ServiceKind{}
	}
	return json.Marshal(kinds)
}

// UnmarshalJSON decodes a list of kind names.
func (s *ServiceSet) UnmarshalJSON(data []byte) error {
	var kinds []ServiceKind
	if err := json.Unmarshal(data, &kinds); err != nil {
		return err
	}
	*s = NewServiceSet(kinds...)
	return nil
}

// Priority bounds. Lower numbers are more urgent.
const (
	HighestPriority = 1
	LowestPriority  = 5
)

// ServiceRequest models one vehicle's request for a service.
// Times are simulation time units (seconds).
type ServiceRequest struct {
	ID        int         `json:"id" yaml:"id"`               // Requester (vehicle) identifier
	Kind      ServiceKind `json:"kind" yaml:"kind"`           // Requested service
	Latitude  float64     `json:"latitude" yaml:"latitude"`   // Origin, degrees
	Longitude float64     `json:"longitude" yaml:"longitude"` // Origin, degrees
	CreatedAt float64     `json:"created_at" yaml:"created_at"`
	Priority  int         `json:"priority" yaml:"priority"` // 1 (most urgent) .. 5 (least urgent)
	Deadline  float64     `json:"deadline" yaml:"deadline"` // Only consulted when deadline dropping is enabled
	PayloadMB float64     `json:"payload_mb" yaml:"payload_mb"`
}

// Validate checks the fields an ingestion collaborator must populate.
func (r ServiceRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("request %d: invalid service kind %d", r.ID, int(r.Kind))
	}
	if r.Priority < HighestPriority || r.Priority > LowestPriority {
		return fmt.Errorf("request %d: priority must be in [%d, %d], got %d",
			r.ID, HighestPriority, LowestPriority, r.Priority)
	}
	if r.PayloadMB < 0 || math.IsNaN(r.PayloadMB) || math.IsInf(r.PayloadMB, 0) {
		return fmt.Errorf("request %d: payload must be a finite non-negative number, got %v", r.ID, r.PayloadMB)
	}
	if math.IsNaN(r.Latitude) || math.IsNaN(r.Longitude) {
		return fmt.Errorf("request %d: origin coordinates must be numbers", r.ID)
	}
	return nil
}

// This method returns a human-readable string representation of a ServiceRequest.
func (r ServiceRequest) String() string {
	return fmt.Sprintf("ServiceRequest: (ID: %d, Kind: %s, Priority: %d, PayloadMB: %.2f, CreatedAt: %.3f)",
		r.ID, r.Kind, r.Priority, r.PayloadMB, r.CreatedAt)
}
