package trace

import (
	"encoding/json"
	"fmt"
	"io"
)

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures placements, rejections and cancellations.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelTicks additionally captures one record per evaluation tick.
	TraceLevelTicks TraceLevel = "ticks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	TraceLevelTicks:     true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether any recording happens at this level.
func (l TraceLevel) Enabled() bool {
	return l != "" && l != TraceLevelNone
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a run.
type SimulationTrace struct {
	Config        TraceConfig          `json:"-"`
	Placements    []PlacementRecord    `json:"placements"`
	Rejections    []RejectionRecord    `json:"rejections"`
	Cancellations []CancellationRecord `json:"cancellations"`
	Ticks         []TickRecord         `json:"ticks,omitempty"`
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:        config,
		Placements:    make([]PlacementRecord, 0),
		Rejections:    make([]RejectionRecord, 0),
		Cancellations: make([]CancellationRecord, 0),
	}
}

// RecordPlacement appends a placement record.
func (st *SimulationTrace) RecordPlacement(record PlacementRecord) {
	st.Placements = append(st.Placements, record)
}

// RecordRejection appends a rejection record.
func (st *SimulationTrace) RecordRejection(record RejectionRecord) {
	st.Rejections = append(st.Rejections, record)
}

// RecordCancellation appends a cancellation record.
func (st *SimulationTrace) RecordCancellation(record CancellationRecord) {
	st.Cancellations = append(st.Cancellations, record)
}

// RecordTick appends a tick record. Ignored below TraceLevelTicks.
func (st *SimulationTrace) RecordTick(record TickRecord) {
	if st.Config.Level != TraceLevelTicks {
		return
	}
	st.Ticks = append(st.Ticks, record)
}

// WriteJSON encodes the trace as indented JSON.
func (st *SimulationTrace) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return nil
}
