package cluster

// EventType identifies a discrete event kind.
type EventType string

const (
	EventTypeRequestArrival EventType = "RequestArrival"
	EventTypeCancellation   EventType = "Cancellation"
	EventTypeEvaluationTick EventType = "EvaluationTick"
)

// EventTypePriority defines ordering for simultaneous events.
// Arrivals land before cancellations so a cancel at the arrival instant finds its
// request; the tick runs last and retries whatever is still pending.
var EventTypePriority = map[EventType]int{
	EventTypeRequestArrival: 1,
	EventTypeCancellation:   2,
	EventTypeEvaluationTick: 3,
}
