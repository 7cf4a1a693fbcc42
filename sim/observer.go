package sim

// Observer receives placement lifecycle notifications from the engine.
// Calls are made synchronously on the engine's goroutine; implementations must not
// call back into the engine.
type Observer interface {
	RequestReceived(req ServiceRequest, now float64)
	RequestPlaced(p ServicePlacement, retry bool)
	// RequestRejected fires once per request, on its first failed placement.
	RequestRejected(req ServiceRequest, now float64)
	RequestCancelled(requestID, removed int, now float64)
	TickCompleted(report TickReport)
}

// Dispatcher delivers deployment instructions for new placements.
type Dispatcher interface {
	Dispatch(p ServicePlacement)
}

// BaseObserver implements Observer with no-ops. Embed it to handle a subset of events.
type BaseObserver struct{}

func (BaseObserver) RequestReceived(ServiceRequest, float64) {}
func (BaseObserver) RequestPlaced(ServicePlacement, bool) {}
func (BaseObserver) RequestRejected(ServiceRequest, float64) {}
func (BaseObserver) RequestCancelled(int, int, float64) {}
func (BaseObserver) TickCompleted(TickReport) {}

// MultiObserver fans every notification out to each member in order.
type MultiObserver []Observer

func (m MultiObserver) RequestReceived(req ServiceRequest, now float64) {
	for _, o := range m {
		o.RequestReceived(req, now)
	}
}

func (m MultiObserver) RequestPlaced(p ServicePlacement, retry bool) {
	for _, o := range m {
		o.RequestPlaced(p, retry)
	}
}

func (m MultiObserver) RequestRejected(req ServiceRequest, now float64) {
	for _, o := range m {
		o.RequestRejected(req, now)
	}
}

func (m MultiObserver) RequestCancelled(requestID, removed int, now float64) {
	for _, o := range m {
		o.RequestCancelled(requestID, removed, now)
	}
}

func (m MultiObserver) TickCompleted(report TickReport) {
	for _, o := range m {
		o.TickCompleted(report)
	}
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ServicePlacement) {}
