package sim

// server builds an active server supporting every kind at the given position.
func server(id int, lat, lon, capacity, load float64) EdgeServer {
	return EdgeServer{
		ID:              id,
		Latitude:        lat,
		Longitude:       lon,
		ComputeCapacity: capacity,
		StorageCapacity: 500,
		CurrentLoad:     load,
		Active:          true,
		Services:        AllServices(),
	}
}

// request builds a valid request originating at (lat, lon).
func request(id int, kind ServiceKind, lat, lon, payload float64) ServiceRequest {
	return ServiceRequest{
		ID:        id,
		Kind:      kind,
		Latitude:  lat,
		Longitude: lon,
		Priority:  3,
		PayloadMB: payload,
	}
}

func ptr[T any](v T) *T { return &v }

// recordingObserver keeps every notification for assertions.
type recordingObserver struct {
	BaseObserver
	received  []int
	placed    []ServicePlacement
	retried   []bool
	rejected  []int
	cancelled map[int]int
	ticks     []TickReport
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{cancelled: make(map[int]int)}
}

func (o *recordingObserver) RequestReceived(req ServiceRequest, _ float64) {
	o.received = append(o.received, req.ID)
}

func (o *recordingObserver) RequestPlaced(p ServicePlacement, retry bool) {
	o.placed = append(o.placed, p)
	o.retried = append(o.retried, retry)
}

func (o *recordingObserver) RequestRejected(req ServiceRequest, _ float64) {
	o.rejected = append(o.rejected, req.ID)
}

func (o *recordingObserver) RequestCancelled(requestID, removed int, _ float64) {
	o.cancelled[requestID] += removed
}

func (o *recordingObserver) TickCompleted(report TickReport) {
	o.ticks = append(o.ticks, report)
}

// recordingDispatcher collects dispatched placements.
type recordingDispatcher struct {
	sent []ServicePlacement
}

func (d *recordingDispatcher) Dispatch(p ServicePlacement) {
	d.sent = append(d.sent, p)
}
