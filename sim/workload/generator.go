// Package workload generates seeded synthetic vehicle request streams.
package workload

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/edge-sim/edge-sim/sim"
)

// Cancellation withdraws every request of RequestID at time At.
type Cancellation struct {
	At        float64
	RequestID int
}

// Workload is a generated request stream plus its cancellations.
type Workload struct {
	Requests      []sim.ServiceRequest // Sorted by CreatedAt
	Cancellations []Cancellation       // Sorted by At
}

// vehicle is a requester with a fixed home position.
type vehicle struct {
	id       int
	position sim.Point
}

// Generate creates a workload from cfg. Deterministic given the same config and seed.
// Request IDs identify the issuing vehicle, so one ID may appear several times.
func Generate(cfg sim.WorkloadConfig) (*Workload, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload config: %w", err)
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(*cfg.Seed))
	workloadRNG := rng.ForSubsystem(sim.SubsystemWorkload)

	mix, err := newServiceMix(cfg.ServiceMix)
	if err != nil {
		return nil, err
	}
	payloads, err := NewPayloadSampler(cfg.PayloadDist, *cfg.PayloadMB)
	if err != nil {
		return nil, err
	}
	vehicles := placeVehicles(cfg, workloadRNG)
	arrivals := NewArrivalSampler(cfg.Arrival, cfg.Rate)

	w := &Workload{}
	currentTime := 0.0
	for {
		currentTime += arrivals.SampleIAT(workloadRNG)
		if currentTime >= cfg.Horizon {
			break
		}
		if cfg.MaxRequests > 0 && len(w.Requests) >= cfg.MaxRequests {
			break
		}
		v := vehicles[workloadRNG.Intn(len(vehicles))]
		req := sim.ServiceRequest{
			ID:        v.id,
			Kind:      mix.sample(workloadRNG),
			Latitude:  v.position.Latitude,
			Longitude: v.position.Longitude,
			CreatedAt: currentTime,
			Priority:  sim.HighestPriority + workloadRNG.Intn(sim.LowestPriority-sim.HighestPriority+1),
			Deadline:  currentTime + uniform(workloadRNG, *cfg.DeadlineSeconds),
			PayloadMB: payloads.Sample(workloadRNG),
		}
		w.Requests = append(w.Requests, req)
	}

	if cfg.CancelProbability > 0 {
		cancelRNG := rng.ForSubsystem(sim.SubsystemCancellation)
		for _, req := range w.Requests {
			if cancelRNG.Float64() < cfg.CancelProbability {
				w.Cancellations = append(w.Cancellations, Cancellation{
					At:        req.CreatedAt + cfg.CancelAfterSeconds,
					RequestID: req.ID,
				})
			}
		}
		sort.SliceStable(w.Cancellations, func(i, j int) bool {
			return w.Cancellations[i].At < w.Cancellations[j].At
		})
	}
	return w, nil
}

// placeVehicles scatters vehicles uniformly within ±spread degrees of the center.
func placeVehicles(cfg sim.WorkloadConfig, rng *rand.Rand) []vehicle {
	vehicles := make([]vehicle, cfg.Vehicles)
	for i := range vehicles {
		vehicles[i] = vehicle{
			id: i,
			position: sim.Point{
				Latitude:  cfg.Center.Latitude + (2*rng.Float64()-1)*cfg.SpreadDegrees,
				Longitude: cfg.Center.Longitude + (2*rng.Float64()-1)*cfg.SpreadDegrees,
			},
		}
	}
	return vehicles
}

func uniform(rng *rand.Rand, r sim.Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// serviceMix samples kinds by weight. Kinds are held in enumeration order so
// sampling is independent of map iteration order.
type serviceMix struct {
	kinds      []sim.ServiceKind
	cumulative []float64
}

func newServiceMix(weights map[string]float64) (serviceMix, error) {
	byKind := make(map[sim.ServiceKind]float64, len(weights))
	for name, w := range weights {
		kind, err := sim.ParseServiceKind(name)
		if err != nil {
			return serviceMix{}, err
		}
		byKind[kind] += w
	}
	var mix serviceMix
	total := 0.0
	for _, kind := range sim.AllServiceKinds() {
		w := byKind[kind]
		if w <= 0 {
			continue
		}
		total += w
		mix.kinds = append(mix.kinds, kind)
		mix.cumulative = append(mix.cumulative, total)
	}
	if len(mix.kinds) == 0 {
		return serviceMix{}, fmt.Errorf("%w: service_mix selects no service kind", sim.ErrInvalidConfig)
	}
	return mix, nil
}

func (m serviceMix) sample(rng *rand.Rand) sim.ServiceKind {
	x := rng.Float64() * m.cumulative[len(m.cumulative)-1]
	i := sort.SearchFloat64s(m.cumulative, x)
	if i >= len(m.kinds) {
		i = len(m.kinds) - 1
	}
	return m.kinds[i]
}
