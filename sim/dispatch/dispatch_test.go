package dispatch

import (
	"testing"
	"time"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placement(requestID, serverID int) sim.ServicePlacement {
	return sim.ServicePlacement{RequestID: requestID, ServerID: serverID, Kind: sim.Navigation, PlacedAt: 1, ResourceUsage: 0.5}
}

func TestDispatchSubscribeAndNotify(t *testing.T) {
	m := NewManager()
	ch, cancel := m.Subscribe(3)
	defer cancel()

	// Dispatch a placement for the subscribed server
	m.Dispatch(placement(11, 3))

	select {
	case got := <-ch:
		assert.Equal(t, 11, got.RequestID)
		assert.Equal(t, 3, got.ServerID)
		_, err := uuid.Parse(got.ID)
		assert.NoError(t, err, "instruction id must be a uuid")
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for instruction notification")
	}

	// Pending queue is independent of subscriptions
	drained := m.DrainPending(3)
	require.Len(t, drained, 1)
	assert.Equal(t, 11, drained[0].RequestID)
	assert.Nil(t, m.DrainPending(3), "second drain must be empty")
}

func TestDispatch_QueuesPerServer(t *testing.T) {
	m := NewManager()
	m.Dispatch(placement(1, 0))
	m.Dispatch(placement(2, 1))
	m.Dispatch(placement(3, 0))

	assert.Equal(t, 2, m.PendingCount(0))
	assert.Equal(t, 1, m.PendingCount(1))
	assert.Equal(t, 3, m.Issued())

	drained := m.DrainPending(0)
	require.Len(t, drained, 2)
	assert.Equal(t, 1, drained[0].RequestID)
	assert.Equal(t, 3, drained[1].RequestID)
	assert.NotEqual(t, drained[0].ID, drained[1].ID)
}

func TestDispatch_SlowSubscriber_DoesNotBlock(t *testing.T) {
	// GIVEN a subscriber that never reads
	m := NewManager()
	_, cancel := m.Subscribe(0)
	defer cancel()

	// WHEN more instructions than the buffer holds are dispatched
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			m.Dispatch(placement(i, 0))
		}
		close(done)
	}()

	// THEN dispatch completes and the pending queue holds everything
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a slow subscriber")
	}
	assert.Equal(t, subscriberBuffer*4, m.PendingCount(0))
}

func TestSubscribe_CancelClosesChannelOnce(t *testing.T) {
	m := NewManager()
	ch, cancel := m.Subscribe(5)
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestManager_ImplementsDispatcher(t *testing.T) {
	var _ sim.Dispatcher = NewManager()
}
