package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, cleanupA := hub.Subscribe()
	b, cleanupB := hub.Subscribe()
	defer cleanupA()
	defer cleanupB()

	hub.Broadcast(Event{Type: EventChange, Change: Change{Table: TableEmployees, Action: ActionInsert, ID: "e1"}})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	evt := <-a
	assert.Equal(t, EventChange, evt.Type)
	assert.Equal(t, TableEmployees, evt.Change.Table)
	assert.Equal(t, "e1", evt.Change.ID)
}

func TestHubCleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	cleanup()
	assert.Equal(t, 0, hub.SubscriberCount())
	_, open := <-ch
	assert.False(t, open)

	// second cleanup is a no-op
	cleanup()
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	slow, cleanupSlow := hub.Subscribe()
	fast, cleanupFast := hub.Subscribe()
	defer cleanupSlow()
	defer cleanupFast()

	// Overflow the slow subscriber's buffer; Broadcast must keep
	// returning and the fast subscriber must keep receiving.
	for i := 0; i < 100; i++ {
		hub.Broadcast(Event{Type: EventChange})
		<-fast
	}
	assert.Equal(t, cap(slow), len(slow))
}
