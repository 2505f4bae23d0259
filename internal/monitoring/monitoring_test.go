package monitoring

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"req-a", "req-b", "req-c"} {
		require.NoError(t, store.RecordRequest(&UsageEvent{
			RequestID:      id,
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
			UserID:         "student-1",
			ToolType:       "topic_brainstorm",
			Model:          "claude-sonnet-4-5",
			StatusCode:     200,
			InputTokensEst: 42,
			QuotaRemaining: 49 - i,
			Success:        true,
			DurationMs:     1200,
		}))
	}

	events, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "req-c", events[0].RequestID, "newest first")
	assert.Equal(t, "req-b", events[1].RequestID)
	assert.Equal(t, "student-1", events[0].UserID)
	assert.Equal(t, 47, events[0].QuotaRemaining)
	assert.True(t, events[0].Success)
}

func TestStore_CountToday(t *testing.T) {
	store := newTestStore(t)

	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	require.NoError(t, store.RecordRequest(&UsageEvent{RequestID: "old", Timestamp: yesterday, UserID: "u1", ToolType: "t", StatusCode: 200, Success: true}))
	require.NoError(t, store.RecordRequest(&UsageEvent{RequestID: "new-1", Timestamp: now, UserID: "u1", ToolType: "t", StatusCode: 200, Success: true}))
	require.NoError(t, store.RecordRequest(&UsageEvent{RequestID: "other", Timestamp: now, UserID: "u2", ToolType: "t", StatusCode: 200, Success: true}))

	n, err := store.CountToday("u1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_FailureEventRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordRequest(&UsageEvent{
		RequestID:  "req-err",
		Timestamp:  time.Now().UTC(),
		UserID:     "student-9",
		ToolType:   "essay_outliner",
		StatusCode: 200,
		Success:    false,
		Error:      "upstream error: Overloaded",
	}))

	events, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Equal(t, "upstream error: Overloaded", events[0].Error)
}

func TestFeed_PublishSubscribe(t *testing.T) {
	feed := NewFeed()

	ch, cancel := feed.Subscribe()
	defer cancel()

	feed.Publish(&UsageEvent{RequestID: "req-1"})

	select {
	case ev := <-ch:
		assert.Equal(t, "req-1", ev.RequestID)
	default:
		t.Fatal("expected buffered event")
	}
}

func TestFeed_SlowSubscriberDoesNotBlock(t *testing.T) {
	feed := NewFeed()

	_, cancel := feed.Subscribe()
	defer cancel()

	// Overfill the subscriber buffer; Publish must stay non-blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Publish(&UsageEvent{RequestID: "req"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestFeed_CancelRemovesSubscriber(t *testing.T) {
	feed := NewFeed()

	_, cancel := feed.Subscribe()
	assert.Equal(t, 1, feed.SubscriberCount())
	cancel()
	assert.Equal(t, 0, feed.SubscriberCount())
}

func TestEstimator_HeuristicFallback(t *testing.T) {
	var e *Estimator
	// Nil estimator and empty estimator both fall back to chars/4.
	assert.Equal(t, 3, e.Estimate("twelve chars"))
	assert.Equal(t, 0, (&Estimator{}).Estimate(""))
	assert.Equal(t, 1, (&Estimator{}).Estimate("abc"))
}
