package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/pkg/cache"
	pkgkafka "GanttGen/pkg/kafka"
	applogger "GanttGen/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, now func() time.Time) *CacheSessionStore {
	t.Helper()
	mc := cache.NewMemoryCache(cache.WithMemoryClock(now))
	t.Cleanup(func() { _ = mc.Close() })
	return NewCacheSessionStore(mc, time.Hour, applogger.Nop())
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, time.Now)

	in := &models.ResearchSession{
		ID:        "0b6f8f0e-8d3c-4a5e-9d43-4f0e6c1b2a10",
		Research:  "--- Start of file: a.md ---\nx\n--- End of file: a.md ---\n\n",
		FileNames: []string{"a.md"},
		CreatedAt: time.Date(2025, 11, 13, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, store.Delete(ctx, in.ID))
	_, err = store.Get(ctx, in.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, in.ID), models.ErrSessionNotFound)
}

func TestSessionStore_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newStore(t, func() time.Time { return now })

	require.NoError(t, store.Save(ctx, &models.ResearchSession{ID: "s1"}))

	now = now.Add(50 * time.Minute)
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	// the read pushed expiry to 1h50m
	now = now.Add(50 * time.Minute)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(61 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSessionStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, time.Now)

	require.NoError(t, store.Save(ctx, &models.ResearchSession{ID: "a", Research: "alpha"}))
	require.NoError(t, store.Save(ctx, &models.ResearchSession{ID: "b", Research: "beta"}))

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Research)
}

func TestSessionStore_RejectsEmptyID(t *testing.T) {
	store := newStore(t, time.Now)
	assert.Error(t, store.Save(context.Background(), &models.ResearchSession{}))
}

type memWriter struct{ msgs []kafka.Message }

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &memWriter{}
	p := NewKafkaPublisher(pkgkafka.NewProducerWithWriter(w, "snappy"), "ganttgen.events")

	ev := &models.GenerationEvent{SessionID: "s1", Kind: models.EventChart, Success: true, DurationMs: 1200}
	require.NoError(t, p.PublishEvent(context.Background(), ev))
	require.NoError(t, p.PublishMessage(context.Background(), "", map[string]int{"errors": 2}))
	require.NoError(t, p.PublishMessage(context.Background(), "ganttgen.logs", "raw"))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "ganttgen.events", w.msgs[0].Topic)
	assert.Equal(t, []byte("s1"), w.msgs[0].Key)

	var got models.GenerationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, models.EventChart, got.Kind)
	assert.True(t, got.Success)

	assert.Equal(t, "ganttgen.events", w.msgs[1].Topic)
	assert.Equal(t, "ganttgen.logs", w.msgs[2].Topic)
	assert.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.PublishEvent(context.Background(), &models.GenerationEvent{}))
	assert.NoError(t, p.PublishMessage(context.Background(), "t", nil))
	assert.NoError(t, p.Close())
}
