package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ask-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan1 = time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestLimiter(store Store) *Limiter {
	return NewLimiter(store, shared.DailyLimit).WithClock(fixedClock(jan1))
}

func TestConsumeFirstRequest(t *testing.T) {
	store := NewMemoryStore()
	rec, err := newTestLimiter(store).Consume(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.RequestCount)
	assert.Equal(t, "2024-01-01", rec.LastRequestDate)

	stored, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, shared.UsageRecord{UserID: "u1", LastRequestDate: "2024-01-01", RequestCount: 1}, *stored)
}

func TestConsumeSameDayIncrements(t *testing.T) {
	ctx := context.Background()
	for _, k := range []int64{1, 12, 24} {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, shared.UsageRecord{UserID: "u1", LastRequestDate: "2024-01-01", RequestCount: k}))

		rec, err := newTestLimiter(store).Consume(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, k+1, rec.RequestCount)

		stored, _ := store.Get(ctx, "u1")
		assert.Equal(t, k+1, stored.RequestCount)
	}
}

func TestConsumeQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	for _, k := range []int64{25, 26, 100} {
		store := NewMemoryStore()
		seed := shared.UsageRecord{UserID: "u1", LastRequestDate: "2024-01-01", RequestCount: k}
		require.NoError(t, store.Set(ctx, seed))

		rec, err := newTestLimiter(store).Consume(ctx, "u1")
		assert.ErrorIs(t, err, shared.ErrQuotaExceeded)
		assert.Equal(t, k, rec.RequestCount)

		stored, _ := store.Get(ctx, "u1")
		assert.Equal(t, seed, *stored)
	}
}

func TestConsumeNewDayResets(t *testing.T) {
	ctx := context.Background()
	for _, prev := range []shared.UsageRecord{
		{UserID: "u1", LastRequestDate: "2023-12-31", RequestCount: 25},
		{UserID: "u1", LastRequestDate: "2023-06-01", RequestCount: 3},
		{UserID: "u1", LastRequestDate: "2024-01-02", RequestCount: 40},
		{UserID: "u1", LastRequestDate: "", RequestCount: 9},
	} {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, prev))

		rec, err := newTestLimiter(store).Consume(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.RequestCount)

		stored, _ := store.Get(ctx, "u1")
		assert.Equal(t, shared.UsageRecord{UserID: "u1", LastRequestDate: "2024-01-01", RequestCount: 1}, *stored)
	}
}

func TestConsumeFillsQuota(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	limiter := newTestLimiter(store)

	for i := 1; i <= shared.DailyLimit; i++ {
		rec, err := limiter.Consume(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(i), rec.RequestCount)
	}
	_, err := limiter.Consume(ctx, "u1")
	assert.ErrorIs(t, err, shared.ErrQuotaExceeded)

	// next UTC day starts over
	limiter.WithClock(fixedClock(jan1.Add(9 * time.Hour)))
	rec, err := limiter.Consume(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", rec.LastRequestDate)
	assert.Equal(t, int64(1), rec.RequestCount)
}

// racingStore lets another writer roll the record over between our Get and
// our SetIfDate.
type racingStore struct {
	*MemoryStore
	raced bool
}

func (r *racingStore) SetIfDate(ctx context.Context, rec shared.UsageRecord, expectedDate string) (bool, error) {
	if !r.raced {
		r.raced = true
		_, _ = r.MemoryStore.SetIfDate(ctx, rec, expectedDate)
	}
	return r.MemoryStore.SetIfDate(ctx, rec, expectedDate)
}

func TestConsumeRolloverRace(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, store.Set(ctx, shared.UsageRecord{UserID: "u1", LastRequestDate: "2023-12-31", RequestCount: 25}))

	rec, err := newTestLimiter(store).Consume(ctx, "u1")
	require.NoError(t, err)
	// the competing reset counted 1, ours is counted on top of it
	assert.Equal(t, int64(2), rec.RequestCount)

	stored, _ := store.Get(ctx, "u1")
	assert.Equal(t, int64(2), stored.RequestCount)
}

type stubStore struct {
	rec       *shared.UsageRecord
	getErr    error
	incErr    error
	setErr    error
	setResult bool
}

func (s *stubStore) Get(context.Context, string) (*shared.UsageRecord, error) {
	return s.rec, s.getErr
}

func (s *stubStore) Set(context.Context, shared.UsageRecord) error {
	return s.setErr
}

func (s *stubStore) Increment(context.Context, string, int64) error {
	return s.incErr
}

func (s *stubStore) SetIfDate(context.Context, shared.UsageRecord, string) (bool, error) {
	return s.setResult, s.setErr
}

func TestConsumeStoreErrors(t *testing.T) {
	boom := errors.New("deadline exceeded")
	today := &shared.UsageRecord{UserID: "u1", LastRequestDate: "2024-01-01", RequestCount: 3}

	tests := []struct {
		name  string
		store *stubStore
	}{
		{name: "get", store: &stubStore{getErr: boom}},
		{name: "increment", store: &stubStore{rec: today, incErr: boom}},
		{name: "create", store: &stubStore{setErr: boom}},
		{name: "never wins", store: &stubStore{setResult: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := newTestLimiter(tt.store).Consume(context.Background(), "u1")
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, shared.ErrStore)
			assert.Equal(t, 500, shared.AsRequestError(err).StatusCode)
		})
	}
}

func TestRemaining(t *testing.T) {
	limiter := newTestLimiter(NewMemoryStore())
	assert.Equal(t, int64(25), limiter.Remaining(nil))
	assert.Equal(t, int64(20), limiter.Remaining(&shared.UsageRecord{LastRequestDate: "2024-01-01", RequestCount: 5}))
	assert.Equal(t, int64(0), limiter.Remaining(&shared.UsageRecord{LastRequestDate: "2024-01-01", RequestCount: 30}))
	assert.Equal(t, int64(25), limiter.Remaining(&shared.UsageRecord{LastRequestDate: "2023-12-31", RequestCount: 5}))
}

func TestNewLimiterDefaultsLimit(t *testing.T) {
	assert.Equal(t, int64(shared.DailyLimit), NewLimiter(NewMemoryStore(), 0).Limit())
	assert.Equal(t, int64(3), NewLimiter(NewMemoryStore(), 3).Limit())
}
