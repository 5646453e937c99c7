package usage

import (
	"context"
	"errors"
	"time"

	"ask-api/internal/metrics"
	"ask-api/internal/shared"
)

var errConcurrentUpdate = errors.New("usage record changed concurrently")

type Limiter struct {
	store Store
	limit int64
	now   func() time.Time
}

func NewLimiter(store Store, limit int64) *Limiter {
	if limit <= 0 {
		limit = shared.DailyLimit
	}
	return &Limiter{store: store, limit: limit, now: time.Now}
}

// WithClock swaps the time source, used by tests to pin the UTC date
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Limit() int64 {
	return l.limit
}

// Consume counts one request for userID against today's quota.
//
// The returned record reflects the count after this request. On
// ErrQuotaExceeded the stored record is returned untouched. Any store failure
// is reported as ErrStore and nothing is counted.
func (l *Limiter) Consume(ctx context.Context, userID string) (*shared.UsageRecord, error) {
	today := shared.Today(l.now())

	for range shared.MaxConsumeAttempts {
		rec, err := l.store.Get(ctx, userID)
		if err != nil {
			metrics.ErrorCount.WithLabelValues("store").Inc()
			return nil, shared.ErrStore.WithCause(err)
		}

		if rec != nil && rec.LastRequestDate == today {
			if rec.RequestCount >= l.limit {
				metrics.QuotaDecisions.WithLabelValues(metrics.DecisionExceeded).Inc()
				return rec, shared.ErrQuotaExceeded
			}
			if err := l.store.Increment(ctx, userID, 1); err != nil {
				metrics.ErrorCount.WithLabelValues("store").Inc()
				return nil, shared.ErrStore.WithCause(err)
			}
			metrics.QuotaDecisions.WithLabelValues(metrics.DecisionIncrement).Inc()
			return &shared.UsageRecord{
				UserID:          userID,
				LastRequestDate: today,
				RequestCount:    rec.RequestCount + 1,
			}, nil
		}

		// First request of the day, either a new user or a stale record
		expected := ""
		decision := metrics.DecisionCreated
		if rec != nil {
			expected = rec.LastRequestDate
			decision = metrics.DecisionReset
		}
		fresh := shared.UsageRecord{UserID: userID, LastRequestDate: today, RequestCount: 1}
		ok, err := l.store.SetIfDate(ctx, fresh, expected)
		if err != nil {
			metrics.ErrorCount.WithLabelValues("store").Inc()
			return nil, shared.ErrStore.WithCause(err)
		}
		if ok {
			metrics.QuotaDecisions.WithLabelValues(decision).Inc()
			return &fresh, nil
		}
		// Another request rolled the record over first, re-read and count
		// against what it wrote.
		metrics.QuotaDecisions.WithLabelValues(metrics.DecisionConflict).Inc()
	}
	metrics.ErrorCount.WithLabelValues("store").Inc()
	return nil, shared.ErrStore.WithCause(errConcurrentUpdate)
}

// Remaining is how many requests rec still allows today
func (l *Limiter) Remaining(rec *shared.UsageRecord) int64 {
	if rec == nil {
		return l.limit
	}
	if rec.LastRequestDate != shared.Today(l.now()) {
		return l.limit
	}
	return max(l.limit-rec.RequestCount, 0)
}
