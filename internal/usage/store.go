// Package usage tracks the per user daily request counter and decides
// whether a request fits in today's quota.
package usage

import (
	"context"
	"errors"

	"ask-api/internal/shared"
)

var ErrRecordNotFound = errors.New("usage record not found")

// Store persists UsageRecords keyed by user id. Increment must be atomic on
// the backing store.
type Store interface {
	// Get returns nil, nil when the user has no record yet
	Get(ctx context.Context, userID string) (*shared.UsageRecord, error)
	// Set overwrites the whole record
	Set(ctx context.Context, rec shared.UsageRecord) error
	// Increment adds delta to requestCount without touching lastRequestDate
	Increment(ctx context.Context, userID string, delta int64) error
	// SetIfDate overwrites the record only if the stored lastRequestDate still
	// equals expectedDate. An absent record has the date "". Returns false
	// when the condition did not hold.
	SetIfDate(ctx context.Context, rec shared.UsageRecord, expectedDate string) (bool, error)
}
