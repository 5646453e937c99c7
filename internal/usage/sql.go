package usage

import (
	"context"
	"database/sql"
	"errors"

	"ask-api/internal/shared"
)

// SQLStore keeps records in the usage_record table, see migrations/
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, userID string) (*shared.UsageRecord, error) {
	rec := &shared.UsageRecord{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT last_request_date, request_count
		FROM usage_record
		WHERE user_id = ?
	`, userID).Scan(&rec.LastRequestDate, &rec.RequestCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLStore) Set(ctx context.Context, rec shared.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_record (user_id, last_request_date, request_count)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			last_request_date = VALUES(last_request_date),
			request_count = VALUES(request_count)
	`, rec.UserID, rec.LastRequestDate, rec.RequestCount)
	return err
}

func (s *SQLStore) Increment(ctx context.Context, userID string, delta int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE usage_record
		SET request_count = request_count + ?
		WHERE user_id = ?
	`, delta, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *SQLStore) SetIfDate(ctx context.Context, rec shared.UsageRecord, expectedDate string) (bool, error) {
	if expectedDate == "" {
		res, err := s.db.ExecContext(ctx, `
			INSERT IGNORE INTO usage_record (user_id, last_request_date, request_count)
			VALUES (?, ?, ?)
		`, rec.UserID, rec.LastRequestDate, rec.RequestCount)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		if n == 1 {
			return true, nil
		}
		// Row exists, it may still carry an empty date
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE usage_record
		SET last_request_date = ?, request_count = ?
		WHERE user_id = ? AND last_request_date = ?
	`, rec.LastRequestDate, rec.RequestCount, rec.UserID, expectedDate)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
