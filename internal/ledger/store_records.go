package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const recordColumns = `user_id, committed, status, deficit, last_event_at, created_at, updated_at`

func scanRecord(row interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec       Record
		committed int64
		status    string
		lastEvent sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&rec.UserID, &committed, &status, &rec.Deficit, &lastEvent, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.Committed = committed != 0
	rec.Status = Status(status)
	if lastEvent.Valid {
		rec.LastEventAt = parseTime(lastEvent.String)
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

// CreateRecord inserts a new compliance record. It returns ErrAlreadyExists
// when a record for the same user is already present.
func (s *Store) CreateRecord(ctx context.Context, rec *Record) error {
	ctx = ensureContext(ctx)
	if !rec.Status.IsValid() {
		return fmt.Errorf("invalid status %q", rec.Status)
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO compliance_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID,
		boolToInt(rec.Committed),
		string(rec.Status),
		rec.Deficit,
		formatNullableTime(rec.LastEventAt),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetRecord loads the compliance record for a user.
func (s *Store) GetRecord(ctx context.Context, userID int64) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM compliance_records WHERE user_id = ?`, userID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %d: %w", userID, err)
	}
	return rec, nil
}

// ListRecords returns every compliance record ordered by user ID.
func (s *Store) ListRecords(ctx context.Context) ([]*Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM compliance_records ORDER BY user_id`)
}

// ListCommitted returns the records of artists with an active commitment,
// the population a daily scan evaluates.
func (s *Store) ListCommitted(ctx context.Context) ([]*Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM compliance_records WHERE committed = 1 ORDER BY user_id`)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// SetCommitment flips the commitment flag on an existing record.
func (s *Store) SetCommitment(ctx context.Context, userID int64, committed bool) (*Record, error) {
	return s.WithRecord(ctx, userID, func(rec *Record) error {
		rec.Committed = committed
		return nil
	})
}

// WithRecord loads the record for userID, applies fn, and persists the
// result, all inside one transaction retried on SQLITE_BUSY. The callback
// sees a fresh copy on every retry, so it must be side-effect free. The
// updated record is returned.
func (s *Store) WithRecord(ctx context.Context, userID int64, fn func(*Record) error) (*Record, error) {
	ctx = ensureContext(ctx)
	var updated *Record
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM compliance_records WHERE user_id = ?`, userID)
		rec, err := scanRecord(row)
		if errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return ErrNotFound
		}
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		if err := fn(rec); err != nil {
			_ = tx.Rollback()
			return err
		}
		if !rec.Status.IsValid() {
			_ = tx.Rollback()
			return fmt.Errorf("invalid status %q", rec.Status)
		}
		if rec.Deficit < 0 {
			rec.Deficit = 0
		}
		rec.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(
			ctx,
			`UPDATE compliance_records
             SET committed = ?, status = ?, deficit = ?, last_event_at = ?, updated_at = ?
             WHERE user_id = ?`,
			boolToInt(rec.Committed),
			string(rec.Status),
			rec.Deficit,
			formatNullableTime(rec.LastEventAt),
			formatTime(rec.UpdatedAt),
			rec.UserID,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update record %d: %w", userID, err)
	}
	return updated, nil
}

// DeleteRecord removes a record along with its pending reminders. Used by
// the reset operation.
func (s *Store) DeleteRecord(ctx context.Context, userID int64) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx, `DELETE FROM compliance_records WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %d: %w", userID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
