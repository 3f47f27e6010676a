package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordNotification appends a delivery to the notification log.
func (s *Store) RecordNotification(ctx context.Context, userID int64, kind, detail string, sentAt time.Time) error {
	return s.execWithoutResultRetry(
		ctx,
		`INSERT INTO notification_log (user_id, kind, detail, sent_at) VALUES (?, ?, ?, ?)`,
		userID,
		kind,
		detail,
		formatTime(sentAt),
	)
}

// LastNotification returns when the most recent notification of the given
// kind was sent to a user, or ErrNotFound when none was.
func (s *Store) LastNotification(ctx context.Context, userID int64, kind string) (time.Time, error) {
	ctx = ensureContext(ctx)
	var sentAt string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT sent_at FROM notification_log
         WHERE user_id = ? AND kind = ?
         ORDER BY sent_at DESC
         LIMIT 1`,
		userID,
		kind,
	).Scan(&sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load last notification for %d: %w", userID, err)
	}
	return parseTime(sentAt), nil
}
