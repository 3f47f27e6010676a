package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const taskColumns = `id, kind, user_id, plan_id, day, run_at, created_at, completed_at, attempts, last_error`

func scanTask(row interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		task        Task
		kind        string
		runAt       string
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&task.ID, &kind, &task.UserID, &task.PlanID, &task.Day, &runAt, &createdAt, &completedAt, &task.Attempts, &task.LastError); err != nil {
		return nil, err
	}
	task.Kind = TaskKind(kind)
	task.RunAt = parseTime(runAt)
	task.CreatedAt = parseTime(createdAt)
	if completedAt.Valid {
		done := parseTime(completedAt.String)
		task.CompletedAt = &done
	}
	return &task, nil
}

// RegisterTask inserts a one-shot deferred task. Registering the same
// (kind, user, plan, day) twice returns ErrAlreadyExists.
func (s *Store) RegisterTask(ctx context.Context, task *Task) error {
	ctx = ensureContext(ctx)
	task.CreatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO scheduled_tasks (kind, user_id, plan_id, day, run_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(task.Kind),
		task.UserID,
		task.PlanID,
		task.Day,
		formatTime(task.RunAt),
		formatTime(task.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	task.ID = id
	return nil
}

// DueTasks returns up to limit pending tasks whose run time has passed,
// oldest first.
func (s *Store) DueTasks(ctx context.Context, now time.Time, limit int) ([]*Task, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks
         WHERE completed_at IS NULL AND run_at <= ?
         ORDER BY run_at ASC
         LIMIT ?`,
		formatTime(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// CompleteTask marks a task finished at the given time.
func (s *Store) CompleteTask(ctx context.Context, taskID int64, at time.Time) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE scheduled_tasks SET completed_at = ? WHERE id = ? AND completed_at IS NULL`,
		formatTime(at),
		taskID,
	)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete task %d: %w", taskID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeferTask records a failed attempt and pushes the task's run time forward.
func (s *Store) DeferTask(ctx context.Context, taskID int64, runAt time.Time, cause string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE scheduled_tasks
         SET attempts = attempts + 1, run_at = ?, last_error = ?
         WHERE id = ? AND completed_at IS NULL`,
		formatTime(runAt),
		cause,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("defer task %d: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("defer task %d: %w", taskID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AbandonTask retires a task that exhausted its delivery attempts. The task
// is marked complete so the poll loop stops picking it up, and the final
// failure cause is preserved.
func (s *Store) AbandonTask(ctx context.Context, taskID int64, cause string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE scheduled_tasks
         SET attempts = attempts + 1, completed_at = ?, last_error = ?
         WHERE id = ? AND completed_at IS NULL`,
		formatTime(time.Now().UTC()),
		cause,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("abandon task %d: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("abandon task %d: %w", taskID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelPendingTasks deletes every pending task of the given kind for a
// user and reports how many were removed. Completed tasks stay for audit.
func (s *Store) CancelPendingTasks(ctx context.Context, kind TaskKind, userID int64) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM scheduled_tasks WHERE kind = ? AND user_id = ? AND completed_at IS NULL`,
		string(kind),
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel pending tasks for %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel pending tasks for %d: %w", userID, err)
	}
	return affected, nil
}

// PendingTaskCount returns how many tasks are still awaiting execution.
func (s *Store) PendingTaskCount(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_tasks WHERE completed_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending tasks: %w", err)
	}
	return count, nil
}

// PendingTasksForUser returns a user's pending tasks ordered by run time.
func (s *Store) PendingTasksForUser(ctx context.Context, userID int64) ([]*Task, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks
         WHERE user_id = ? AND completed_at IS NULL
         ORDER BY run_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
