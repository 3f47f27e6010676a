package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreatePlan inserts an immutable reminder plan. It returns ErrAlreadyExists
// when a plan with the same ID was stored before.
func (s *Store) CreatePlan(ctx context.Context, plan *Plan) error {
	ctx = ensureContext(ctx)
	if plan.ID == "" {
		return fmt.Errorf("plan ID is required")
	}
	steps, err := json.Marshal(plan.Steps)
	if err != nil {
		return fmt.Errorf("encode plan steps: %w", err)
	}
	plan.CreatedAt = time.Now().UTC()

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO reminder_plans (plan_id, user_id, timezone, steps_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		plan.ID,
		plan.UserID,
		plan.Timezone,
		string(steps),
		formatTime(plan.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert plan %s: %w", plan.ID, err)
	}
	return nil
}

// GetPlan loads a stored reminder plan by ID.
func (s *Store) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	ctx = ensureContext(ctx)
	var (
		plan      Plan
		stepsJSON string
		createdAt string
	)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT plan_id, user_id, timezone, steps_json, created_at FROM reminder_plans WHERE plan_id = ?`,
		planID,
	)
	err := row.Scan(&plan.ID, &plan.UserID, &plan.Timezone, &stepsJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &plan.Steps); err != nil {
		return nil, fmt.Errorf("decode plan %s steps: %w", planID, err)
	}
	plan.CreatedAt = parseTime(createdAt)
	return &plan, nil
}
