package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldUserID is the standardized structured logging key for artist identifiers.
	FieldUserID = "user_id"
	// FieldPlanID is the standardized structured logging key for reminder plan identifiers.
	FieldPlanID = "plan_id"
	// FieldDay is the standardized structured logging key for a reminder's day offset.
	FieldDay = "day"
	// FieldScanID is the standardized structured logging key for scan correlation identifiers.
	FieldScanID = "scan_id"
	// FieldStatus is the standardized structured logging key for compliance status values.
	FieldStatus = "status"
	// FieldDeficit is the standardized structured logging key for outstanding upload counts.
	FieldDeficit = "deficit"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	planIDKey contextKey = "plan_id"
	scanIDKey contextKey = "scan_id"
)

// WithUserID annotates context with the artist identifier.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the artist identifier if present.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v, true
	}
	return 0, false
}

// WithPlanID annotates context with the reminder plan identifier.
func WithPlanID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, planIDKey, id)
}

// PlanIDFromContext extracts the plan identifier if present.
func PlanIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(planIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithScanID annotates context with a scan correlation identifier.
func WithScanID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scanIDKey, id)
}

// ScanIDFromContext extracts the scan correlation identifier if present.
func ScanIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scanIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]Attr, 0, 3)
	if id, ok := UserIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldUserID, id))
	}
	if id, ok := PlanIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPlanID, id))
	}
	if id, ok := ScanIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldScanID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
