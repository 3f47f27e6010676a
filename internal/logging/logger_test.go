package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"atelier/internal/logging"
)

func TestNewJSONLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("scan finished", logging.Args(
		logging.Int(logging.FieldDeficit, 4),
		logging.String(logging.FieldStatus, "inactive"),
	)...)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["msg"] != "scan finished" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record[logging.FieldDeficit] != float64(4) {
		t.Fatalf("unexpected deficit field: %v", record[logging.FieldDeficit])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := logging.WithUserID(context.Background(), 42)
	ctx = logging.WithPlanID(ctx, "plan-abc")
	logging.WithContext(ctx, logger).Info("reminder sent")

	line := buf.String()
	if !strings.Contains(line, "user_id=42") {
		t.Fatalf("expected user_id in output, got %q", line)
	}
	if !strings.Contains(line, "plan_id=plan-abc") {
		t.Fatalf("expected plan_id in output, got %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should report disabled")
	}
}
