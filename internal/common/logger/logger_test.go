package logger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/applyflow/auth-service/internal/common/logger"
)

func TestNew_StdoutOnly(t *testing.T) {
	log, err := logger.New("", "auth", "info")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if log == nil {
		t.Fatal("expected a logger")
	}

	log.Info("stdout only logger works")
}

func TestNew_CreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := logger.New(dir, "auth", "debug")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, statErr := os.Stat(dir); statErr != nil {
		t.Fatalf("expected log directory to exist: %v", statErr)
	}

	log.Debugf("file-backed logger works: %s", dir)
}

func TestWithFields(t *testing.T) {
	log, err := logger.New("", "auth", "debug")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ctx := logger.ContextWithTraceID(context.Background(), "trace-abc")
	log.WithFields(ctx, logger.Fields{
		"user_id": "user-123",
		"action":  "test",
	}).Info("entry with fields and trace id")
}

func TestTraceIDContext(t *testing.T) {
	ctx := context.Background()
	if got := logger.TraceIDFromContext(ctx); got != "" {
		t.Errorf("expected empty trace id, got %q", got)
	}

	ctx = logger.ContextWithTraceID(ctx, "trace-abc")
	if got := logger.TraceIDFromContext(ctx); got != "trace-abc" {
		t.Errorf("expected trace-abc, got %q", got)
	}
}
