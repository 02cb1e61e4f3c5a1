package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pithecene-io/foundry/types"
)

func TestLoggerCarriesSessionContext(t *testing.T) {
	session := types.NewSession()
	var buf bytes.Buffer
	logger := newLoggerWithWriter(session, "todo-app", &buf)

	logger.Info("file committed", map[string]any{"path": "/App.tsx"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log entry, got %q: %v", buf.String(), err)
	}
	if entry["session_id"] != session.ID {
		t.Errorf("session_id = %v, want %s", entry["session_id"], session.ID)
	}
	if entry["project"] != "todo-app" {
		t.Errorf("project = %v, want todo-app", entry["project"])
	}
	if entry["message"] != "file committed" {
		t.Errorf("message = %v, want file committed", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestNilSessionOmitsIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(nil, "", &buf)

	logger.Warn("no session yet", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log entry, got %q: %v", buf.String(), err)
	}
	if _, ok := entry["session_id"]; ok {
		t.Error("session_id present on sessionless logger")
	}
	if _, ok := entry["project"]; ok {
		t.Error("project present on sessionless logger")
	}
}

func TestSugaredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(nil, "demo", &buf)

	logger.Sugar().With("attempt", 2).Infof("retrying %s", "webhook")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log entry, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "retrying webhook" {
		t.Errorf("message = %v, want retrying webhook", entry["message"])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Debug("dropped", nil)
	logger.Error("also dropped", map[string]any{"k": "v"})
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync on nop logger: %v", err)
	}
}
