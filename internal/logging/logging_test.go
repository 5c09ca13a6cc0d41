package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMakeFromWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New().FromWriter(&buf).Level("warn").Make()
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	l.Info().Msg("hidden")
	l.Warn().Str("action", "deleteFolder").Msg("settled")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line; got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["level"] != "warn" || entry["action"] != "deleteFolder" || entry["time"] == nil {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestMakeBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := New().FromWriter(&buf).Level("loud").Make()
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestMakeFromPathAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.log")
	for _, msg := range []string{"first", "second"} {
		l, err := New().FromPath(path).Make()
		if err != nil {
			t.Fatalf("make: %v", err)
		}
		l.Info().Msg(msg)
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Count(string(b), "\n"); got != 2 {
		t.Fatalf("expected two lines; got %d:\n%s", got, b)
	}
}

func TestCloseWithoutFile(t *testing.T) {
	var l *Logger
	if err := l.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
