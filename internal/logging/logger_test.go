package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("bad JSON line %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func TestInitWritesJSONLines(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{Debug: true, Dir: dir})
	defer Shutdown()

	Logger().Info("hello", "key", "value")

	recs := readRecords(t, filepath.Join(dir, LogFileName))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["msg"] != "hello" || recs[0]["key"] != "value" {
		t.Errorf("unexpected record: %v", recs[0])
	}
}

func TestInitWithoutDirDiscards(t *testing.T) {
	Shutdown()
	Init(Config{})
	defer Shutdown()

	// Must not panic and must not create files in the working directory.
	ForComponent(CompUI).Info("nowhere")
	if _, err := os.Stat(LogFileName); err == nil {
		t.Errorf("log file unexpectedly created in cwd")
	}
}

func TestForComponentResolvesAfterInit(t *testing.T) {
	Shutdown()
	// Created before Init, like a package-level var.
	tmuxLog := ForComponent(CompTmux).With("session", "agentssh_codex_1")

	dir := t.TempDir()
	Init(Config{Debug: true, Dir: dir})
	defer Shutdown()

	tmuxLog.Warn("capture_failed")

	recs := readRecords(t, filepath.Join(dir, LogFileName))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["component"] != CompTmux {
		t.Errorf("component = %v, want %s", recs[0]["component"], CompTmux)
	}
	if recs[0]["session"] != "agentssh_codex_1" {
		t.Errorf("session = %v", recs[0]["session"])
	}
}

func TestLevelFiltering(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{Debug: true, Dir: dir, Level: "warn"})
	defer Shutdown()

	Logger().Info("dropped")
	Logger().Error("kept")

	recs := readRecords(t, filepath.Join(dir, LogFileName))
	if len(recs) != 1 || recs[0]["msg"] != "kept" {
		t.Errorf("expected only the error record, got %v", recs)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAggregatorFlush(t *testing.T) {
	var buf bytes.Buffer
	agg := NewAggregator(slog.New(slog.NewJSONHandler(&buf, nil)), time.Hour)

	agg.Record(CompActivity, "tick", slog.Int("sessions", 2))
	agg.Record(CompActivity, "tick", slog.Int("sessions", 3))
	agg.Flush()

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("bad summary line: %v (%s)", err, buf.String())
	}
	if rec["event"] != "tick" || rec["count"] != float64(2) || rec["sessions"] != float64(3) {
		t.Errorf("unexpected summary: %v", rec)
	}

	buf.Reset()
	agg.Flush()
	if buf.Len() != 0 {
		t.Errorf("second flush should be empty, got %s", buf.String())
	}
}

func TestRingBuffer(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []string
		want   string
	}{
		{"partial", 16, []string{"hello"}, "hello"},
		{"exact fill", 4, []string{"ab", "cd"}, "abcd"},
		{"wrap", 10, []string{"abcdefghij", "12345"}, "fghij12345"},
		{"oversized write", 5, []string{"0123456789"}, "56789"},
		{"split write", 6, []string{"abcd", "efgh"}, "cdefgh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRingBuffer(tt.size)
			for _, w := range tt.writes {
				if n, err := rb.Write([]byte(w)); err != nil || n != len(w) {
					t.Fatalf("Write(%q) = %d, %v", w, n, err)
				}
			}
			if got := string(rb.Bytes()); got != tt.want {
				t.Errorf("Bytes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDumpRingBuffer(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{Debug: true, Dir: dir})
	defer Shutdown()

	Logger().Info("crash_context")
	out := filepath.Join(dir, "dump.log")
	if err := DumpRingBuffer(out); err != nil {
		t.Fatalf("DumpRingBuffer: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !bytes.Contains(data, []byte("crash_context")) {
		t.Errorf("dump missing record: %s", data)
	}
}
