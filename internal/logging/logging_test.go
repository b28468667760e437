package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestOpenCreatesMonthlyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	clock := fixedClock(time.Date(2026, time.March, 5, 10, 30, 0, 0, time.UTC))

	logger, closer, err := Open(dir, slog.LevelInfo, clock)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	logger.Info("starting backup process", "dry_run", false)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "backup_2026_03.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected monthly log file at %s: %v", path, err)
	}
	if !strings.Contains(string(data), " - INFO - starting backup process dry_run=false") {
		t.Errorf("unexpected log line: %q", string(data))
	}
}

func TestOpenAppends(t *testing.T) {
	dir := t.TempDir()
	clock := fixedClock(time.Date(2026, time.March, 5, 10, 30, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		logger, closer, err := Open(dir, slog.LevelInfo, clock)
		if err != nil {
			t.Fatal(err)
		}
		logger.Info("pass")
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "backup_2026_03.log"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("expected 2 log lines after two runs, got %d", got)
	}
}

func TestLineHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelInfo, nil))

	logger.Info("copying save file", "game", "Elden Ring")

	line := strings.TrimSuffix(buf.String(), "\n")
	pattern := `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - INFO - copying save file game=Elden Ring$`
	if !regexp.MustCompile(pattern).MatchString(line) {
		t.Errorf("line %q does not match %q", line, pattern)
	}
}

func TestLineHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelInfo, nil))

	logger.Debug("skipping unmodified file")
	if buf.Len() != 0 {
		t.Errorf("expected debug record to be suppressed, got %q", buf.String())
	}

	logger.Error("copy failed")
	if !strings.Contains(buf.String(), " - ERROR - copy failed") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}

func TestLineHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelInfo, nil))

	logger.With("run", 7).WithGroup("file").Info("copied", "name", "ER0000.sl2")

	line := buf.String()
	if !strings.Contains(line, "run=7") {
		t.Errorf("expected preformatted attr in %q", line)
	}
	if !strings.Contains(line, "file.name=ER0000.sl2") {
		t.Errorf("expected grouped attr in %q", line)
	}
}
