package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	flags := flagConfig{
		configPath: filepath.Join(dir, "config.yaml"),
		once:       true,
		on:         "monday",
		date:       "2026-09-21",
	}

	var out bytes.Buffer
	if err := run(flags, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	want := strings.Join([]string{
		"# available on monday",
		"monday 09:00-13:00",
		"monday 14:00-18:00",
		"# free on 2026-09-21",
		"2026-09-21 09:00-13:00",
		"2026-09-21 14:00-18:00",
	}, "\n") + "\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestRunOnce_RejectsBadDate(t *testing.T) {
	flags := flagConfig{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		once:       true,
		date:       "someday",
	}
	var out bytes.Buffer
	err := run(flags, &out)
	if err == nil || !strings.Contains(err.Error(), `"someday" is not a valid date`) {
		t.Fatalf("expected invalid date error, got %v", err)
	}
}
