package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"orderbell/internal/daemonctl"
	"orderbell/internal/deps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Orderbell", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Orderbell:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Orderbell", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := map[string]statusKind{
		"ok":      statusOK,
		"WARN":    statusWarn,
		"warning": statusWarn,
		"error":   statusError,
		"info":    statusInfo,
		"":        statusInfo,
	}
	for input, want := range cases {
		if got := statusKindFromSeverity(input); got != want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "paplay", Command: "paplay", Optional: true, Detail: `binary "paplay" not found`},
		{Name: "ffplay", Command: "ffplay", Optional: true, Available: true},
		{Name: "Audio player", Command: "mpg123"},
	}
	summary := daemonctl.BuildDependencySummary(statuses)
	lines := dependencyLines(statuses, summary, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK]") || !strings.Contains(lines[0], "Summary") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], `[INFO] binary "paplay" not found`) {
		t.Fatalf("expected optional miss as info, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (command: ffplay)") {
		t.Fatalf("expected ready detail, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[ERROR] not available") {
		t.Fatalf("expected required miss as error, got %q", lines[3])
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
		t.Fatalf("unexpected table output %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestParseVisibility(t *testing.T) {
	if v, err := parseVisibility("Visible"); err != nil || !v {
		t.Fatalf("expected visible, got %v %v", v, err)
	}
	if v, err := parseVisibility("hidden"); err != nil || v {
		t.Fatalf("expected hidden, got %v %v", v, err)
	}
	if _, err := parseVisibility("maybe"); err == nil {
		t.Fatal("expected error")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
