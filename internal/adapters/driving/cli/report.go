package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// Report colours, matching the standard terminal palette used across
// the charmbracelet stack.
var (
	colorPrimary = lipgloss.Color("#7C3AED") // purple
	colorSuccess = lipgloss.Color("#A6E3A1") // green
	colorWarning = lipgloss.Color("#F9E2AF") // yellow
	colorError   = lipgloss.Color("#F38BA8") // red
	colorMuted   = lipgloss.Color("#6C7086") // gray
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	errStyle   = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// renderReport formats a completed run for the terminal. The layout
// is stable so scripts scraping the plain counts keep working.
func renderReport(report domain.RunReport) string {
	var b strings.Builder

	switch {
	case report.DryRun:
		b.WriteString(titleStyle.Render("Dry run (nothing applied)"))
	case report.HasFailures():
		b.WriteString(warnStyle.Render(fmt.Sprintf("Sync finished in %s with failures", report.Duration.Round(time.Millisecond))))
	default:
		b.WriteString(goodStyle.Render(fmt.Sprintf("Sync complete in %s", report.Duration.Round(time.Millisecond))))
	}
	b.WriteString("\n")

	if report.FreshIndex {
		b.WriteString(mutedStyle.Render("The collection did not exist yet; built a fresh index.") + "\n")
	}

	b.WriteString(fmt.Sprintf("  Scanned:    %d files\n", report.Scanned))
	b.WriteString(fmt.Sprintf("  New:        %d\n", report.New))
	b.WriteString(fmt.Sprintf("  Updated:    %d\n", report.Updated))
	b.WriteString(fmt.Sprintf("  Unchanged:  %d\n", report.Unchanged))
	b.WriteString(fmt.Sprintf("  Deleted:    %d\n", report.Deleted))
	if !report.DryRun {
		b.WriteString(fmt.Sprintf("  Written:    %d chunks in %d batches\n", report.ChunksWritten, report.Batches))
	}

	if report.HasFailures() {
		b.WriteString(errStyle.Render(fmt.Sprintf("Failures (%d):", report.FailureCount())) + "\n")
		for _, line := range failureLines(report) {
			b.WriteString(errStyle.Render("  "+line) + "\n")
		}
	}

	return b.String()
}

// failureLines lists every recorded failure in a deterministic order:
// loads by source, batches by ordinal, deletes by source. The error
// strings already name the failed operation.
func failureLines(report domain.RunReport) []string {
	lines := make([]string, 0, report.FailureCount())

	for _, src := range slices.Sorted(maps.Keys(report.FailedLoads)) {
		lines = append(lines, report.FailedLoads[src].Error())
	}
	for _, ordinal := range slices.Sorted(maps.Keys(report.FailedBatches)) {
		lines = append(lines, report.FailedBatches[ordinal].Error())
	}
	for _, src := range slices.Sorted(maps.Keys(report.FailedDeletes)) {
		lines = append(lines, report.FailedDeletes[src].Error())
	}

	return lines
}
