package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRunReport_HasFailures tests failure detection across the three failure maps
func TestRunReport_HasFailures(t *testing.T) {
	tests := []struct {
		name     string
		report   RunReport
		expected bool
	}{
		{
			name:     "clean run",
			report:   RunReport{Scanned: 10, New: 3},
			expected: false,
		},
		{
			name:     "failed load",
			report:   RunReport{FailedLoads: map[string]error{"a.md": errors.New("boom")}},
			expected: true,
		},
		{
			name:     "failed batch",
			report:   RunReport{FailedBatches: map[int]error{2: errors.New("boom")}},
			expected: true,
		},
		{
			name:     "failed delete",
			report:   RunReport{FailedDeletes: map[string]error{"a.md": errors.New("boom")}},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.report.HasFailures())
		})
	}
}

// TestRunReport_Applied tests change detection
func TestRunReport_Applied(t *testing.T) {
	assert.False(t, RunReport{Scanned: 5, Unchanged: 5}.Applied())
	assert.True(t, RunReport{ChunksWritten: 1}.Applied())
	assert.True(t, RunReport{Deleted: 1}.Applied())
	assert.False(t, RunReport{DryRun: true, New: 3, Deleted: 1}.Applied(),
		"a dry run applies nothing no matter what the diff found")
	assert.False(t, RunReport{
		Deleted:       1,
		FailedDeletes: map[string]error{"a.md": errors.New("boom")},
	}.Applied(), "a delete that failed changed nothing")
}
