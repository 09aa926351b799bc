package bench

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *Summary {
	return &Summary{
		Duration:      2 * time.Second,
		TotalRequests: 1200,
		SuccessCount:  1190,
		ErrorCount:    10,
		RPS:           600,
		SuccessRate:   1190.0 / 1200,
		ErrorRate:     10.0 / 1200,
		P50:           12 * time.Millisecond,
		P99:           80 * time.Millisecond,
		StatusCounts:  []StatusCount{{Status: 200, Count: 1190}, {Status: 502, Count: 10}},
		ErrorCounts:   map[string]int64{},
	}
}

func TestReporterSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(WithWriter(&buf), WithNoColor(true))

	r.Summary(sampleSummary(), []ThresholdResult{{Name: "p99", Passed: false, Expected: "< 50ms", Actual: "80ms"}})

	out := buf.String()
	assert.Contains(t, out, "BENCH SUMMARY")
	assert.Contains(t, out, "1,200 requests (600.0 req/s)")
	assert.Contains(t, out, "502: 10")
	assert.Contains(t, out, "Some thresholds failed!")
}

func TestReporterJSONSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(WithWriter(&buf), WithNoColor(true))

	require.NoError(t, r.JSONSummary(sampleSummary(), nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2s", decoded["duration"])
	assert.Equal(t, float64(1200), decoded["requests"].(map[string]any)["total"])
	assert.Equal(t, float64(12), decoded["latency"].(map[string]any)["p50"])
	assert.Len(t, decoded["statuses"], 2)
	assert.NotContains(t, decoded, "thresholds")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))

	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 05s", formatDuration(125*time.Second))

	assert.Equal(t, "0.50", formatLatencyMs(500*time.Microsecond))
	assert.Equal(t, "120", formatLatencyMs(120*time.Millisecond))
}
