package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.RecordResponse(200, 100*time.Millisecond)
	m.RecordResponse(200, 150*time.Millisecond)
	m.RecordResponse(302, 120*time.Millisecond)
	m.RecordResponse(500, 200*time.Millisecond)
	m.RecordError("Request failed: connection refused", 5*time.Millisecond)

	m.Stop()

	s := m.GetSummary()
	assert.Equal(t, int64(5), s.TotalRequests)
	assert.Equal(t, int64(3), s.SuccessCount)
	assert.Equal(t, int64(2), s.ErrorCount)
	assert.Equal(t, []StatusCount{
		{Status: 200, Count: 2},
		{Status: 302, Count: 1},
		{Status: 500, Count: 1},
	}, s.StatusCounts)
	assert.Equal(t, map[string]int64{"Request failed: connection refused": 1}, s.ErrorCounts)
	assert.InDelta(t, 0.6, s.SuccessRate, 1e-9)
	assert.InDelta(t, 0.4, s.ErrorRate, 1e-9)
}

func TestMetricsRecordTimeout(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.RecordResponse(200, 100*time.Millisecond)
	m.RecordTimeout()

	m.Stop()

	s := m.GetSummary()
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TimeoutCount)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.Equal(t, []StatusCount{{Status: 200, Count: 1}}, s.StatusCounts)
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()
	m.Start()
	for i := 1; i <= 100; i++ {
		m.RecordResponse(200, time.Duration(i)*time.Millisecond)
	}
	m.Stop()

	s := m.GetSummary()
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(s.P99), float64(time.Millisecond))
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(10*time.Microsecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
}

func TestClampLatency(t *testing.T) {
	assert.Equal(t, int64(minLatencyUs), clampLatency(0))
	assert.Equal(t, int64(maxLatencyUs), clampLatency(2*time.Minute))
	assert.Equal(t, int64(1500), clampLatency(1500*time.Microsecond))
}

func TestEvaluateThresholds(t *testing.T) {
	summary := &Summary{
		P50:       20 * time.Millisecond,
		P95:       150 * time.Millisecond,
		P99:       400 * time.Millisecond,
		Max:       time.Second,
		ErrorRate: 0.02,
		RPS:       80,
	}

	results := EvaluateThresholds(summary, Thresholds{
		P95:       200 * time.Millisecond,
		P99:       300 * time.Millisecond,
		ErrorRate: 0.01,
		MinRPS:    50,
	})
	require.Len(t, results, 4)

	byName := map[string]ThresholdResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.True(t, byName["p95"].Passed)
	assert.False(t, byName["p99"].Passed)
	assert.False(t, byName["error rate"].Passed)
	assert.Equal(t, "2%", byName["error rate"].Actual)
	assert.True(t, byName["min RPS"].Passed)
}
