package bench

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects and aggregates bench metrics
type Metrics struct {
	mu sync.RWMutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64
	inFlight        atomic.Int32

	// Latency histogram in microseconds
	histogram *hdrhistogram.Histogram

	statusCounts map[int]int64
	errorCounts  map[string]int64

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		// 1us to 60s, 3 significant digits
		histogram:    hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statusCounts: make(map[int]int64),
		errorCounts:  make(map[string]int64),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

// RecordResponse records a completed response. Statuses of 400 and above
// count as errors.
func (m *Metrics) RecordResponse(status int, duration time.Duration) {
	m.totalRequests.Add(1)
	if status >= 400 {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCounts[status]++
	_ = m.histogram.RecordValue(clampLatency(duration))
}

// RecordError records a failed execution with its message.
func (m *Metrics) RecordError(message string, duration time.Duration) {
	m.totalRequests.Add(1)
	m.errorRequests.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCounts[message]++
	_ = m.histogram.RecordValue(clampLatency(duration))
}

// RecordTimeout records a timeout. Timeouts are not part of the latency
// histogram.
func (m *Metrics) RecordTimeout() {
	m.totalRequests.Add(1)
	m.timeoutRequests.Add(1)
	m.errorRequests.Add(1)
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

// Summary is the final report of a run
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	P50    time.Duration
	P90    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	StatusCounts []StatusCount
	ErrorCounts  map[string]int64
}

// StatusCount is the number of responses with one status code.
type StatusCount struct {
	Status int   `json:"status"`
	Count  int64 `json:"count"`
}

func (m *Metrics) quantile(q float64) time.Duration {
	return time.Duration(m.histogram.ValueAtQuantile(q)) * time.Microsecond
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errors := m.errorRequests.Load()

	summary := &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  success,
		ErrorCount:    errors,
		TimeoutCount:  m.timeoutRequests.Load(),
		P50:           m.quantile(50),
		P90:           m.quantile(90),
		P95:           m.quantile(95),
		P99:           m.quantile(99),
		Min:           time.Duration(m.histogram.Min()) * time.Microsecond,
		Max:           time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:          time.Duration(m.histogram.Mean()) * time.Microsecond,
		StdDev:        time.Duration(m.histogram.StdDev()) * time.Microsecond,
		ErrorCounts:   make(map[string]int64, len(m.errorCounts)),
	}

	if duration.Seconds() > 0 {
		summary.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		summary.SuccessRate = float64(success) / float64(total)
		summary.ErrorRate = float64(errors) / float64(total)
	}

	for status, count := range m.statusCounts {
		summary.StatusCounts = append(summary.StatusCounts, StatusCount{Status: status, Count: count})
	}
	sort.Slice(summary.StatusCounts, func(i, j int) bool {
		return summary.StatusCounts[i].Status < summary.StatusCounts[j].Status
	})
	for msg, count := range m.errorCounts {
		summary.ErrorCounts[msg] = count
	}

	return summary
}

// CurrentStats is a live view used for progress display
type CurrentStats struct {
	Elapsed   time.Duration
	Total     int64
	Errors    int64
	RPS       float64
	P50       time.Duration
	P99       time.Duration
	InFlight  int32
	ErrorRate float64
}

// GetCurrentStats returns current statistics
func (m *Metrics) GetCurrentStats() CurrentStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.startTime)
	total := m.totalRequests.Load()
	errors := m.errorRequests.Load()

	stats := CurrentStats{
		Elapsed:  elapsed,
		Total:    total,
		Errors:   errors,
		P50:      m.quantile(50),
		P99:      m.quantile(99),
		InFlight: m.inFlight.Load(),
	}
	if elapsed.Seconds() > 0 {
		stats.RPS = float64(total) / elapsed.Seconds()
	}
	if total > 0 {
		stats.ErrorRate = float64(errors) / float64(total)
	}
	return stats
}

// EvaluateThresholds evaluates the thresholds against the summary
func EvaluateThresholds(summary *Summary, t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	latency := func(name string, limit, actual time.Duration) {
		if limit <= 0 {
			return
		}
		results = append(results, ThresholdResult{
			Name:     name,
			Passed:   actual <= limit,
			Expected: "< " + limit.String(),
			Actual:   actual.String(),
		})
	}

	latency("p50", t.P50, summary.P50)
	latency("p95", t.P95, summary.P95)
	latency("p99", t.P99, summary.P99)
	latency("max latency", t.MaxLatency, summary.Max)

	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   summary.ErrorRate <= t.ErrorRate,
			Expected: formatPercent(t.ErrorRate),
			Actual:   formatPercent(summary.ErrorRate),
		})
	}

	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   summary.RPS >= t.MinRPS,
			Expected: "> " + formatFloat(t.MinRPS),
			Actual:   formatFloat(summary.RPS),
		})
	}

	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
