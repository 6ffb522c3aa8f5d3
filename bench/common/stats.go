package common

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats tracks throughput and latency for one benchmark phase.
type Stats struct {
	mu        sync.Mutex
	phase     string
	startTime time.Time
	endTime   time.Time

	messages int64
	bytes    int64
	errors   int64

	// HDR histogram for latency tracking (in nanoseconds)
	// Range: 1 nanosecond to 10 seconds, 3 significant figures
	latencyHist *hdrhistogram.Histogram
}

// NewStats creates a new Stats instance for the named phase.
func NewStats(phase string) *Stats {
	return &Stats{
		phase:       phase,
		latencyHist: hdrhistogram.New(1, int64(10*time.Second), 3),
	}
}

// Phase returns the phase name.
func (s *Stats) Phase() string {
	return s.phase
}

// Start begins the timing period.
func (s *Stats) Start() {
	s.startTime = time.Now()
}

// Stop ends the timing period.
func (s *Stats) Stop() {
	s.endTime = time.Now()
}

// RecordMessage records a processed message with its encoded byte size.
func (s *Stats) RecordMessage(bytes int) {
	atomic.AddInt64(&s.messages, 1)
	atomic.AddInt64(&s.bytes, int64(bytes))
}

// RecordLatency records a latency measurement. Values outside the histogram
// range count as errors.
func (s *Stats) RecordLatency(d time.Duration) {
	s.mu.Lock()
	err := s.latencyHist.RecordValue(d.Nanoseconds())
	s.mu.Unlock()
	if err != nil {
		s.RecordError()
	}
}

// RecordError increments the error counter.
func (s *Stats) RecordError() {
	atomic.AddInt64(&s.errors, 1)
}

// Duration returns the phase duration.
func (s *Stats) Duration() time.Duration {
	return s.endTime.Sub(s.startTime)
}

// Messages returns the number of processed messages.
func (s *Stats) Messages() int64 {
	return atomic.LoadInt64(&s.messages)
}

// Bytes returns the number of encoded bytes processed.
func (s *Stats) Bytes() int64 {
	return atomic.LoadInt64(&s.bytes)
}

// Errors returns the total error count.
func (s *Stats) Errors() int64 {
	return atomic.LoadInt64(&s.errors)
}

// MessagesPerSecond calculates the message throughput.
func (s *Stats) MessagesPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Messages()) / duration
}

// BytesPerSecond calculates the byte throughput.
func (s *Stats) BytesPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Bytes()) / duration
}

// MBPerSecond calculates the MB/s throughput.
func (s *Stats) MBPerSecond() float64 {
	return s.BytesPerSecond() / 1024 / 1024
}

// LatencyPercentile returns the latency at a given percentile.
func (s *Stats) LatencyPercentile(p float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.latencyHist.ValueAtQuantile(p))
}

// LatencyMean returns the mean latency.
func (s *Stats) LatencyMean() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.latencyHist.Mean())
}

// LatencyMin returns the minimum latency recorded.
func (s *Stats) LatencyMin() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.latencyHist.Min())
}

// LatencyMax returns the maximum latency recorded.
func (s *Stats) LatencyMax() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.latencyHist.Max())
}

// LatencyCount returns the number of latency samples recorded.
func (s *Stats) LatencyCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latencyHist.TotalCount()
}
