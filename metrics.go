package emitter

import (
	"time"

	"go.uber.org/atomic"
)

// Metrics tracks connection and write statistics for one run
type Metrics struct {
	// Connection Statistics
	ConnectionAttempts atomic.Int64
	SuccessfulConnects atomic.Int64
	ConnectionFailures atomic.Int64

	// Write Operations
	WriteOperations  atomic.Int64 // Total write attempts, skipped ones included
	SuccessfulWrites atomic.Int64
	WriteErrors      atomic.Int64
	WriteTimeouts    atomic.Int64
	SkippedWrites    atomic.Int64 // failed before reaching the port
	BytesWritten     atomic.Int64
	TotalWriteTime   atomic.Int64 // ns
	MaxWriteTime     atomic.Int64 // ns

	// Transport
	DrainFailures   atomic.Int64
	TransportErrors atomic.Int64

	// Buffer Pool Metrics
	BufferPoolHits   atomic.Int64
	BufferPoolMisses atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived rates.
type MetricsSnapshot struct {
	ConnectionAttempts  int64         `json:"connection_attempts"`
	ConnectionFailures  int64         `json:"connection_failures"`
	WriteOperations     int64         `json:"write_operations"`
	SuccessfulWrites    int64         `json:"successful_writes"`
	WriteErrors         int64         `json:"write_errors"`
	WriteTimeouts       int64         `json:"write_timeouts"`
	SkippedWrites       int64         `json:"skipped_writes"`
	BytesWritten        int64         `json:"bytes_written"`
	DrainFailures       int64         `json:"drain_failures"`
	TransportErrors     int64         `json:"transport_errors"`
	WriteSuccessRate    float64       `json:"write_success_rate"`
	AverageWriteLatency time.Duration `json:"average_write_latency"`
	MaxWriteLatency     time.Duration `json:"max_write_latency"`
	BufferPoolHitRatio  float64       `json:"buffer_pool_hit_ratio"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ConnectionAttempts:  m.ConnectionAttempts.Load(),
		ConnectionFailures:  m.ConnectionFailures.Load(),
		WriteOperations:     m.WriteOperations.Load(),
		SuccessfulWrites:    m.SuccessfulWrites.Load(),
		WriteErrors:         m.WriteErrors.Load(),
		WriteTimeouts:       m.WriteTimeouts.Load(),
		SkippedWrites:       m.SkippedWrites.Load(),
		BytesWritten:        m.BytesWritten.Load(),
		DrainFailures:       m.DrainFailures.Load(),
		TransportErrors:     m.TransportErrors.Load(),
		WriteSuccessRate:    m.writeSuccessRate(),
		AverageWriteLatency: m.averageWriteLatency(),
		MaxWriteLatency:     time.Duration(m.MaxWriteTime.Load()),
		BufferPoolHitRatio:  m.bufferPoolHitRatio(),
	}
}

func (m *Metrics) recordWrite(n int, err error, duration time.Duration) {
	m.WriteOperations.Add(1)
	m.TotalWriteTime.Add(duration.Nanoseconds())

	// Update max write time
	for {
		current := m.MaxWriteTime.Load()
		if duration.Nanoseconds() <= current {
			break
		}
		if m.MaxWriteTime.CompareAndSwap(current, duration.Nanoseconds()) {
			break
		}
	}

	if err != nil {
		m.WriteErrors.Add(1)
		return
	}
	m.SuccessfulWrites.Add(1)
	m.BytesWritten.Add(int64(n))
}

// recordSkipped counts an operation that failed before it was written.
func (m *Metrics) recordSkipped() {
	m.WriteOperations.Add(1)
	m.WriteErrors.Add(1)
	m.SkippedWrites.Add(1)
}

func (m *Metrics) writeSuccessRate() float64 {
	writes := m.WriteOperations.Load()
	if writes == 0 {
		return 100.0
	}
	return float64(m.SuccessfulWrites.Load()) / float64(writes) * 100
}

// averageWriteLatency covers only writes that reached the port.
func (m *Metrics) averageWriteLatency() time.Duration {
	writes := m.WriteOperations.Load() - m.SkippedWrites.Load()
	if writes <= 0 {
		return 0
	}
	return time.Duration(m.TotalWriteTime.Load() / writes)
}

// bufferPoolHitRatio is a fraction from 0 to 1, like PoolStats.HitRatio.
func (m *Metrics) bufferPoolHitRatio() float64 {
	total := m.BufferPoolHits.Load() + m.BufferPoolMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(m.BufferPoolHits.Load()) / float64(total)
}
