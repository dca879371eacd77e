// Package history keeps the session-scoped record of successful conversions.
// Records live in memory only and vanish with the process.
package history

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/yourorg/docpress/pkg/document"
)

// DefaultLimit bounds the log when no explicit limit is configured.
const DefaultLimit = 50

// Record is one successful conversion.
type Record struct {
	ID             string        `json:"id"`
	Filename       string        `json:"filename"`
	Type           document.Type `json:"file_type"`
	InputSize      int64         `json:"size"`
	OutputSize     int64         `json:"pdf_size"`
	Pages          int           `json:"pages"`
	ConversionTime float64       `json:"conversion_time"`
	ConvertedAt    time.Time     `json:"timestamp"`
}

// SizeChangePercent reports how much smaller the PDF is than the input, as a
// percentage. Negative values mean the PDF grew.
func (r Record) SizeChangePercent() float64 {
	if r.InputSize <= 0 {
		return 0
	}
	return (1 - float64(r.OutputSize)/float64(r.InputSize)) * 100
}

// Log is a bounded, concurrency-safe conversion log. Once the limit is
// reached the oldest record is dropped for each new one.
type Log struct {
	mu      sync.RWMutex
	limit   int
	records []Record
}

// NewLog creates a log holding at most limit records.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Add appends a record, evicting the oldest when the log is full.
func (l *Log) Add(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	if len(l.records) > l.limit {
		l.records = l.records[len(l.records)-l.limit:]
	}
}

// Recent returns up to n records, newest first. n of 0 or less returns
// everything the log holds.
func (l *Log) Recent(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	newest := make([]Record, n)
	copy(newest, l.records[len(l.records)-n:])
	return lo.Reverse(newest)
}

// Len reports how many records the log holds.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
