package outbound

import (
	"errors"
	"time"
)

var (
	// ErrTxDone is returned by a unit of work after Commit or Rollback
	ErrTxDone = errors.New("unit of work already committed or rolled back")

	// ErrCacheMiss is returned by CacheRepository.Get for absent keys
	ErrCacheMiss = errors.New("cache miss")
)

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) RecordResolution(string, string)   {}
func (NopMetrics) ObserveTier(string, time.Duration) {}
func (NopMetrics) RecordFeasibility(string)          {}
func (NopMetrics) RecordCook(string)                 {}
func (NopMetrics) RecordDeductions(int)              {}
