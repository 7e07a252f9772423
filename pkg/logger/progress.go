package logger

import (
	"fmt"
	"sync"
	"time"
)

// StageTracker logs the stages of a pipeline run with elapsed times
type StageTracker struct {
	logger    Logger
	operation string
	startTime time.Time
	lastMark  time.Time
	stages    []StageStats
	mutex     sync.Mutex
}

// StageStats describes one finished stage
type StageStats struct {
	Stage    string        `json:"stage"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
}

// String returns a human-readable representation of the stage
func (s StageStats) String() string {
	return fmt.Sprintf("%s: %d records in %v", s.Stage, s.Records, s.Duration)
}

// NewStageTracker creates a tracker and logs the start of the operation
func NewStageTracker(operation string, logger Logger) *StageTracker {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	now := time.Now()
	tracker := &StageTracker{
		logger:    logger.WithComponent("pipeline").WithField("operation", operation),
		operation: operation,
		startTime: now,
		lastMark:  now,
	}

	tracker.logger.Debug("Starting operation")
	return tracker
}

// Stage records the end of a stage that began at the previous mark
func (t *StageTracker) Stage(stage string, records int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := time.Now()
	stats := StageStats{
		Stage:    stage,
		Records:  records,
		Duration: now.Sub(t.lastMark),
	}
	t.stages = append(t.stages, stats)
	t.lastMark = now

	t.logger.WithFields(Fields{
		"stage":    stage,
		"records":  records,
		"duration": stats.Duration.String(),
	}).Debug("Stage completed")
}

// Complete logs the total duration of the operation
func (t *StageTracker) Complete() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.logger.WithFields(Fields{
		"stages":   len(t.stages),
		"duration": time.Since(t.startTime).String(),
	}).Info("Operation completed")
}

// CompleteWithError logs the failure along with the last completed stage
func (t *StageTracker) CompleteWithError(err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	fields := Fields{
		"stages":   len(t.stages),
		"duration": time.Since(t.startTime).String(),
	}
	if len(t.stages) > 0 {
		fields["last_stage"] = t.stages[len(t.stages)-1].Stage
	}

	t.logger.WithError(err).WithFields(fields).Error("Operation completed with error")
}

// Stages returns a copy of the finished stages
func (t *StageTracker) Stages() []StageStats {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	out := make([]StageStats, len(t.stages))
	copy(out, t.stages)
	return out
}

// TimedOperation executes a function and logs timing information
func TimedOperation(operation string, logger Logger, fn func() error) error {
	tracker := NewStageTracker(operation, logger)

	err := fn()
	if err != nil {
		tracker.CompleteWithError(err)
	} else {
		tracker.Complete()
	}

	return err
}
