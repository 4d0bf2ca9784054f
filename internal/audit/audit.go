// Package audit provides append-only consumers for execution results. Sinks
// are injected into the sequencer; there is no process-wide log handle.
package audit

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cajunjon/TriBootForge/internal/sequence"
)

// LogSink writes one structured log entry per result.
type LogSink struct {
	Logger logrus.FieldLogger
}

func NewLogSink(logger logrus.FieldLogger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Record(res sequence.ExecutionResult) {
	entry := s.Logger.WithFields(logrus.Fields{
		"action":  res.Action.String(),
		"outcome": res.Outcome.ToString(),
		"command": res.Command.String(),
	})
	switch res.Outcome {
	case sequence.OutcomeFailed:
		entry.WithField("reason", res.Reason).Error("action failed")
	case sequence.OutcomeSkippedDryRun:
		entry.Info("action skipped (dry run)")
	default:
		entry.Info("action succeeded")
	}
}

// MemorySink accumulates results in memory, for tests and for the CLI's
// end-of-run summary.
type MemorySink struct {
	mu      sync.Mutex
	results []sequence.ExecutionResult
}

func (s *MemorySink) Record(res sequence.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
}

// Results returns a copy of everything recorded so far.
func (s *MemorySink) Results() []sequence.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sequence.ExecutionResult(nil), s.results...)
}

// Tee fans one result out to several sinks in order.
type Tee []sequence.Sink

func (t Tee) Record(res sequence.ExecutionResult) {
	for _, sink := range t {
		sink.Record(res)
	}
}
