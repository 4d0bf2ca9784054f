package sequence

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cajunjon/TriBootForge/internal/disk"
	"github.com/cajunjon/TriBootForge/internal/executor"
)

// Mode selects whether a run applies its actions or only records them.
type Mode int

const (
	ModeApply Mode = iota
	ModeDryRun
)

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "apply"
}

var (
	// ErrPreconditionFailed is returned when the gate reports the host is
	// not ready; no action has been executed.
	ErrPreconditionFailed = errors.New("precondition check failed")

	// ErrUnresolvedPartition is returned when an action references an
	// index outside the plan; the offending action is never invoked.
	ErrUnresolvedPartition = errors.New("action references a partition outside the plan")
)

// ActionError is the terminal failure of an apply run: the command for the
// action at Index was invoked and failed.
type ActionError struct {
	Index  int
	Action Action
	Reason string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d (%s) failed: %s", e.Index, e.Action, e.Reason)
}

// Gate is checked once, before the first action of an apply run. It covers
// privilege elevation and required-tool presence.
type Gate interface {
	Check() error
}

// PartitionNamer resolves a partition index to the concrete node name for
// the platform's naming convention, e.g. (nvme0n1, 2) -> nvme0n1p3.
type PartitionNamer interface {
	PartitionNode(diskID string, index int) string
}

// Renderer turns an action into the external command that applies it. node
// is the device node the action targets: the whole disk for CreateTable,
// the resolved partition otherwise.
type Renderer interface {
	Render(action Action, plan *disk.Plan, node string) (executor.CommandSpec, error)
}

// Sink consumes execution results as they are produced, one call per
// result. Sinks never feed back into the run.
type Sink interface {
	Record(ExecutionResult)
}

// Sequencer executes actions strictly in the order supplied. It never
// reorders or parallelizes: partitioning and imaging tools are stateful
// relative to the disk layout, so each action depends on the state left
// behind by the one before it.
type Sequencer struct {
	Runner   executor.Runner
	Renderer Renderer
	Namer    PartitionNamer
	Gate     Gate
	Sink     Sink
	Logger   logrus.FieldLogger
}

// Run executes actions against plan.
//
// In ModeDryRun no command is invoked and the gate is not checked; every
// action is recorded as skipped together with the command it would have
// issued. In ModeApply the first failed command halts the run: the returned
// results hold the successes plus that single terminal failure, and the
// error is an *ActionError carrying the halting index. The sequencer does
// not retry, roll back, or clean up — a halted run leaves the disk in an
// untrusted state and must be fully replanned by the caller.
func (s *Sequencer) Run(plan *disk.Plan, actions []Action, mode Mode) ([]ExecutionResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if mode == ModeApply && s.Gate != nil {
		if err := s.Gate.Check(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"device":  plan.Device.ID,
		"actions": len(actions),
		"mode":    mode.String(),
	}).Info("sequencing")

	results := make([]ExecutionResult, 0, len(actions))
	for idx, action := range actions {
		node, err := s.resolveTarget(plan, action)
		if err != nil {
			return results, fmt.Errorf("action %d (%s): %w", idx, action, err)
		}
		command, err := s.Renderer.Render(action, plan, node)
		if err != nil {
			return results, fmt.Errorf("action %d (%s): %w", idx, action, err)
		}

		if mode == ModeDryRun {
			results = s.appendResult(results, ExecutionResult{
				Action:    action,
				Outcome:   OutcomeSkippedDryRun,
				Command:   command,
				Timestamp: time.Now(),
			})
			continue
		}

		outcome := s.Runner.Invoke(command)
		if outcome.Failed() {
			reason := outcome.Reason()
			results = s.appendResult(results, ExecutionResult{
				Action:    action,
				Outcome:   OutcomeFailed,
				Reason:    reason,
				Command:   command,
				Timestamp: time.Now(),
			})
			logger.WithField("action", action.String()).Error("halting run: ", reason)
			return results, &ActionError{Index: idx, Action: action, Reason: reason}
		}

		results = s.appendResult(results, ExecutionResult{
			Action:    action,
			Outcome:   OutcomeSucceeded,
			Command:   command,
			Timestamp: time.Now(),
		})
	}

	return results, nil
}

func (s *Sequencer) appendResult(results []ExecutionResult, res ExecutionResult) []ExecutionResult {
	if s.Sink != nil {
		s.Sink.Record(res)
	}
	return append(results, res)
}

func (s *Sequencer) resolveTarget(plan *disk.Plan, action Action) (string, error) {
	idx := action.TargetIndex()
	if idx == WholeDisk {
		return plan.Device.ID, nil
	}
	if idx < 0 || idx >= len(plan.Partitions) {
		return "", fmt.Errorf("%w: index %d, plan has %d partitions", ErrUnresolvedPartition, idx, len(plan.Partitions))
	}
	return s.Namer.PartitionNode(plan.Device.ID, idx), nil
}
