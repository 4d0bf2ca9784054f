package sequence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cajunjon/TriBootForge/internal/executor"
)

func getOutcomeMapping() []string {
	return []string{"SUCCEEDED", "FAILED", "SKIPPED_DRY_RUN"}
}

// Outcome of one executed (or skipped) action.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeSkippedDryRun
)

// ToString converts an Outcome into a human readable string
func (o Outcome) ToString() string {
	return getOutcomeMapping()[int(o)]
}

// UnmarshalJSON converts a JSON string into an Outcome
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var stringInput string
	err := json.Unmarshal(data, &stringInput)
	if err != nil {
		return err
	}
	for n, str := range getOutcomeMapping() {
		if str == stringInput {
			*o = Outcome(n)
			return nil
		}
	}
	return fmt.Errorf("invalid outcome: %s", stringInput)
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(getOutcomeMapping()[o])
}

// ExecutionResult records how one action went. Command always carries the
// rendered invocation, also for skipped actions, so a dry run leaves a full
// audit trail of what would have been issued.
type ExecutionResult struct {
	Action    Action               `json:"action"`
	Outcome   Outcome              `json:"outcome"`
	Reason    string               `json:"reason,omitempty"`
	Command   executor.CommandSpec `json:"command"`
	Timestamp time.Time            `json:"timestamp"`
}
