package executor

import (
	"bytes"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// HostRunner invokes commands directly on the host. Stderr is captured for
// the result; stdout is discarded since no tool output is ever parsed.
type HostRunner struct {
	Logger logrus.FieldLogger
}

func NewHostRunner(logger logrus.FieldLogger) *HostRunner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HostRunner{Logger: logger}
}

func (r *HostRunner) Invoke(spec CommandSpec) Result {
	var stderrBuffer bytes.Buffer

	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderrBuffer

	r.Logger.WithField("command", spec.String()).Debug("invoking external tool")

	err := cmd.Run()
	if err != nil {
		if exitError, isExitError := err.(*exec.ExitError); isExitError {
			return Result{
				ExitCode: exitError.ExitCode(),
				Stderr:   stderrBuffer.String(),
			}
		}
		// The program could not be started at all, e.g. it is not
		// installed. Report it as a failed invocation.
		return Result{
			ExitCode: -1,
			Stderr:   err.Error(),
		}
	}

	return Result{ExitCode: 0, Stderr: stderrBuffer.String()}
}
