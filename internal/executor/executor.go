// Package executor runs fully rendered external commands on behalf of the
// sequencer. Commands carry an explicit argument list and are never passed
// through a shell.
package executor

import (
	"strconv"
	"strings"
)

// CommandSpec is one external-command invocation: the program name plus its
// arguments. Specs are opaque to the sequencer; only the runner interprets
// them.
type CommandSpec struct {
	Program string
	Args    []string
}

// String renders the spec the way it would appear on a command line. Used
// for audit records, never for execution.
func (c CommandSpec) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Result of one command invocation.
//
// Note that a non-zero exit from the tool is not a Go error. The failure is
// communicated through the exit code and captured stderr; only failing to
// start the program at all is reported the same way, with ExitCode -1.
type Result struct {
	ExitCode int
	Stderr   string
}

// Failed returns whether the invocation did not complete successfully.
func (r Result) Failed() bool {
	return r.ExitCode != 0
}

// Reason returns a human-readable failure description, or "" on success.
func (r Result) Reason() string {
	if !r.Failed() {
		return ""
	}
	reason := strings.TrimSpace(r.Stderr)
	if reason == "" {
		return "exit code " + strconv.Itoa(r.ExitCode)
	}
	return reason
}

// Runner executes a command and reports its outcome. The sequencer treats
// implementations as a black box and never parses tool stdout.
type Runner interface {
	Invoke(spec CommandSpec) Result
}
