package forge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cajunjon/TriBootForge/internal/audit"
	"github.com/cajunjon/TriBootForge/internal/config"
	"github.com/cajunjon/TriBootForge/internal/disk"
	"github.com/cajunjon/TriBootForge/internal/executor"
	"github.com/cajunjon/TriBootForge/internal/sequence"
)

type stubDiscovery struct {
	device disk.DeviceInfo
}

func (d stubDiscovery) FindDevice(id string) (disk.DeviceInfo, error) {
	if id != d.device.ID {
		return disk.DeviceInfo{}, fmt.Errorf("no such device: %s", id)
	}
	return d.device, nil
}

type stubRunner struct {
	invoked []executor.CommandSpec
	failAt  int
}

func (r *stubRunner) Invoke(spec executor.CommandSpec) executor.Result {
	idx := len(r.invoked)
	r.invoked = append(r.invoked, spec)
	if idx == r.failAt {
		return executor.Result{ExitCode: 1, Stderr: "parted: device busy"}
	}
	return executor.Result{}
}

type stubGate struct{ err error }

func (g stubGate) Check() error { return g.err }

type stubValidator struct{ err error }

func (v stubValidator) Validate(string) error { return v.err }

func testOptions(runner *stubRunner) Options {
	cfg, _ := config.LoadConfig("")
	return Options{
		DeviceSelector: "nvme",
		Config:         cfg,
		Discovery:      stubDiscovery{device: disk.DeviceInfo{ID: "nvme0n1", Size: 1000 * disk.GB}},
		Runner:         runner,
		Gate:           stubGate{},
		Validator:      stubValidator{},
		Sink:           &audit.MemorySink{},
	}
}

func TestBuildActions(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	plan, err := disk.Resolve(disk.DeviceInfo{ID: "nvme0n1", Size: 1000 * disk.GB}, Layout(DefaultESPSize))
	require.NoError(t, err)

	actions, err := BuildActions(plan, cfg)
	require.NoError(t, err)

	// 1 table, 5 partitions, 4 flags, 3 payloads, 3 boot entries
	require.Len(t, actions, 16)
	assert.IsType(t, sequence.CreateTable{}, actions[0])

	var bootEntries int
	for _, action := range actions {
		if entry, isEntry := action.(sequence.RegisterBootEntry); isEntry {
			bootEntries++
			// boot entries always target the ESP
			assert.Equal(t, 0, entry.Index)
		}
	}
	assert.Equal(t, 3, bootEntries)
}

func TestProvisionDryRun(t *testing.T) {
	runner := &stubRunner{failAt: -1}
	opts := testOptions(runner)
	opts.DryRun = true
	// a failing validator must not matter in a dry run
	opts.Validator = stubValidator{err: errors.New("unreadable")}
	sink := opts.Sink.(*audit.MemorySink)

	report, err := Provision(opts)
	require.NoError(t, err)
	assert.Empty(t, runner.invoked)
	assert.Equal(t, -1, report.HaltedAt)
	require.Len(t, report.Results, 16)
	for _, res := range report.Results {
		assert.Equal(t, sequence.OutcomeSkippedDryRun, res.Outcome)
		assert.NotEmpty(t, res.Command.Program)
	}
	assert.Len(t, sink.Results(), 16)
}

func TestProvisionApply(t *testing.T) {
	runner := &stubRunner{failAt: -1}

	report, err := Provision(testOptions(runner))
	require.NoError(t, err)
	assert.Equal(t, -1, report.HaltedAt)
	assert.Len(t, runner.invoked, 16)
	// first invocation lays down the partition table
	assert.Equal(t, []string{"-s", "/dev/nvme0n1", "mklabel", "gpt"}, runner.invoked[0].Args)
}

func TestProvisionHalts(t *testing.T) {
	runner := &stubRunner{failAt: 6}

	report, err := Provision(testOptions(runner))
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 6, report.HaltedAt)
	require.Len(t, report.Results, 7)
	assert.Equal(t, sequence.OutcomeFailed, report.Results[6].Outcome)
	assert.Len(t, runner.invoked, 7)
}

func TestProvisionImageValidationFailure(t *testing.T) {
	runner := &stubRunner{failAt: -1}
	opts := testOptions(runner)
	opts.Validator = stubValidator{err: errors.New("no boot signature")}

	_, err := Provision(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image validation")
	assert.Empty(t, runner.invoked)
}

func TestProvisionUnknownSelector(t *testing.T) {
	opts := testOptions(&stubRunner{failAt: -1})
	opts.DeviceSelector = "floppy"
	_, err := Provision(opts)
	assert.Error(t, err)
}

func TestProvisionPreconditionFailure(t *testing.T) {
	runner := &stubRunner{failAt: -1}
	opts := testOptions(runner)
	opts.Gate = stubGate{err: errors.New("not root")}

	report, err := Provision(opts)
	assert.ErrorIs(t, err, sequence.ErrPreconditionFailed)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	assert.Empty(t, runner.invoked)
}
