package forge

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cajunjon/TriBootForge/internal/audit"
	"github.com/cajunjon/TriBootForge/internal/config"
	"github.com/cajunjon/TriBootForge/internal/disk"
	"github.com/cajunjon/TriBootForge/internal/executor"
	"github.com/cajunjon/TriBootForge/internal/image"
	"github.com/cajunjon/TriBootForge/internal/platform"
	"github.com/cajunjon/TriBootForge/internal/sequence"
)

// Options configures one provisioning run. The capability fields default to
// the host implementations when nil; tests inject fakes.
type Options struct {
	DeviceSelector string // nvme or sata
	DryRun         bool
	Config         *config.Config
	Logger         logrus.FieldLogger

	Discovery platform.Discovery
	Runner    executor.Runner
	Gate      sequence.Gate
	Namer     sequence.PartitionNamer
	Validator image.Validator
	Sink      sequence.Sink
}

// Report is what a run hands back to the operator: the resolved plan, every
// result produced before completion or halt, and the halting action index
// (-1 when the run completed).
type Report struct {
	Plan     *disk.Plan
	Results  []sequence.ExecutionResult
	HaltedAt int
}

// BuildActions renders the full provisioning sequence for a resolved plan:
// fresh partition table, one partition plus flags per region, the three OS
// payloads, and the three firmware boot entries. Actions reference
// partitions by plan index only.
func BuildActions(plan *disk.Plan, cfg *config.Config) ([]sequence.Action, error) {
	actions := []sequence.Action{
		sequence.CreateTable{DiskID: plan.Device.ID},
	}
	for idx := range plan.Partitions {
		part := plan.Partitions[idx]
		actions = append(actions, sequence.CreatePartition{
			Index: idx,
			Role:  part.Role,
			Start: part.Start,
			End:   part.End,
		})
		for _, flag := range part.Flags {
			actions = append(actions, sequence.SetFlag{Index: idx, Flag: flag})
		}
	}

	indexOf := func(role disk.Role) (int, error) {
		for idx := range plan.Partitions {
			if plan.Partitions[idx].Role == role {
				return idx, nil
			}
		}
		return 0, fmt.Errorf("layout has no %s partition", role)
	}

	windows, err := indexOf(disk.RoleNTFS)
	if err != nil {
		return nil, err
	}
	linux, err := indexOf(disk.RoleLVM)
	if err != nil {
		return nil, err
	}
	rescue, err := indexOf(disk.RoleExt)
	if err != nil {
		return nil, err
	}
	esp := plan.ESPIndex()
	if esp < 0 {
		return nil, fmt.Errorf("layout has no EFI system partition")
	}

	actions = append(actions,
		sequence.ApplyArchive{Source: cfg.Images.WindowsWIM, Index: windows, EntryIndex: cfg.WindowsImageIndex},
		sequence.CopyImage{Source: cfg.Images.LinuxISO, Index: linux},
		sequence.CopyImage{Source: cfg.Images.RescueISO, Index: rescue},
		sequence.RegisterBootEntry{Index: esp, Label: cfg.Boot.WindowsLabel, LoaderPath: cfg.Boot.WindowsLoader},
		sequence.RegisterBootEntry{Index: esp, Label: cfg.Boot.LinuxLabel, LoaderPath: cfg.Boot.LinuxLoader},
		sequence.RegisterBootEntry{Index: esp, Label: cfg.Boot.RescueLabel, LoaderPath: cfg.Boot.RescueLoader},
	)

	return actions, nil
}

// Provision runs the whole pipeline: resolve the device, plan the geometry,
// validate the images, and sequence the actions. A dry run stops at nothing
// external: no gate, no validation, no tool invocation.
func Provision(opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.LoadConfig("")
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	commandMap := &CommandMap{Config: cfg}

	discovery := opts.Discovery
	if discovery == nil {
		discovery = &platform.SysfsDiscovery{}
	}
	runner := opts.Runner
	if runner == nil {
		runner = executor.NewHostRunner(logger)
	}
	gate := opts.Gate
	if gate == nil {
		gate = platform.NewHostGate(commandMap.RequiredTools()...)
	}
	namer := opts.Namer
	if namer == nil {
		namer = platform.LinuxNamer{}
	}
	validator := opts.Validator
	if validator == nil {
		validator = image.BootSignatureValidator{}
	}
	sink := opts.Sink
	if sink == nil {
		sink = audit.NewLogSink(logger)
	}

	diskID, err := DeviceForSelector(opts.DeviceSelector)
	if err != nil {
		return nil, err
	}
	device, err := discovery.FindDevice(diskID)
	if err != nil {
		return nil, err
	}

	espSize, err := cfg.ESPSizeBytes(DefaultESPSize)
	if err != nil {
		return nil, err
	}
	plan, err := disk.Resolve(device, Layout(espSize))
	if err != nil {
		return nil, err
	}
	/* #nosec G404 */
	plan.GenerateUUID(rand.New(rand.NewSource(time.Now().UnixNano())))

	logger.WithFields(logrus.Fields{
		"device":     device.ID,
		"capacity":   device.Size,
		"plan":       plan.UUID,
		"partitions": len(plan.Partitions),
	}).Info("geometry resolved")
	for idx := range plan.Partitions {
		part := &plan.Partitions[idx]
		logger.WithFields(logrus.Fields{
			"name":  part.Name,
			"role":  part.Role,
			"start": part.Start,
			"size":  part.Size(),
		}).Debug("partition resolved")
	}

	if !opts.DryRun {
		for _, path := range []string{cfg.Images.WindowsWIM, cfg.Images.LinuxISO, cfg.Images.RescueISO} {
			if err := validator.Validate(path); err != nil {
				return nil, fmt.Errorf("image validation: %w", err)
			}
		}
	}

	actions, err := BuildActions(plan, cfg)
	if err != nil {
		return nil, err
	}

	sequencer := &sequence.Sequencer{
		Runner:   runner,
		Renderer: commandMap,
		Namer:    namer,
		Gate:     gate,
		Sink:     sink,
		Logger:   logger,
	}

	mode := sequence.ModeApply
	if opts.DryRun {
		mode = sequence.ModeDryRun
	}

	results, runErr := sequencer.Run(plan, actions, mode)
	report := &Report{Plan: plan, Results: results, HaltedAt: -1}
	if runErr != nil {
		if actionErr, isActionErr := runErr.(*sequence.ActionError); isActionErr {
			report.HaltedAt = actionErr.Index
		}
		return report, runErr
	}
	return report, nil
}
