package forge

import (
	"fmt"
	"strconv"

	"github.com/cajunjon/TriBootForge/internal/config"
	"github.com/cajunjon/TriBootForge/internal/disk"
	"github.com/cajunjon/TriBootForge/internal/executor"
	"github.com/cajunjon/TriBootForge/internal/sequence"
)

// partedFSHint maps a partition role to the filesystem hint parted's mkpart
// takes. LVM partitions carry no hint.
var partedFSHint = map[disk.Role]string{
	disk.RoleESP:   "fat32",
	disk.RoleNTFS:  "ntfs",
	disk.RoleFAT32: "fat32",
	disk.RoleExt:   "ext3",
}

// CommandMap renders actions into concrete tool invocations. All tool names
// come from the configuration so packagers can point at non-PATH locations.
type CommandMap struct {
	Config *config.Config
}

// RequiredTools lists the external programs an apply run will invoke, for
// the precondition gate.
func (m *CommandMap) RequiredTools() []string {
	tools := m.Config.Tools
	return []string{tools.Parted, tools.Dd, tools.Wimapply, tools.Efibootmgr}
}

// Render implements sequence.Renderer. node is the device node the action
// targets, without the /dev prefix; whole-disk actions receive the disk
// itself.
func (m *CommandMap) Render(action sequence.Action, plan *disk.Plan, node string) (executor.CommandSpec, error) {
	tools := m.Config.Tools

	switch a := action.(type) {
	case sequence.CreateTable:
		return executor.CommandSpec{
			Program: tools.Parted,
			Args:    []string{"-s", devPath(a.DiskID), "mklabel", "gpt"},
		}, nil

	case sequence.CreatePartition:
		part := plan.Partitions[a.Index]
		if a.End <= a.Start {
			// parted's end position is inclusive, so an empty region has no
			// representable range.
			return executor.CommandSpec{}, fmt.Errorf("partition %q is empty (start %d, end %d)", part.Name, a.Start, a.End)
		}
		args := []string{"-s", devPath(plan.Device.ID), "unit", "B", "mkpart", part.Name}
		if hint, ok := partedFSHint[a.Role]; ok {
			args = append(args, hint)
		}
		// parted takes an inclusive end position
		args = append(args, fmt.Sprintf("%dB", a.Start), fmt.Sprintf("%dB", a.End-1))
		return executor.CommandSpec{Program: tools.Parted, Args: args}, nil

	case sequence.SetFlag:
		return executor.CommandSpec{
			Program: tools.Parted,
			Args: []string{
				"-s", devPath(plan.Device.ID),
				"set", strconv.Itoa(a.Index + 1), a.Flag, "on",
			},
		}, nil

	case sequence.CopyImage:
		return executor.CommandSpec{
			Program: tools.Dd,
			Args: []string{
				"if=" + a.Source,
				"of=" + devPath(node),
				"bs=4M",
				"conv=fsync",
				"status=none",
			},
		}, nil

	case sequence.ApplyArchive:
		return executor.CommandSpec{
			Program: tools.Wimapply,
			Args:    []string{a.Source, strconv.Itoa(a.EntryIndex), devPath(node)},
		}, nil

	case sequence.RegisterBootEntry:
		return executor.CommandSpec{
			Program: tools.Efibootmgr,
			Args: []string{
				"--create",
				"--disk", devPath(plan.Device.ID),
				"--part", strconv.Itoa(a.Index + 1),
				"--label", a.Label,
				"--loader", a.LoaderPath,
			},
		}, nil
	}

	return executor.CommandSpec{}, fmt.Errorf("no command mapping for action %s", action)
}

func devPath(node string) string {
	return "/dev/" + node
}
