// Package forge holds the tri-boot provisioning recipe: the canonical
// partition layout, the rendering of actions into tool invocations, and the
// orchestration that turns a device selector into a finished (or fully
// simulated) run.
package forge

import (
	"fmt"
	"sort"

	"github.com/cajunjon/TriBootForge/internal/disk"
)

// DefaultESPSize is the fixed EFI system partition size, 300 MB decimal the
// way firmware vendors size it.
const DefaultESPSize = 300 * disk.MB

// deviceBySelector maps the two recognized device selectors to block device
// names.
var deviceBySelector = map[string]string{
	"nvme": "nvme0n1",
	"sata": "sda",
}

// DeviceSelectors returns the recognized selector values, sorted.
func DeviceSelectors() []string {
	selectors := make([]string, 0, len(deviceBySelector))
	for selector := range deviceBySelector {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)
	return selectors
}

// DeviceForSelector resolves a selector (nvme, sata) to a block device
// name.
func DeviceForSelector(selector string) (string, error) {
	device, ok := deviceBySelector[selector]
	if !ok {
		return "", fmt.Errorf("unknown device selector %q (valid: nvme, sata)", selector)
	}
	return device, nil
}

// Layout returns the canonical tri-boot partition layout: a fixed EFI
// system partition followed by four regions sized proportionally to the
// remaining space. The weights are the vendor's and deliberately do not sum
// to 1; each proportional size is computed independently (see disk.Resolve).
func Layout(espSize uint64) []disk.PartitionSpec {
	return []disk.PartitionSpec{
		{
			Name:   "efi",
			Role:   disk.RoleESP,
			Sizing: disk.FixedBytes(espSize),
			Flags:  []string{"esp"},
		},
		{
			Name:   "windows",
			Role:   disk.RoleNTFS,
			Sizing: disk.Proportion(0.1667),
			Flags:  []string{"msftdata"},
		},
		{
			Name:   "linux",
			Role:   disk.RoleLVM,
			Sizing: disk.Proportion(0.4167),
			Flags:  []string{"lvm"},
		},
		{
			Name:   "shared",
			Role:   disk.RoleFAT32,
			Sizing: disk.Proportion(0.1667),
			Flags:  []string{"msftdata"},
		},
		{
			Name:   "rescue",
			Role:   disk.RoleExt,
			Sizing: disk.Proportion(0.4167),
		},
	}
}
