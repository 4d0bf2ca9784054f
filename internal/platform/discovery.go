// Package platform supplies the host-specific capabilities the core depends
// on: block-device discovery, partition node naming, and the privilege and
// tooling checks gating an apply run.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cajunjon/TriBootForge/internal/disk"
)

// ErrDeviceNotFound is returned when the requested block device does not
// exist on this host.
var ErrDeviceNotFound = errors.New("block device not found")

// Discovery locates a block device and reports its capacity.
type Discovery interface {
	FindDevice(id string) (disk.DeviceInfo, error)
}

// SysfsDiscovery reads device capacities from sysfs. The size attribute is
// reported in 512-byte units regardless of the device's logical sector
// size.
type SysfsDiscovery struct {
	// Root of the block hierarchy, /sys/block when empty. Tests point it
	// at a synthetic tree.
	Root string
}

func (d *SysfsDiscovery) FindDevice(id string) (disk.DeviceInfo, error) {
	root := d.Root
	if root == "" {
		root = "/sys/block"
	}

	sizePath := filepath.Join(root, id, "size")
	raw, err := os.ReadFile(sizePath)
	if err != nil {
		if os.IsNotExist(err) {
			return disk.DeviceInfo{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
		}
		return disk.DeviceInfo{}, fmt.Errorf("reading %s: %w", sizePath, err)
	}

	sectors, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return disk.DeviceInfo{}, fmt.Errorf("malformed size for %s: %w", id, err)
	}

	return disk.DeviceInfo{ID: id, Size: sectors * disk.DefaultSectorSize}, nil
}
