package platform

import (
	"strconv"
)

// LinuxNamer resolves plan indexes to Linux partition node names. Devices
// whose name ends in a digit (nvme0n1, mmcblk0, loop0) take a "p" separator
// before the partition number; classic sd/vd devices do not.
type LinuxNamer struct{}

func (LinuxNamer) PartitionNode(diskID string, index int) string {
	number := strconv.Itoa(index + 1)
	if diskID != "" && diskID[len(diskID)-1] >= '0' && diskID[len(diskID)-1] <= '9' {
		return diskID + "p" + number
	}
	return diskID + number
}
