// Disk package contains abstract data-types to define disk-related entities.
//
// DeviceInfo, PartitionSpec and Plan are currently defined. A Plan is the
// resolved, non-overlapping byte layout of a device and is produced by
// Resolve from a device and an ordered sequence of PartitionSpecs.
package disk

const (
	// DefaultSectorSize is the unit sysfs reports block device sizes in.
	DefaultSectorSize = 512

	MiB = 1024 * 1024
	GiB = 1024 * MiB

	// Decimal units, used by partition plans expressed in vendor sizes.
	MB = 1000 * 1000
	GB = 1000 * MB
)

// DeviceInfo describes the device a plan is resolved against. It is supplied
// by the caller (see platform.Discovery); the planner never probes hardware
// itself.
type DeviceInfo struct {
	ID   string // Platform device name, e.g. nvme0n1, sda.
	Size uint64 // Total capacity in bytes.
}

// Role describes what a partition will hold, e.g. the EFI system partition
// or a Windows data filesystem. It selects the partition type code when the
// plan is rendered into partitioning-tool arguments.
type Role string

const (
	RoleESP   Role = "esp"
	RoleNTFS  Role = "ntfs-data"
	RoleLVM   Role = "lvm-data"
	RoleFAT32 Role = "fat32-data"
	RoleExt   Role = "ext-data"
)

// Sizing selects how a partition's size is computed: either a fixed number
// of bytes, or a proportion of the space remaining once all fixed-size
// partitions are subtracted from the device capacity.
type Sizing struct {
	bytes        uint64
	weight       float64
	proportional bool
}

// FixedBytes returns a Sizing for a partition of exactly n bytes.
func FixedBytes(n uint64) Sizing {
	return Sizing{bytes: n}
}

// Proportion returns a Sizing for a partition sized as weight times the
// remaining space. Resolve rejects weights outside (0, 1].
func Proportion(weight float64) Sizing {
	return Sizing{weight: weight, proportional: true}
}

func (s Sizing) IsProportional() bool {
	return s.proportional
}

func (s Sizing) FixedSize() uint64 {
	return s.bytes
}

func (s Sizing) Weight() float64 {
	return s.weight
}

// PartitionSpec is one row of a desired layout. The order of specs passed to
// Resolve is significant: regions are laid out consecutively in that order.
type PartitionSpec struct {
	Name   string // Unique within a plan.
	Role   Role
	Sizing Sizing
	Flags  []string // Partition flags, e.g. esp, msftdata, lvm.
}

// ResolvedPartition is one region of a resolved plan. Start is inclusive,
// End exclusive.
type ResolvedPartition struct {
	Name  string
	Role  Role
	Start uint64
	End   uint64
	Flags []string
}

// Size returns the region size in bytes.
func (p *ResolvedPartition) Size() uint64 {
	return p.End - p.Start
}

// Plan is the resolved layout for one device. It is immutable once produced;
// the sequencer reads it but never mutates it.
type Plan struct {
	Device     DeviceInfo
	UUID       string // Unique identifier of the partition table (GPT).
	Partitions []ResolvedPartition
}

// Returns the index of the EFI system partition, or -1 if the plan has no
// partition with the ESP role.
func (pl *Plan) ESPIndex() int {
	for idx := range pl.Partitions {
		if pl.Partitions[idx].Role == RoleESP {
			return idx
		}
	}
	return -1
}
