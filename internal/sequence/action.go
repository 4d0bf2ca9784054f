// Package sequence turns a resolved disk plan plus a list of declarative
// actions into an ordered, audited run of external-tool invocations.
package sequence

import (
	"fmt"

	"github.com/cajunjon/TriBootForge/internal/disk"
)

// WholeDisk marks an action that targets the disk rather than a single
// partition.
const WholeDisk = -1

// Action is one declarative provisioning step. Actions reference partitions
// by their index into the plan, never by device path; the sequencer resolves
// the concrete node name exactly once, through the injected PartitionNamer.
type Action interface {
	// TargetIndex returns the plan index the action applies to, or
	// WholeDisk.
	TargetIndex() int
	fmt.Stringer
}

// CreateTable writes a fresh partition table to the disk. It is emitted at
// most once per disk id; idempotence across runs is the caller's concern.
type CreateTable struct {
	DiskID string
}

func (a CreateTable) TargetIndex() int {
	return WholeDisk
}

func (a CreateTable) String() string {
	return "create-table " + a.DiskID
}

// CreatePartition materializes one region of the plan.
type CreatePartition struct {
	Index int
	Role  disk.Role
	Start uint64
	End   uint64
}

func (a CreatePartition) TargetIndex() int {
	return a.Index
}

func (a CreatePartition) String() string {
	return fmt.Sprintf("create-partition %d %s [%d,%d)", a.Index, a.Role, a.Start, a.End)
}

// SetFlag sets one partition flag, e.g. esp or msftdata.
type SetFlag struct {
	Index int
	Flag  string
}

func (a SetFlag) TargetIndex() int {
	return a.Index
}

func (a SetFlag) String() string {
	return fmt.Sprintf("set-flag %d %s", a.Index, a.Flag)
}

// CopyImage copies a raw image file onto a partition.
type CopyImage struct {
	Source string
	Index  int
}

func (a CopyImage) TargetIndex() int {
	return a.Index
}

func (a CopyImage) String() string {
	return fmt.Sprintf("copy-image %s -> %d", a.Source, a.Index)
}

// ApplyArchive extracts one entry of an archive image (e.g. a Windows WIM)
// onto a partition.
type ApplyArchive struct {
	Source     string
	Index      int
	EntryIndex int
}

func (a ApplyArchive) TargetIndex() int {
	return a.Index
}

func (a ApplyArchive) String() string {
	return fmt.Sprintf("apply-archive %s[%d] -> %d", a.Source, a.EntryIndex, a.Index)
}

// RegisterBootEntry adds a firmware boot entry pointing at a loader on the
// given partition.
type RegisterBootEntry struct {
	Index      int
	Label      string
	LoaderPath string
}

func (a RegisterBootEntry) TargetIndex() int {
	return a.Index
}

func (a RegisterBootEntry) String() string {
	return fmt.Sprintf("register-boot-entry %q -> %d:%s", a.Label, a.Index, a.LoaderPath)
}
