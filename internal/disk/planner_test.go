package disk_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cajunjon/TriBootForge/internal/disk"
)

func TestResolveFixedOnly(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: 10 * disk.GiB}
	specs := []disk.PartitionSpec{
		{Name: "efi", Role: disk.RoleESP, Sizing: disk.FixedBytes(300 * disk.MB)},
		{Name: "data", Role: disk.RoleFAT32, Sizing: disk.FixedBytes(2 * disk.GiB)},
	}

	plan, err := disk.Resolve(device, specs)
	require.NoError(t, err)
	require.Len(t, plan.Partitions, 2)

	var total uint64
	for idx := range plan.Partitions {
		total += plan.Partitions[idx].Size()
	}
	assert.Equal(t, uint64(300*disk.MB+2*disk.GiB), total)
	assert.Equal(t, uint64(0), plan.Partitions[0].Start)
	assert.Equal(t, plan.Partitions[0].End, plan.Partitions[1].Start)
}

func TestResolveOvercommitted(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: disk.GiB}
	specs := []disk.PartitionSpec{
		{Name: "a", Role: disk.RoleExt, Sizing: disk.FixedBytes(disk.GiB)},
		{Name: "b", Role: disk.RoleExt, Sizing: disk.FixedBytes(1)},
	}

	plan, err := disk.Resolve(device, specs)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, disk.ErrOvercommitted)
}

func TestResolveOvercommittedWrappingTotal(t *testing.T) {
	// The two fixed sizes sum past the uint64 range; the wrapped total would
	// slip under the capacity if summed naively.
	device := disk.DeviceInfo{ID: "sda", Size: 1000}
	specs := []disk.PartitionSpec{
		{Name: "a", Role: disk.RoleExt, Sizing: disk.FixedBytes(1 << 63)},
		{Name: "b", Role: disk.RoleExt, Sizing: disk.FixedBytes(1 << 63)},
	}

	plan, err := disk.Resolve(device, specs)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, disk.ErrOvercommitted)
}

func TestResolveNameCollisionBeforeSizing(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: disk.GiB}
	// The fixed sizes also overcommit the device; the name check must win.
	specs := []disk.PartitionSpec{
		{Name: "dup", Role: disk.RoleExt, Sizing: disk.FixedBytes(2 * disk.GiB)},
		{Name: "dup", Role: disk.RoleExt, Sizing: disk.FixedBytes(2 * disk.GiB)},
	}

	_, err := disk.Resolve(device, specs)
	assert.ErrorIs(t, err, disk.ErrNameCollision)
}

func TestResolveNegativeRemainder(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: disk.GiB}
	specs := []disk.PartitionSpec{
		{Name: "a", Role: disk.RoleExt, Sizing: disk.FixedBytes(disk.GiB - disk.MiB)},
	}

	_, err := disk.Resolve(device, specs, disk.WithLeadingOffset(2*disk.MiB))
	assert.ErrorIs(t, err, disk.ErrNegativeRemainder)
}

func TestResolveBadWeight(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: disk.GiB}

	for _, weight := range []float64{0, -0.5, 1.5} {
		specs := []disk.PartitionSpec{
			{Name: "a", Role: disk.RoleExt, Sizing: disk.Proportion(weight)},
		}
		_, err := disk.Resolve(device, specs)
		assert.ErrorIs(t, err, disk.ErrBadWeight, "weight %v", weight)
	}
}

func TestResolveLayoutIsConsecutive(t *testing.T) {
	device := disk.DeviceInfo{ID: "nvme0n1", Size: 100 * disk.GiB}
	specs := []disk.PartitionSpec{
		{Name: "efi", Role: disk.RoleESP, Sizing: disk.FixedBytes(512 * disk.MiB)},
		{Name: "win", Role: disk.RoleNTFS, Sizing: disk.Proportion(0.5)},
		{Name: "lvm", Role: disk.RoleLVM, Sizing: disk.Proportion(0.25)},
		{Name: "shared", Role: disk.RoleFAT32, Sizing: disk.FixedBytes(disk.GiB)},
	}

	plan, err := disk.Resolve(device, specs)
	require.NoError(t, err)
	require.Len(t, plan.Partitions, 4)

	assert.Equal(t, uint64(0), plan.Partitions[0].Start)
	for idx := 1; idx < len(plan.Partitions); idx++ {
		assert.Equal(t, plan.Partitions[idx-1].End, plan.Partitions[idx].Start)
		assert.LessOrEqual(t, plan.Partitions[idx].Start, plan.Partitions[idx].End)
	}
}

func TestResolveLeadingOffset(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: 10 * disk.GiB}
	specs := []disk.PartitionSpec{
		{Name: "a", Role: disk.RoleExt, Sizing: disk.Proportion(1.0)},
	}

	plan, err := disk.Resolve(device, specs, disk.WithLeadingOffset(disk.MiB))
	require.NoError(t, err)
	assert.Equal(t, uint64(disk.MiB), plan.Partitions[0].Start)
	assert.Equal(t, uint64(10*disk.GiB), plan.Partitions[0].End)
}

// The vendor tri-boot layout: a fixed EFI partition followed by four
// proportional partitions sized independently against the remaining space.
// The weights deliberately sum to more than 1; per-partition rounding keeps
// each size at round(remaining * weight) and the planner does not reconcile
// the total.
func TestResolveProportionalRounding(t *testing.T) {
	device := disk.DeviceInfo{ID: "nvme0n1", Size: 1_000_000_000_000}
	specs := []disk.PartitionSpec{
		{Name: "efi", Role: disk.RoleESP, Sizing: disk.FixedBytes(300_000_000)},
		{Name: "ntfs", Role: disk.RoleNTFS, Sizing: disk.Proportion(0.1667)},
		{Name: "lvm", Role: disk.RoleLVM, Sizing: disk.Proportion(0.4167)},
		{Name: "fat32", Role: disk.RoleFAT32, Sizing: disk.Proportion(0.1667)},
		{Name: "ext3", Role: disk.RoleExt, Sizing: disk.Proportion(0.4167)},
	}

	plan, err := disk.Resolve(device, specs)
	require.NoError(t, err)
	require.Len(t, plan.Partitions, 5)

	// remaining = 1,000,000,000,000 - 300,000,000 = 999,700,000,000
	assert.Equal(t, uint64(300_000_000), plan.Partitions[0].Size())
	assert.Equal(t, uint64(166_649_990_000), plan.Partitions[1].Size())
	assert.Equal(t, uint64(416_574_990_000), plan.Partitions[2].Size())
	assert.Equal(t, uint64(166_649_990_000), plan.Partitions[3].Size())
	assert.Equal(t, uint64(416_574_990_000), plan.Partitions[4].Size())

	assert.Equal(t, uint64(0), plan.Partitions[0].Start)
	for idx := 1; idx < len(plan.Partitions); idx++ {
		assert.Equal(t, plan.Partitions[idx-1].End, plan.Partitions[idx].Start)
	}
}

func TestResolveStrictAllocation(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: 1000}
	specs := []disk.PartitionSpec{
		{Name: "a", Role: disk.RoleExt, Sizing: disk.Proportion(0.3333)},
		{Name: "b", Role: disk.RoleExt, Sizing: disk.Proportion(0.3333)},
		{Name: "c", Role: disk.RoleExt, Sizing: disk.Proportion(0.3333)},
	}

	plan, err := disk.Resolve(device, specs, disk.WithStrictAllocation())
	require.NoError(t, err)

	var total uint64
	for idx := range plan.Partitions {
		total += plan.Partitions[idx].Size()
	}
	// target = round(1000 * 0.9999) = 1000; independent rounding would have
	// produced 3 * 333 = 999.
	assert.Equal(t, uint64(1000), total)
}

func TestResolveIdempotent(t *testing.T) {
	device := disk.DeviceInfo{ID: "sda", Size: 42 * disk.GiB}
	specs := []disk.PartitionSpec{
		{Name: "efi", Role: disk.RoleESP, Sizing: disk.FixedBytes(300 * disk.MB), Flags: []string{"esp"}},
		{Name: "win", Role: disk.RoleNTFS, Sizing: disk.Proportion(0.5), Flags: []string{"msftdata"}},
	}

	first, err := disk.Resolve(device, specs)
	require.NoError(t, err)
	second, err := disk.Resolve(device, specs)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("plans differ (-first +second):\n%s", diff)
	}
}

func TestGenerateUUID(t *testing.T) {
	plan := &disk.Plan{}
	/* #nosec G404 */
	rng := rand.New(rand.NewSource(0))
	plan.GenerateUUID(rng)
	require.NotEmpty(t, plan.UUID)

	// An existing identifier is kept.
	id := plan.UUID
	plan.GenerateUUID(rng)
	assert.Equal(t, id, plan.UUID)
}
