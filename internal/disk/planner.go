package disk

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

var (
	// ErrOvercommitted is returned when the fixed sizes alone exceed the
	// device capacity.
	ErrOvercommitted = errors.New("fixed partition sizes exceed device capacity")

	// ErrNegativeRemainder is returned when the leading offset leaves no
	// space for the remaining partitions.
	ErrNegativeRemainder = errors.New("negative space remaining after fixed partitions")

	// ErrNameCollision is returned when two specs share a name.
	ErrNameCollision = errors.New("duplicate partition name")

	// ErrBadWeight is returned for proportional weights outside (0, 1].
	ErrBadWeight = errors.New("proportional weight out of range (0, 1]")
)

type resolveOptions struct {
	leadingOffset uint64
	strict        bool
}

// Option adjusts how Resolve lays out a plan.
type Option func(*resolveOptions)

// WithLeadingOffset reserves the given number of bytes at the start of the
// device, before the first partition.
func WithLeadingOffset(bytes uint64) Option {
	return func(o *resolveOptions) {
		o.leadingOffset = bytes
	}
}

// WithStrictAllocation switches proportional sizing from independent
// per-partition rounding to largest-remainder allocation, so the
// proportional sizes sum exactly to the share of the remaining space their
// weights cover.
func WithStrictAllocation() Option {
	return func(o *resolveOptions) {
		o.strict = true
	}
}

// Resolve computes the concrete byte layout for the given device and specs.
//
// Fixed sizes are taken as-is; each proportional size is its weight times
// the space remaining after all fixed sizes, rounded half away from zero
// independently per partition. The independent rounding means the
// proportional sizes need not sum exactly to the remaining space; callers
// that need an exact partition of the remainder use WithStrictAllocation.
// Regions are laid out consecutively in input order, starting at the leading
// offset (default 0).
//
// Resolve performs no I/O and holds no state: identical inputs yield
// identical plans.
func Resolve(device DeviceInfo, specs []PartitionSpec, opts ...Option) (*Plan, error) {
	var options resolveOptions
	for _, opt := range opts {
		opt(&options)
	}

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: %q", ErrNameCollision, spec.Name)
		}
		seen[spec.Name] = true
	}

	var fixedTotal uint64
	for _, spec := range specs {
		if spec.Sizing.IsProportional() {
			w := spec.Sizing.Weight()
			if w <= 0 || w > 1 {
				return nil, fmt.Errorf("%w: %q has weight %v", ErrBadWeight, spec.Name, w)
			}
			continue
		}
		size := spec.Sizing.FixedSize()
		if fixedTotal+size < fixedTotal {
			// The sum wrapped around, so the fixed total already exceeds
			// any possible capacity.
			return nil, fmt.Errorf("%w: fixed sizes overflow, capacity %d", ErrOvercommitted, device.Size)
		}
		fixedTotal += size
	}

	if fixedTotal > device.Size {
		return nil, fmt.Errorf("%w: fixed total %d, capacity %d", ErrOvercommitted, fixedTotal, device.Size)
	}

	remaining := device.Size - fixedTotal
	if options.leadingOffset > remaining {
		return nil, fmt.Errorf("%w: leading offset %d, remaining %d", ErrNegativeRemainder, options.leadingOffset, remaining)
	}
	remaining -= options.leadingOffset

	sizes := make([]uint64, len(specs))
	for idx, spec := range specs {
		if spec.Sizing.IsProportional() {
			sizes[idx] = roundHalfAwayFromZero(float64(remaining) * spec.Sizing.Weight())
		} else {
			sizes[idx] = spec.Sizing.FixedSize()
		}
	}
	if options.strict {
		strictProportionalSizes(sizes, specs, remaining)
	}

	plan := &Plan{
		Device:     device,
		Partitions: make([]ResolvedPartition, len(specs)),
	}
	start := options.leadingOffset
	for idx, spec := range specs {
		plan.Partitions[idx] = ResolvedPartition{
			Name:  spec.Name,
			Role:  spec.Role,
			Start: start,
			End:   start + sizes[idx],
			Flags: append([]string(nil), spec.Flags...),
		}
		start += sizes[idx]
	}

	return plan, nil
}

// roundHalfAwayFromZero rounds to the nearest integer, ties away from zero.
// Sizes are never negative here, so this is floor(x + 0.5).
func roundHalfAwayFromZero(x float64) uint64 {
	return uint64(math.Floor(x + 0.5))
}

// strictProportionalSizes overwrites the proportional entries of sizes with
// a largest-remainder allocation: each proportional size is floored and the
// leftover bytes, up to round(remaining * totalWeight), are handed out one
// by one to the entries with the largest fractional parts.
func strictProportionalSizes(sizes []uint64, specs []PartitionSpec, remaining uint64) {
	type share struct {
		idx  int
		frac float64
	}

	var totalWeight float64
	var floorTotal uint64
	var shares []share
	for idx, spec := range specs {
		if !spec.Sizing.IsProportional() {
			continue
		}
		totalWeight += spec.Sizing.Weight()
		exact := float64(remaining) * spec.Sizing.Weight()
		base := math.Floor(exact)
		sizes[idx] = uint64(base)
		floorTotal += uint64(base)
		shares = append(shares, share{idx: idx, frac: exact - base})
	}
	if len(shares) == 0 {
		return
	}

	target := roundHalfAwayFromZero(float64(remaining) * totalWeight)
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].frac > shares[j].frac
	})
	for n := 0; floorTotal < target; n++ {
		sizes[shares[n%len(shares)].idx]++
		floorTotal++
	}
}

// GenerateUUID sets the partition table identifier, if not already set,
// from the given source of randomness.
func (pl *Plan) GenerateUUID(rng *rand.Rand) {
	if pl.UUID == "" {
		pl.UUID = uuid.Must(newRandomUUIDFromReader(rng)).String()
	}
}

func newRandomUUIDFromReader(r io.Reader) (uuid.UUID, error) {
	var id uuid.UUID
	_, err := io.ReadFull(r, id[:])
	if err != nil {
		return uuid.Nil, err
	}
	id[6] = (id[6] & 0x0f) | 0x40 // Version 4
	id[8] = (id[8] & 0x3f) | 0x80 // Variant is 10
	return id, nil
}
