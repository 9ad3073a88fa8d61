// SPDX-License-Identifier: Apache-2.0

// Package registry holds the read-only, build-time-known tables of
// drivers, uclass drivers, and static device descriptors (spec.md
// §4.1). Lookups are linear scans: the tables are small (tens to low
// hundreds of entries) and queried only during bring-up, so a linear
// scan keeps the code trivial and avoids static-init-order hazards --
// the same tradeoff the teacher's device/manager.CreateDevice makes by
// scanning its predicate list rather than building an index.
package registry

import (
	"github.com/pkg/errors"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
)

// Registry is an ordered, append-only collection of the three static
// tables. The "append-only" half is a convenience for building the
// tables at program-init time (spec.md §9's "runtime-registration
// variant"); nothing is ever removed or reordered once scanning starts.
type Registry struct {
	drivers       []*dmtypes.Driver
	uclassDrivers []*dmtypes.UclassDriver
	descriptors   []*dmtypes.Descriptor
}

// New builds a Registry from already-declared tables, the "build as a
// constant sequence" variant spec.md §9 calls out as the natural fit.
func New(drivers []*dmtypes.Driver, uclassDrivers []*dmtypes.UclassDriver, descriptors []*dmtypes.Descriptor) *Registry {
	return &Registry{drivers: drivers, uclassDrivers: uclassDrivers, descriptors: descriptors}
}

// RegisterDriver appends to the driver table, for callers that prefer
// runtime registration (init() calls) over a single constant slice.
func (r *Registry) RegisterDriver(d *dmtypes.Driver) {
	r.drivers = append(r.drivers, d)
}

// RegisterUclassDriver appends to the uclass driver table.
func (r *Registry) RegisterUclassDriver(u *dmtypes.UclassDriver) {
	r.uclassDrivers = append(r.uclassDrivers, u)
}

// RegisterDescriptor appends to the static descriptor table, returning
// its index for cross-referencing as a parent (spec.md §4.1).
func (r *Registry) RegisterDescriptor(d *dmtypes.Descriptor) int {
	r.descriptors = append(r.descriptors, d)
	return len(r.descriptors) - 1
}

// LookupDriverByName returns the first driver whose Name matches.
func (r *Registry) LookupDriverByName(name string) (*dmtypes.Driver, error) {
	for _, d := range r.drivers {
		if d.Name == name {
			return d, nil
		}
	}
	api.Logger().WithField("driver", name).Debug("driver lookup miss")
	return nil, dmerr.Wrap(dmerr.KindNotFound, errors.Wrapf(dmerr.ErrNotFound, "driver %q", name))
}

// LookupUclassDriver returns the uclass driver for id.
func (r *Registry) LookupUclassDriver(id dmtypes.UclassID) (*dmtypes.UclassDriver, error) {
	for _, u := range r.uclassDrivers {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, dmerr.Wrap(dmerr.KindNotFound, errors.Wrapf(dmerr.ErrNotFound, "uclass driver %d", id))
}

// IterDrivers returns the driver table in declaration order. The
// caller must not mutate the returned slice.
func (r *Registry) IterDrivers() []*dmtypes.Driver { return r.drivers }

// IterDescriptors returns the descriptor table in declaration order,
// index-addressable so the scanner can cross-reference parent indices.
func (r *Registry) IterDescriptors() []*dmtypes.Descriptor { return r.descriptors }

// Descriptor returns the descriptor at idx, or an error if out of
// range (spec.md §8 "Static descriptor with parent index out of range").
func (r *Registry) Descriptor(idx int) (*dmtypes.Descriptor, error) {
	if idx < 0 || idx >= len(r.descriptors) {
		return nil, dmerr.Wrap(dmerr.KindBadDescriptor, errors.Wrapf(dmerr.ErrBadDescriptor, "index %d out of range [0,%d)", idx, len(r.descriptors)))
	}
	return r.descriptors[idx], nil
}

// DescriptorCount returns the number of static descriptors.
func (r *Registry) DescriptorCount() int { return len(r.descriptors) }
