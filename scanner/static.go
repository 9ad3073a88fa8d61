// SPDX-License-Identifier: Apache-2.0

// Package scanner drives the multi-pass binding algorithm that walks
// the static descriptor table and the hardware description tree,
// respecting parent-before-child ordering (spec.md §4.5, §4.6).
package scanner

import (
	"github.com/pkg/errors"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/binder"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/registry"
)

// maxPasses is the maximum supported HDT/descriptor depth; any
// descriptor graph within this bound resolves to a fixed point
// (spec.md §4.5).
const maxPasses = 10

// Scanner drives static-descriptor binding and HDT walking.
type Scanner struct {
	Binder   *binder.Binder
	Registry *registry.Registry
	HDT      api.HDTCursor

	// ParentAware controls whether descriptor ParentIdx is honored.
	// When false every descriptor binds directly under the supplied
	// root, matching spec.md §4.5's "parent-aware mode" toggle.
	ParentAware bool

	slots []*dmtypes.Device
}

// New returns a Scanner. hdt may be nil if the platform has no HDT
// compiled in; HDT-walking methods then return immediately.
func New(b *binder.Binder, reg *registry.Registry, hdt api.HDTCursor) *Scanner {
	return &Scanner{Binder: b, Registry: reg, HDT: hdt, ParentAware: true}
}

// passResult is the outcome of one pass over the descriptor table.
type passResult struct {
	err           error // first NoDriver/other non-benign error, if any
	missingParent bool
}

// singlePass runs one pass of spec.md §4.5's single-pass algorithm.
func (s *Scanner) singlePass(root *dmtypes.Device) passResult {
	var result passResult

	descriptors := s.Registry.IterDescriptors()
	if s.slots == nil {
		s.slots = make([]*dmtypes.Device, len(descriptors))
	}

	for i, desc := range descriptors {
		if s.slots[i] != nil {
			continue
		}

		parent := root
		if s.ParentAware && desc.ParentIdx != dmtypes.NoParent {
			if desc.ParentIdx < 0 || desc.ParentIdx >= len(s.slots) {
				if result.err == nil {
					result.err = dmerr.Wrap(dmerr.KindBadDescriptor, errors.Wrapf(dmerr.ErrBadDescriptor, "descriptor %d: parent index %d out of range", i, desc.ParentIdx))
				}
				continue
			}
			if s.slots[desc.ParentIdx] == nil {
				result.missingParent = true
				continue
			}
			parent = s.slots[desc.ParentIdx]
		}

		dev, err := s.Binder.BindByDescriptor(parent, desc)
		switch {
		case err == nil:
			dev.DescriptorSlot = i
			s.slots[i] = dev
		case errors.Is(err, dmerr.ErrRefused):
			// ignored, spec.md §4.5
		case dmerr.KindOf(err) == dmerr.KindNoDriver:
			if result.err == nil {
				result.err = err
			}
		default:
			if result.err == nil {
				result.err = err
			}
		}
	}

	return result
}

// ScanStaticDescriptors runs up to maxPasses passes, stopping as soon
// as a pass reports no pending parents. pre_reloc_only is accepted for
// interface symmetry with the HDT walk and is not used here: every
// descriptor binds whatever its driver's flags. BindWithDriver copies a
// driver's DriverFlagPreReloc onto the device, and ProbeTree's
// pre-reloc gate then decides whether the device is probed.
func (s *Scanner) ScanStaticDescriptors(root *dmtypes.Device, preRelocOnly bool) error {
	var pending error

	for pass := 0; pass < maxPasses; pass++ {
		result := s.singlePass(root)
		if result.err != nil {
			pending = result.err
		}
		if !result.missingParent {
			return pending
		}
	}

	if pending != nil {
		return pending
	}
	return dmerr.Wrap(dmerr.KindCycle, errors.Wrap(dmerr.ErrCycle, "static descriptor graph"))
}

// PreSizeSlots pre-allocates the descriptor slot table to n entries,
// used by InstanceMode root init (spec.md §4.8: "allocate runtime slot
// tables sized by the static table").
func (s *Scanner) PreSizeSlots(n int) {
	if s.slots == nil {
		s.slots = make([]*dmtypes.Device, n)
	}
}

// BoundSlot returns the device bound for descriptor index i, or nil.
func (s *Scanner) BoundSlot(i int) *dmtypes.Device {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i]
}
