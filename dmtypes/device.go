// SPDX-License-Identifier: Apache-2.0

package dmtypes

import "github.com/flashboot/dm/api"

// Device is a dynamic device record ("udevice" in spec.md's glossary).
// Structural mutation (parent/child linkage, uclass membership) is the
// binder's job; everything else here is a plain accessor-friendly
// struct, following the teacher's config.DeviceInfo style.
type Device struct {
	Name   string
	Driver *Driver
	Uclass *Uclass

	Parent   *Device
	Children []*Device

	Node api.Node // nil when the device did not come from the HDT

	PlatData       interface{}
	PrivData       interface{}
	UclassPrivData interface{}
	ParentPrivData interface{}
	MatchData      interface{}

	Flags DeviceFlag

	// DescriptorSlot is the index into the static descriptor table
	// this device was bound from, or -1. Used by the static-descriptor
	// pass to detect a slot already filled (spec.md §3 invariant).
	DescriptorSlot int

	// Tag is an opaque integer handle allocated by TagRegistry, or 0
	// if never tagged.
	Tag int
}

// IsBound reports whether the device has completed bind().
func (d *Device) IsBound() bool { return d.Flags.Has(DeviceFlagBound) }

// IsActivated reports whether the device has completed probe().
func (d *Device) IsActivated() bool { return d.Flags.Has(DeviceFlagActivated) }

// MarkBound transitions the device Unallocated -> Bound.
func (d *Device) MarkBound() { d.Flags.set(DeviceFlagBound) }

// MarkActivated transitions the device Bound -> Active.
func (d *Device) MarkActivated() { d.Flags.set(DeviceFlagActivated) }

// MarkDeactivated clears Active, returning the device to Bound (used
// by remove, spec.md §9 state machine).
func (d *Device) MarkDeactivated() { d.Flags.clear(DeviceFlagActivated) }

// MarkUnbound clears Bound, the final transition before destruction.
func (d *Device) MarkUnbound() { d.Flags.clear(DeviceFlagBound) }

// AddChild appends child to d's child list in bind order.
func (d *Device) AddChild(child *Device) {
	d.Children = append(d.Children, child)
}

// RemoveChild removes child from d's child list, preserving the
// remaining order.
func (d *Device) RemoveChild(child *Device) {
	for i, c := range d.Children {
		if c == child {
			d.Children = append(d.Children[:i], d.Children[i+1:]...)
			return
		}
	}
}

// PreRelocEligible reports whether the device is eligible to bind or
// probe during the pre-relocation phase: either the HDT node is
// marked pre-reloc, or the bound driver carries DriverFlagPreReloc.
func (d *Device) PreRelocEligible(hdt api.HDTCursor) bool {
	if d.Flags.Has(DeviceFlagPreReloc) {
		return true
	}
	if d.Driver != nil && d.Driver.Flags.Has(DriverFlagPreReloc) {
		return true
	}
	if d.Node != nil && hdt != nil && hdt.PreReloc(d.Node) {
		return true
	}
	return false
}
