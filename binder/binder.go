// SPDX-License-Identifier: Apache-2.0

// Package binder turns a descriptor (static entry or HDT node) plus a
// driver into a bound device: it runs the driver's bind hook and links
// the device into its parent, its siblings, and its uclass (spec.md
// §4.3, §4.4).
//
// Grounded on the teacher's device/manager.CreateDevice (driver
// selection by predicate, generalized here to of_match scanning) and
// device/drivers/generic.go's check-then-unwind idiom in
// bumpAttachCount, reused below for REFUSED rollback.
package binder

import (
	"github.com/pkg/errors"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/registry"
	"github.com/flashboot/dm/uclass"
)

// Binder owns the registries it consults and binds against.
type Binder struct {
	Registry *registry.Registry
	Uclasses *uclass.Registry
}

// New returns a Binder over the given registries.
func New(reg *registry.Registry, uc *uclass.Registry) *Binder {
	return &Binder{Registry: reg, Uclasses: uc}
}

// BindWithDriver allocates a device record for driver, links it into
// parent's child list and driver's uclass, and runs driver's bind
// hook. parent may be nil only when creating the root device.
func (b *Binder) BindWithDriver(parent *dmtypes.Device, driver *dmtypes.Driver, name string, matchData interface{}, node api.Node) (*dmtypes.Device, error) {
	dev := &dmtypes.Device{
		Name:           name,
		Driver:         driver,
		Parent:         parent,
		Node:           node,
		MatchData:      matchData,
		DescriptorSlot: -1,
	}

	uc, err := b.Uclasses.Get(driver.UclassID)
	if err != nil {
		return nil, errors.Wrapf(err, "bind %q", name)
	}
	dev.Uclass = uc

	if parent != nil {
		parent.AddChild(dev)
	}
	uc.AddMember(dev)

	if driver.Hooks.Bind != nil {
		if err := driver.Hooks.Bind(dev); err != nil {
			b.unlink(dev)
			if errors.Is(err, dmerr.ErrRefused) {
				api.Logger().WithField("device", name).Info("bind refused")
				return nil, dmerr.Wrap(dmerr.KindRefused, err)
			}
			return nil, dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "bind %q", name))
		}
	}

	dev.MarkBound()
	if driver.Flags.Has(dmtypes.DriverFlagPreReloc) {
		dev.Flags |= dmtypes.DeviceFlagPreReloc
	}
	// spec.md §4.3: "optionally sets PROBE_AFTER_BIND per driver flags".
	if driver.Flags.Has(dmtypes.DriverFlagProbeAfterBind) {
		dev.Flags |= dmtypes.DeviceFlagProbeAfterBind
	}

	if parent != nil && parent.Driver != nil && parent.Driver.Hooks.ChildPostBind != nil {
		if err := parent.Driver.Hooks.ChildPostBind(parent, dev); err != nil {
			return dev, dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "child_post_bind %q", name))
		}
	}

	return dev, nil
}

// unlink reverses the structural linkage BindWithDriver performed,
// used when a bind hook fails or refuses.
func (b *Binder) unlink(dev *dmtypes.Device) {
	if dev.Parent != nil {
		dev.Parent.RemoveChild(dev)
	}
	if dev.Uclass != nil {
		dev.Uclass.RemoveMember(dev)
	}
}

// BindByDescriptor resolves descriptor's driver by name and binds it.
func (b *Binder) BindByDescriptor(parent *dmtypes.Device, descriptor *dmtypes.Descriptor) (*dmtypes.Device, error) {
	drv, err := b.Registry.LookupDriverByName(descriptor.DriverName)
	if err != nil {
		return nil, dmerr.Wrap(dmerr.KindNoDriver, errors.Wrapf(dmerr.ErrNoDriver, "descriptor driver %q", descriptor.DriverName))
	}
	dev, err := b.BindWithDriver(parent, drv, descriptor.DriverName, nil, nil)
	if err != nil {
		return nil, err
	}
	dev.PlatData = descriptor.PlatData
	dev.Flags |= dmtypes.DeviceFlagPlatDataValid
	return dev, nil
}

// BindByName is a convenience wrapper resolving a driver by name and
// binding it under an explicit device name and optional HDT node.
func (b *Binder) BindByName(parent *dmtypes.Device, drvName, devName string, node api.Node) (*dmtypes.Device, error) {
	drv, err := b.Registry.LookupDriverByName(drvName)
	if err != nil {
		return nil, dmerr.Wrap(dmerr.KindNoDriver, errors.Wrapf(dmerr.ErrNoDriver, "driver %q", drvName))
	}
	return b.BindWithDriver(parent, drv, devName, nil, node)
}
