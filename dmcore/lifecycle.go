// SPDX-License-Identifier: Apache-2.0

package dmcore

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
)

// Uninit tears the tree down: non-vital devices are removed first,
// then all remaining (vital) devices, both post-order (leaves first);
// every device is then unbound post-order; finally the root itself is
// unbound and the root handle cleared (spec.md §4.8, §9 scenario 6).
// Calling Uninit again on an uninitialized Core is a no-op success.
func (c *Core) Uninit() error {
	if c.root == nil {
		return nil
	}

	var merr *multierror.Error

	c.removeSweep(c.root, false, &merr) // non-vital first
	c.removeSweep(c.root, true, &merr)  // then everything left
	c.unbindSweep(c.root, &merr)

	if c.root.Driver != nil && c.root.Driver.Hooks.Unbind != nil {
		if err := c.root.Driver.Hooks.Unbind(c.root); err != nil {
			merr = multierror.Append(merr, dmerr.Wrap(dmerr.KindDriverError, errors.Wrap(err, "unbind root")))
		}
	}
	c.root.MarkUnbound()
	c.tags.Release(c.root)

	c.destroyEmptyUclasses(&merr)

	api.Logger().Info("driver model uninitialized")
	c.root = nil

	return merr.ErrorOrNil()
}

// removeSweep processes dev's descendants post-order (excluding dev
// itself -- the root is never "removed", only unbound), running the
// Remove hook on devices whose RemoveVitalFirst flag matches vitalPass.
func (c *Core) removeSweep(dev *dmtypes.Device, vitalPass bool, merr **multierror.Error) {
	for _, child := range dev.Children {
		c.removeSweep(child, vitalPass, merr)
	}
	if dev == c.root {
		return
	}
	if !dev.IsActivated() {
		return
	}

	isVital := dev.Flags.Has(dmtypes.DeviceFlagRemoveVitalFirst)
	if isVital != vitalPass {
		return
	}

	flag := dmtypes.RemoveNonVital
	if isVital {
		flag = dmtypes.RemoveVitalFirst
	}

	if dev.Uclass != nil && dev.Uclass.Driver.Hooks.PreRemove != nil {
		if err := dev.Uclass.Driver.Hooks.PreRemove(dev); err != nil {
			*merr = multierror.Append(*merr, dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "uclass pre-remove %q", dev.Name)))
			return
		}
	}

	if dev.Driver.Hooks.Remove != nil {
		if err := dev.Driver.Hooks.Remove(dev, flag); err != nil {
			*merr = multierror.Append(*merr, dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "remove %q", dev.Name)))
			return
		}
	}
	c.probe.Deactivate(dev)
}

// unbindSweep unbinds dev's descendants post-order (excluding dev
// itself), destroying each device's record.
func (c *Core) unbindSweep(dev *dmtypes.Device, merr **multierror.Error) {
	for _, child := range append([]*dmtypes.Device(nil), dev.Children...) {
		c.unbindSweep(child, merr)

		if child.Driver != nil && child.Driver.Hooks.Unbind != nil {
			if err := child.Driver.Hooks.Unbind(child); err != nil {
				*merr = multierror.Append(*merr, dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "unbind %q", child.Name)))
			}
		}

		child.MarkUnbound()
		c.tags.Release(child)
		if child.Uclass != nil {
			child.Uclass.RemoveMember(child)
		}
		dev.RemoveChild(child)
	}
}

func (c *Core) destroyEmptyUclasses(merr **multierror.Error) {
	for _, u := range append([]*dmtypes.Uclass(nil), c.uclasses.All()...) {
		if len(u.Members) != 0 {
			continue
		}
		if err := c.uclasses.Destroy(u); err != nil {
			*merr = multierror.Append(*merr, err)
		}
	}
}
