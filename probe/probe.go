// SPDX-License-Identifier: Apache-2.0

// Package probe drives the bind->probe transition: allocating
// per-device data blocks, running the uclass pre-probe and driver
// probe hooks, and descending parents-first into the device tree
// (spec.md §4.7).
package probe

import (
	"github.com/pkg/errors"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
)

// Engine drives device activation.
type Engine struct {
	HDT api.HDTCursor
}

// New returns a probe Engine. hdt may be nil.
func New(hdt api.HDTCursor) *Engine {
	return &Engine{HDT: hdt}
}

// Probe activates dev, probing its parent chain first. It is
// idempotent: calling it on an already-activated device is a no-op
// success, following the teacher's bumpAttachCount idempotence guard
// in device/drivers/generic.go.
func (e *Engine) Probe(dev *dmtypes.Device) error {
	if dev.IsActivated() {
		return nil
	}
	if !dev.IsBound() {
		return dmerr.Wrap(dmerr.KindNotFound, errors.Errorf("probe %q: device not bound", dev.Name))
	}

	if dev.Parent != nil && !dev.Parent.IsActivated() {
		if err := e.Probe(dev.Parent); err != nil {
			return errors.Wrapf(err, "probe parent of %q", dev.Name)
		}
	}

	e.alloc(dev)

	if dev.Uclass != nil && dev.Uclass.Driver.Hooks.PostProbe != nil {
		// PostProbe runs alongside the driver's own probe as the
		// uclass's structural hook (spec.md §4.7 "invoke uclass
		// pre-probe, then driver probe hook" -- named PostProbe here
		// since it observes the device about to be probed, mirroring
		// ChildPreProbe's naming on the parent side).
		if err := dev.Uclass.Driver.Hooks.PostProbe(dev); err != nil {
			e.free(dev)
			return dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "uclass pre-probe %q", dev.Name))
		}
	}

	if dev.Parent != nil && dev.Parent.Driver != nil && dev.Parent.Driver.Hooks.ChildPreProbe != nil {
		if err := dev.Parent.Driver.Hooks.ChildPreProbe(dev.Parent, dev); err != nil {
			e.free(dev)
			return dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "child_pre_probe %q", dev.Name))
		}
	}

	if dev.Driver.Hooks.Probe != nil {
		if err := dev.Driver.Hooks.Probe(dev); err != nil {
			e.free(dev)
			return dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "probe %q", dev.Name))
		}
	}

	dev.MarkActivated()
	api.Logger().WithField("device", dev.Name).Debug("probed")
	return nil
}

// alloc allocates dev's per-device/per-uclass/per-parent data blocks,
// sized by driver and uclass driver. The core has no allocator of its
// own (spec.md §5: "Allocators are external"); here that means
// allocating Go values sized per the driver's declared byte counts,
// which is as close as a garbage-collected runtime gets to spec.md's
// alloc(n)/free(p) contract.
func (e *Engine) alloc(dev *dmtypes.Device) {
	if dev.Driver.PrivSize > 0 && dev.PrivData == nil {
		dev.PrivData = make([]byte, dev.Driver.PrivSize)
	}
	if dev.Uclass != nil && dev.Uclass.Driver.PerDevPriv > 0 && dev.UclassPrivData == nil {
		dev.UclassPrivData = make([]byte, dev.Uclass.Driver.PerDevPriv)
	}
	if dev.Parent != nil && dev.Parent.Driver != nil && dev.Driver.PlatSize > 0 && dev.ParentPrivData == nil {
		dev.ParentPrivData = make([]byte, dev.Driver.PlatSize)
	}
}

// free releases the blocks alloc allocated, on a failed probe (spec.md
// §4.7: "On any failure, free allocated blocks and leave device BOUND
// but not ACTIVATED").
func (e *Engine) free(dev *dmtypes.Device) {
	dev.PrivData = nil
	dev.UclassPrivData = nil
	dev.ParentPrivData = nil
}

// Deactivate clears ACTIVATED without running any hook, used by the
// root lifecycle after Remove has run.
func (e *Engine) Deactivate(dev *dmtypes.Device) {
	e.free(dev)
	dev.MarkDeactivated()
}
