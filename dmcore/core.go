// SPDX-License-Identifier: Apache-2.0

// Package dmcore is the root lifecycle: init/uninit of the virtual
// root device that anchors the hierarchy, and the orchestration of the
// scanner and probe engine that bring the device tree up (spec.md
// §4.8, §2 "control flow at bring-up").
//
// Grounded on virtcontainers/sandbox.go's role as the top-level object
// that owns the tree and drives construction/teardown while delegating
// the actual work to its device subpackages -- Core plays that part
// here for the device tree itself rather than for sandboxed containers.
package dmcore

import (
	"github.com/pkg/errors"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/binder"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/probe"
	"github.com/flashboot/dm/registry"
	"github.com/flashboot/dm/scanner"
	"github.com/flashboot/dm/uclass"
)

// Mode selects how the root lifecycle constructs the root device
// (spec.md §4.8).
type Mode int

const (
	// DynamicMode binds the built-in root descriptor, attaches the HDT
	// root node if compiled in, and probes the root.
	DynamicMode Mode = iota
	// InstanceMode uses a precomputed root device and pre-sizes the
	// static-descriptor slot table from the static table length.
	InstanceMode
)

// Options configures Init.
type Options struct {
	Mode Mode

	Registry *registry.Registry
	HDT      api.HDTCursor
	Notifier api.EventNotifier

	// RootDriverName is the driver bound as the root device in
	// DynamicMode. Defaults to "root_driver".
	RootDriverName string

	// PrebuiltRoot is the already-constructed root device used in
	// InstanceMode.
	PrebuiltRoot *dmtypes.Device

	// ConfigPath is an optional on-disk INI override file. Absence is
	// not an error.
	ConfigPath string

	// ExtendedPaths overrides the scanner's well-known auxiliary HDT
	// paths, taking precedence over the config file's list; nil leaves
	// the scanner's current set unchanged (the built-in default unless
	// the config file or an earlier Init replaced it).
	ExtendedPaths []string

	PreRelocOnly bool
}

// Core is the single entry point wiring registry, uclasses, binder,
// scanner, and probe engine together around one root device.
type Core struct {
	reg      *registry.Registry
	uclasses *uclass.Registry
	binder   *binder.Binder
	scanner  *scanner.Scanner
	probe    *probe.Engine
	tags     *dmtypes.TagRegistry
	notifier api.EventNotifier

	root         *dmtypes.Device
	preRelocOnly bool
}

// New constructs an uninitialized Core. Call Init before anything
// else.
func New() *Core {
	return &Core{}
}

// Init creates the root device (spec.md §4.8). Calling Init twice
// without an intervening Uninit is a programmer error.
func (c *Core) Init(opts Options) error {
	if c.root != nil {
		return dmerr.Wrap(dmerr.KindAlreadyInitialized, dmerr.ErrAlreadyInitialized)
	}
	if opts.Registry == nil {
		return errors.New("dmcore: Init requires a Registry")
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = api.NopEventNotifier{}
	}

	c.reg = opts.Registry
	c.uclasses = uclass.New(c.reg)
	c.binder = binder.New(c.reg, c.uclasses)
	c.scanner = scanner.New(c.binder, c.reg, opts.HDT)
	c.probe = probe.New(opts.HDT)
	c.tags = dmtypes.NewTagRegistry()
	c.notifier = notifier
	c.preRelocOnly = opts.PreRelocOnly

	if fc, err := loadFileConfig(opts.ConfigPath); err != nil {
		return errors.Wrap(err, "load dm config")
	} else if fc != nil {
		c.preRelocOnly = fc.PreRelocOnly
		if len(fc.ExtendedPaths) > 0 {
			scanner.SetExtendedPaths(fc.ExtendedPaths)
		}
	}
	if len(opts.ExtendedPaths) > 0 {
		scanner.SetExtendedPaths(opts.ExtendedPaths)
	}

	switch opts.Mode {
	case InstanceMode:
		if opts.PrebuiltRoot == nil {
			return errors.New("dmcore: InstanceMode requires PrebuiltRoot")
		}
		c.root = opts.PrebuiltRoot
		c.root.MarkBound()
		c.scanner.PreSizeSlots(c.reg.DescriptorCount())

	default: // DynamicMode
		name := opts.RootDriverName
		if name == "" {
			name = "root_driver"
		}
		var node api.Node
		if opts.HDT != nil {
			node = opts.HDT.RootNode()
		}
		root, err := c.binder.BindByName(nil, name, name, node)
		if err != nil {
			return errors.Wrap(err, "bind root device")
		}
		c.root = root
		if err := c.probe.Probe(c.root); err != nil {
			return errors.Wrap(err, "probe root device")
		}
	}

	api.Logger().WithField("mode", opts.Mode).Info("driver model initialized")
	return nil
}

// Root returns the current root device, or nil if not initialized.
func (c *Core) Root() *dmtypes.Device { return c.root }

// Scan runs the full bring-up scan (spec.md §2: static pass, HDT pass,
// extended paths). pre_reloc_only gates the HDT passes; the static pass
// binds every descriptor regardless of it. Benign static-pass errors
// (NotFound, NoDriver, Refused) are logged as warnings, not returned.
func (c *Core) Scan() error {
	if c.root == nil {
		return dmerr.Wrap(dmerr.KindNotInitialized, dmerr.ErrNotInitialized)
	}
	if err := c.scanner.ScanStaticDescriptors(c.root, c.preRelocOnly); err != nil {
		if !dmerr.IsBenign(err) {
			return errors.Wrap(err, "scan static descriptors")
		}
		api.Logger().WithField("err", err).Warn("static descriptor scan reported warnings")
	}
	if err := c.scanner.ExtendedScan(c.root, c.preRelocOnly); err != nil {
		api.Logger().WithField("err", err).Warn("extended hdt scan reported errors")
	}
	return nil
}

// ProbeAll drives the probe engine over the whole tree.
func (c *Core) ProbeAll() error {
	if c.root == nil {
		return dmerr.Wrap(dmerr.KindNotInitialized, dmerr.ErrNotInitialized)
	}
	return probe.ProbeTree(c.probe, c.root, c.preRelocOnly)
}

// InitAndScan runs Init, Scan, and ProbeAll in sequence, then notifies
// the event subsystem (spec.md §2, §6). It is the convenience entry
// point platform glue calls at bring-up.
func (c *Core) InitAndScan(opts Options) error {
	if err := c.Init(opts); err != nil {
		return err
	}
	if err := c.Scan(); err != nil {
		return err
	}
	if err := c.ProbeAll(); err != nil {
		api.Logger().WithField("err", err).Warn("probe_tree reported errors")
	}

	var err error
	if c.preRelocOnly {
		err = c.notifier.NotifyPreReloc()
	} else {
		err = c.notifier.NotifyPostReloc()
	}
	if err != nil {
		return errors.Wrap(err, "event notification")
	}
	return nil
}

// Tags exposes the device-tag registry to platform glue.
func (c *Core) Tags() *dmtypes.TagRegistry { return c.tags }
