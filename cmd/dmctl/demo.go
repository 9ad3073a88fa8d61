// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/hdtfake"
	"github.com/flashboot/dm/registry"
)

const (
	uclassRoot dmtypes.UclassID = iota
	uclassSerial
	uclassClock
)

// buildDemoRegistry wires a small, self-contained set of drivers and
// an in-memory HDT so dmctl has something to bring up without any real
// hardware -- no such tree exists in this environment.
func buildDemoRegistry() (*registry.Registry, *hdtfake.Tree) {
	rootUclass := &dmtypes.UclassDriver{Name: "root", ID: uclassRoot}
	serialUclass := &dmtypes.UclassDriver{Name: "serial", ID: uclassSerial}
	clockUclass := &dmtypes.UclassDriver{Name: "clock", ID: uclassClock}

	rootDriver := &dmtypes.Driver{
		Name:     "root_driver",
		UclassID: uclassRoot,
		Flags:    dmtypes.DriverFlagPreReloc,
	}

	uartDriver := &dmtypes.Driver{
		Name:     "uart",
		UclassID: uclassSerial,
		Flags:    dmtypes.DriverFlagProbeAfterBind,
		OfMatch: []dmtypes.OfMatch{
			{Compatible: "acme,uart-v2"},
			{Compatible: "generic,uart"},
		},
		Hooks: dmtypes.Hooks{
			Probe: func(d *dmtypes.Device) error { return nil },
		},
		PrivSize: 32,
	}

	clockDriver := &dmtypes.Driver{
		Name:     "clock",
		UclassID: uclassClock,
		Flags:    dmtypes.DriverFlagPreReloc | dmtypes.DriverFlagProbeAfterBind,
		OfMatch:  []dmtypes.OfMatch{{Compatible: "acme,clock"}},
		Hooks: dmtypes.Hooks{
			Probe: func(d *dmtypes.Device) error { return nil },
		},
	}

	reg := registry.New(
		[]*dmtypes.Driver{rootDriver, uartDriver, clockDriver},
		[]*dmtypes.UclassDriver{rootUclass, serialUclass, clockUclass},
		nil,
	)

	tree := hdtfake.NewTree()
	tree.AddChild(nil, "serial@0").SetCompatible("acme,uart-v2", "generic,uart")
	tree.AddChild(nil, "osc").SetCompatible("acme,clock").SetPreReloc(true)
	tree.AddPath("/clocks")

	return reg, tree
}
