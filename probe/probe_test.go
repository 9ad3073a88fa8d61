// SPDX-License-Identifier: Apache-2.0

package probe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashboot/dm/binder"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/probe"
	"github.com/flashboot/dm/registry"
	"github.com/flashboot/dm/uclass"
)

func TestProbeIsIdempotent(t *testing.T) {
	calls := 0
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	drv := &dmtypes.Driver{
		Name:     "leaf",
		UclassID: 0,
		PrivSize: 16,
		Hooks: dmtypes.Hooks{
			Probe: func(d *dmtypes.Device) error { calls++; return nil },
		},
	}
	reg := registry.New([]*dmtypes.Driver{drv}, []*dmtypes.UclassDriver{uc}, nil)
	b := binder.New(reg, uclass.New(reg))
	dev, err := b.BindWithDriver(nil, drv, "leaf", nil, nil)
	assert.NoError(t, err)

	e := probe.New(nil)
	assert.NoError(t, e.Probe(dev))
	assert.NoError(t, e.Probe(dev))
	assert.Equal(t, 1, calls, "second probe must be a no-op")
	assert.NotNil(t, dev.PrivData)
}

func TestProbeProbesParentsFirst(t *testing.T) {
	var order []string
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	mk := func(name string) *dmtypes.Driver {
		return &dmtypes.Driver{
			Name:     name,
			UclassID: 0,
			Hooks: dmtypes.Hooks{
				Probe: func(d *dmtypes.Device) error { order = append(order, d.Name); return nil },
			},
		}
	}
	parentDrv, childDrv := mk("parent"), mk("child")
	reg := registry.New([]*dmtypes.Driver{parentDrv, childDrv}, []*dmtypes.UclassDriver{uc}, nil)
	b := binder.New(reg, uclass.New(reg))

	parent, err := b.BindWithDriver(nil, parentDrv, "parent", nil, nil)
	assert.NoError(t, err)
	child, err := b.BindWithDriver(parent, childDrv, "child", nil, nil)
	assert.NoError(t, err)

	e := probe.New(nil)
	assert.NoError(t, e.Probe(child))
	assert.Equal(t, []string{"parent", "child"}, order)
}

func TestProbeFailureLeavesBoundNotActivated(t *testing.T) {
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	drv := &dmtypes.Driver{
		Name:     "flaky",
		UclassID: 0,
		PrivSize: 8,
		Hooks: dmtypes.Hooks{
			Probe: func(d *dmtypes.Device) error { return assertErr },
		},
	}
	reg := registry.New([]*dmtypes.Driver{drv}, []*dmtypes.UclassDriver{uc}, nil)
	b := binder.New(reg, uclass.New(reg))
	dev, err := b.BindWithDriver(nil, drv, "flaky", nil, nil)
	assert.NoError(t, err)

	e := probe.New(nil)
	err = e.Probe(dev)
	assert.Error(t, err)
	assert.True(t, dev.IsBound())
	assert.False(t, dev.IsActivated())
	assert.Nil(t, dev.PrivData, "failed probe frees its data blocks")
}

var assertErr = errDummy("probe failed")

type errDummy string

func (e errDummy) Error() string { return string(e) }

func TestProbeTreeDescendsDespiteGateAndSiblingError(t *testing.T) {
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	probedNames := []string{}
	mkDrv := func(name string, probeAfterBind bool, fail bool) *dmtypes.Driver {
		flags := dmtypes.DriverFlag(0)
		if probeAfterBind {
			flags |= dmtypes.DriverFlagProbeAfterBind
		}
		return &dmtypes.Driver{
			Name:     name,
			UclassID: 0,
			Flags:    flags,
			Hooks: dmtypes.Hooks{
				Probe: func(d *dmtypes.Device) error {
					probedNames = append(probedNames, d.Name)
					if fail {
						return assertErr
					}
					return nil
				},
			},
		}
	}

	rootDrv := mkDrv("root", true, false)
	badChildDrv := mkDrv("bad", true, true)
	goodChildDrv := mkDrv("good", true, false)
	// Only the children are pre-reloc eligible: the gate skips root's own
	// visit, but descent continues and probing a child probes root first.
	badChildDrv.Flags |= dmtypes.DriverFlagPreReloc
	goodChildDrv.Flags |= dmtypes.DriverFlagPreReloc

	reg := registry.New([]*dmtypes.Driver{rootDrv, badChildDrv, goodChildDrv}, []*dmtypes.UclassDriver{uc}, nil)
	b := binder.New(reg, uclass.New(reg))

	root, _ := b.BindWithDriver(nil, rootDrv, "root", nil, nil)
	bad, _ := b.BindWithDriver(root, badChildDrv, "bad", nil, nil)
	_ = bad
	b.BindWithDriver(root, goodChildDrv, "good", nil, nil)

	err := probe.ProbeTree(probe.New(nil), root, true)
	assert.Error(t, err, "bad child's probe error must surface")
	assert.ElementsMatch(t, []string{"root", "bad", "good"}, probedNames, "sibling probing continues despite an error")
}
