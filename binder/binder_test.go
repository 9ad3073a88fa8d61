// SPDX-License-Identifier: Apache-2.0

package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashboot/dm/binder"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/hdtfake"
	"github.com/flashboot/dm/registry"
	"github.com/flashboot/dm/uclass"
)

func newBinder(drivers []*dmtypes.Driver, uclasses []*dmtypes.UclassDriver) (*binder.Binder, *registry.Registry) {
	reg := registry.New(drivers, uclasses, nil)
	return binder.New(reg, uclass.New(reg)), reg
}

// Scenario 1: single static root + one child.
func TestBindWithDriverLinksParentAndUclass(t *testing.T) {
	rootUc := &dmtypes.UclassDriver{Name: "ROOT", ID: 0}
	uartUc := &dmtypes.UclassDriver{Name: "UART_CLASS", ID: 1}
	rootDrv := &dmtypes.Driver{Name: "root_driver", UclassID: 0}
	uartDrv := &dmtypes.Driver{Name: "uart", UclassID: 1}

	b, _ := newBinder([]*dmtypes.Driver{rootDrv, uartDrv}, []*dmtypes.UclassDriver{rootUc, uartUc})

	root, err := b.BindWithDriver(nil, rootDrv, "root", nil, nil)
	assert.NoError(t, err)
	assert.True(t, root.IsBound())

	uart, err := b.BindWithDriver(root, uartDrv, "uart", nil, nil)
	assert.NoError(t, err)

	assert.Equal(t, []*dmtypes.Device{uart}, root.Children)
	assert.Same(t, root, uart.Parent)
	assert.Equal(t, 2, b.Uclasses.Count())
}

func TestBindByDescriptorNoDriverIsWarnOnly(t *testing.T) {
	b, _ := newBinder(nil, nil)
	desc := &dmtypes.Descriptor{DriverName: "missing", ParentIdx: dmtypes.NoParent}
	_, err := b.BindByDescriptor(nil, desc)
	assert.Error(t, err)
	assert.Equal(t, dmerr.KindNoDriver, dmerr.KindOf(err))
}

// Scenario 4: refused driver.
func TestBindWithDriverRefusedRollsBack(t *testing.T) {
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	drv := &dmtypes.Driver{
		Name:     "picky",
		UclassID: 0,
		Hooks: dmtypes.Hooks{
			Bind: func(d *dmtypes.Device) error { return dmerr.ErrRefused },
		},
	}
	b, _ := newBinder([]*dmtypes.Driver{drv}, []*dmtypes.UclassDriver{uc})

	root, err := b.BindWithDriver(nil, &dmtypes.Driver{Name: "root", UclassID: 0}, "root", nil, nil)
	assert.NoError(t, err)

	_, err = b.BindWithDriver(root, drv, "picky-dev", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, dmerr.KindRefused, dmerr.KindOf(err))
	assert.Empty(t, root.Children, "refused bind must leave no device behind")
	assert.Equal(t, 1, len(b.Uclasses.All()[0].Members), "only root remains a member")
}

// Scenario 3: compatible-string priority.
func TestBindHDTNodeHonorsCompatiblePriority(t *testing.T) {
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	driverA := &dmtypes.Driver{Name: "A", UclassID: 0, OfMatch: []dmtypes.OfMatch{{Compatible: "generic,foo"}}}
	driverB := &dmtypes.Driver{Name: "B", UclassID: 0, OfMatch: []dmtypes.OfMatch{{Compatible: "acme,foo-v2"}}}

	b, _ := newBinder([]*dmtypes.Driver{driverA, driverB}, []*dmtypes.UclassDriver{uc})

	tree := hdtfake.NewTree()
	n := tree.AddChild(nil, "foodev").SetCompatible("acme,foo-v2", "generic,foo")

	dev, err := b.BindHDTNode(nil, tree, n, nil, false)
	assert.NoError(t, err)
	assert.NotNil(t, dev)
	assert.Same(t, driverB, dev.Driver)
}

// Scenario 5: pre-reloc gate.
func TestBindHDTNodePreRelocGateSkips(t *testing.T) {
	uc := &dmtypes.UclassDriver{Name: "generic", ID: 0}
	driver := &dmtypes.Driver{Name: "plain", UclassID: 0, OfMatch: []dmtypes.OfMatch{{Compatible: "acme,plain"}}}
	b, _ := newBinder([]*dmtypes.Driver{driver}, []*dmtypes.UclassDriver{uc})

	tree := hdtfake.NewTree()
	n := tree.AddChild(nil, "plaindev").SetCompatible("acme,plain")

	dev, err := b.BindHDTNode(nil, tree, n, nil, true)
	assert.NoError(t, err)
	assert.Nil(t, dev, "neither node nor driver is pre-reloc eligible")
}

func TestBindHDTNodeNoCompatibleIsNotAnError(t *testing.T) {
	b, _ := newBinder(nil, nil)
	tree := hdtfake.NewTree()
	n := tree.AddChild(nil, "bare")

	dev, err := b.BindHDTNode(nil, tree, n, nil, false)
	assert.NoError(t, err)
	assert.Nil(t, dev)
}
