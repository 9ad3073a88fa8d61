// SPDX-License-Identifier: Apache-2.0

package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/binder"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/hdtfake"
	"github.com/flashboot/dm/registry"
	"github.com/flashboot/dm/scanner"
	"github.com/flashboot/dm/uclass"
)

func newScanner(descs []*dmtypes.Descriptor, hdt api.HDTCursor) (*scanner.Scanner, *dmtypes.Device) {
	rootUc := &dmtypes.UclassDriver{Name: "ROOT", ID: 0}
	uartUc := &dmtypes.UclassDriver{Name: "UART_CLASS", ID: 1}
	rootDrv := &dmtypes.Driver{Name: "root_driver", UclassID: 0}
	uartDrv := &dmtypes.Driver{
		Name:     "uart",
		UclassID: 1,
		OfMatch:  []dmtypes.OfMatch{{Compatible: "generic,uart"}},
	}

	reg := registry.New([]*dmtypes.Driver{rootDrv, uartDrv}, []*dmtypes.UclassDriver{rootUc, uartUc}, descs)
	b := binder.New(reg, uclass.New(reg))

	s := scanner.New(b, reg, hdt)

	root, err := b.BindWithDriver(nil, rootDrv, "root", nil, nil)
	if err != nil {
		panic(err)
	}
	return s, root
}

// Scenario 1/2: single static root + one child, bound out of order.
func TestScanStaticDescriptorsResolvesOutOfOrderParents(t *testing.T) {
	descs := []*dmtypes.Descriptor{
		{DriverName: "uart", ParentIdx: 1},
		{DriverName: "root_driver", ParentIdx: dmtypes.NoParent},
	}
	s, root := newScanner(descs, nil)

	err := s.ScanStaticDescriptors(root, false)
	assert.NoError(t, err)

	uartDev := s.BoundSlot(0)
	rootDev := s.BoundSlot(1)
	assert.NotNil(t, uartDev)
	assert.NotNil(t, rootDev)
	assert.Same(t, rootDev, uartDev.Parent)
}

func TestScanStaticDescriptorsSecondBindIsNoOp(t *testing.T) {
	descs := []*dmtypes.Descriptor{
		{DriverName: "root_driver", ParentIdx: dmtypes.NoParent},
	}
	s, root := newScanner(descs, nil)

	assert.NoError(t, s.ScanStaticDescriptors(root, false))
	first := s.BoundSlot(0)

	assert.NoError(t, s.ScanStaticDescriptors(root, false))
	assert.Same(t, first, s.BoundSlot(0), "slot already filled must not rebind")
}

func TestScanStaticDescriptorsCycleDetected(t *testing.T) {
	descs := []*dmtypes.Descriptor{
		{DriverName: "uart", ParentIdx: 1},
		{DriverName: "uart", ParentIdx: 0},
	}
	s, root := newScanner(descs, nil)

	err := s.ScanStaticDescriptors(root, false)
	assert.Error(t, err)
	assert.Equal(t, dmerr.KindCycle, dmerr.KindOf(err))
}

func TestScanStaticDescriptorsBadParentIndex(t *testing.T) {
	descs := []*dmtypes.Descriptor{
		{DriverName: "uart", ParentIdx: 99},
	}
	s, root := newScanner(descs, nil)

	err := s.ScanStaticDescriptors(root, false)
	assert.Error(t, err)
	assert.Equal(t, dmerr.KindBadDescriptor, dmerr.KindOf(err))
}

func TestScanHDTRootBindsOneLevel(t *testing.T) {
	tree := hdtfake.NewTree()
	tree.AddChild(nil, "serial@0").SetCompatible("generic,uart")
	tree.AddChild(nil, "disabled@0").SetCompatible("generic,uart").SetEnabled(false)

	s, root := newScanner(nil, tree)

	err := s.ScanHDTRoot(root, false)
	assert.NoError(t, err)
	assert.Len(t, root.Children, 1)
	assert.Equal(t, "serial@0", root.Children[0].Name)
}

func TestExtendedScanVisitsAuxiliaryPaths(t *testing.T) {
	tree := hdtfake.NewTree()
	chosen := tree.AddPath("/chosen")
	tree.AddChild(chosen, "stdout-path").SetCompatible("generic,uart")

	s, root := newScanner(nil, tree)

	err := s.ExtendedScan(root, false)
	assert.NoError(t, err)
	assert.Len(t, root.Children, 1)
	assert.Equal(t, "stdout-path", root.Children[0].Name)
}
