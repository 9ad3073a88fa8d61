// SPDX-License-Identifier: Apache-2.0

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/registry"
)

func TestLookupDriverByName(t *testing.T) {
	uart := &dmtypes.Driver{Name: "uart"}
	root := &dmtypes.Driver{Name: "root_driver"}
	reg := registry.New([]*dmtypes.Driver{root, uart}, nil, nil)

	got, err := reg.LookupDriverByName("uart")
	assert.NoError(t, err)
	assert.Same(t, uart, got)

	_, err = reg.LookupDriverByName("missing")
	assert.Error(t, err)
	assert.Equal(t, dmerr.KindNotFound, dmerr.KindOf(err))
}

func TestLookupUclassDriver(t *testing.T) {
	serial := &dmtypes.UclassDriver{Name: "serial", ID: 2}
	reg := registry.New(nil, []*dmtypes.UclassDriver{serial}, nil)

	got, err := reg.LookupUclassDriver(2)
	assert.NoError(t, err)
	assert.Same(t, serial, got)

	_, err = reg.LookupUclassDriver(99)
	assert.Error(t, err)
}

func TestIterationOrderAndDescriptorIndex(t *testing.T) {
	d0 := &dmtypes.Descriptor{DriverName: "root_driver", ParentIdx: dmtypes.NoParent}
	d1 := &dmtypes.Descriptor{DriverName: "uart", ParentIdx: 0}
	reg := registry.New(nil, nil, []*dmtypes.Descriptor{d0, d1})

	assert.Equal(t, 2, reg.DescriptorCount())
	got, err := reg.Descriptor(1)
	assert.NoError(t, err)
	assert.Same(t, d1, got)

	_, err = reg.Descriptor(5)
	assert.Error(t, err)
	assert.Equal(t, dmerr.KindBadDescriptor, dmerr.KindOf(err))
}

func TestRegisterAppendsInOrder(t *testing.T) {
	reg := registry.New(nil, nil, nil)
	reg.RegisterDriver(&dmtypes.Driver{Name: "a"})
	reg.RegisterDriver(&dmtypes.Driver{Name: "b"})

	names := make([]string, 0)
	for _, d := range reg.IterDrivers() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)

	idx := reg.RegisterDescriptor(&dmtypes.Descriptor{DriverName: "a", ParentIdx: dmtypes.NoParent})
	assert.Equal(t, 0, idx)
}
