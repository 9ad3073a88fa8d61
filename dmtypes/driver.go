// SPDX-License-Identifier: Apache-2.0

package dmtypes

// BindFunc is run once after a device is structurally linked into the
// tree. Returning dmerr.ErrRefused backs the device out cleanly without
// being treated as an error by the caller.
type BindFunc func(d *Device) error

// ProbeFunc activates a bound device. After it returns successfully the
// device's private data is considered valid.
type ProbeFunc func(d *Device) error

// RemoveFunc tears a device down during a teardown sweep.
type RemoveFunc func(d *Device, flags RemoveFlag) error

// UnbindFunc is the last call before a device record is destroyed.
type UnbindFunc func(d *Device) error

// ChildHookFunc is a structural hook a parent driver can implement to
// observe a child's bind/probe.
type ChildHookFunc func(parent, child *Device) error

// Hooks is the driver hook table. Every field may be nil; absence is a
// no-op success, per spec.md §6.
type Hooks struct {
	Bind           BindFunc
	Probe          ProbeFunc
	Remove         RemoveFunc
	Unbind         UnbindFunc
	ChildPreProbe  ChildHookFunc
	ChildPostBind  ChildHookFunc
}

// OfMatch is one compatible-string match table entry.
type OfMatch struct {
	Compatible string
	MatchData  interface{}
}

// Driver is a static, immutable description of a family of devices the
// core can bind. Declared once at build/registration time and never
// mutated afterward.
type Driver struct {
	Name        string
	UclassID    UclassID
	OfMatch     []OfMatch
	Flags       DriverFlag
	Hooks       Hooks
	PrivSize    int
	PlatSize    int
}

// UclassID identifies a family of drivers exposing a common capability.
type UclassID int

// UclassHooks is the uclass driver's own hook table.
type UclassHooks struct {
	Init      func(u *Uclass) error
	Destroy   func(u *Uclass) error
	PostProbe func(d *Device) error
	PreRemove func(d *Device) error
}

// UclassDriver is a static, immutable description of a uclass.
type UclassDriver struct {
	Name         string
	ID           UclassID
	Hooks        UclassHooks
	PerDevPriv   int
}
