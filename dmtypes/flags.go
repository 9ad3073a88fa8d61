// SPDX-License-Identifier: Apache-2.0

package dmtypes

// DriverFlag is a bitset of static driver capability flags.
type DriverFlag uint32

const (
	// DriverFlagPreReloc marks a driver eligible to bind/probe before
	// the bootloader relocates itself in memory.
	DriverFlagPreReloc DriverFlag = 1 << iota
	// DriverFlagProbeAfterBind marks a driver whose devices the probe
	// engine should activate as soon as probe_tree reaches them,
	// rather than waiting for an explicit Probe call (spec.md §4.3,
	// §9 device flag PROBE_AFTER_BIND).
	DriverFlagProbeAfterBind
)

func (f DriverFlag) Has(bit DriverFlag) bool { return f&bit != 0 }

// DeviceFlag is a bitset of per-device lifecycle flags (spec.md §3).
type DeviceFlag uint32

const (
	DeviceFlagBound DeviceFlag = 1 << iota
	DeviceFlagPlatDataValid
	DeviceFlagActivated
	DeviceFlagProbeAfterBind
	DeviceFlagPreReloc
	DeviceFlagRemoveVitalFirst
)

func (f DeviceFlag) Has(bit DeviceFlag) bool  { return f&bit != 0 }
func (f *DeviceFlag) set(bit DeviceFlag)      { *f |= bit }
func (f *DeviceFlag) clear(bit DeviceFlag)    { *f &^= bit }

// RemoveFlag distinguishes the sweep a remove hook is called during
// (spec.md §6, root uninit "vital first" pass).
type RemoveFlag int

const (
	RemoveNormal RemoveFlag = iota
	RemoveVitalFirst
	RemoveNonVital
)
