// SPDX-License-Identifier: Apache-2.0

package dmtypes

import "unsafe"

// MemoryStats reports approximate byte counts per attachment kind
// across every live device, for the external diagnostic commands
// spec.md §6 describes (get_memory_stats).
type MemoryStats struct {
	PlatDataBytes   int
	PrivDataBytes   int
	UclassPrivBytes int
	ParentPrivBytes int
	DeviceRecords   int
}

// deviceRecordSize approximates the fixed overhead of one Device
// record, reported by RecordBytes. MemoryStats.DeviceRecords counts
// records and does not include this size. It is not
// meant to be exact -- the core has no allocator of its own to query
// (spec.md §5, allocators are external) -- only representative.
var deviceRecordSize = int(unsafe.Sizeof(Device{}))

// AccountDevice folds dev's attachment sizes into stats. sizeOf reports
// the byte size of an attachment handle (nil => 0); callers that track
// real allocation sizes pass a function backed by their allocator,
// otherwise AccountDevice counts the size of the interface value itself
// (two machine words) for any non-nil handle, not the data behind it.
func AccountDevice(stats *MemoryStats, dev *Device, sizeOf func(interface{}) int) {
	if sizeOf == nil {
		sizeOf = defaultSizeOf
	}
	stats.DeviceRecords++
	stats.PlatDataBytes += sizeOf(dev.PlatData)
	stats.PrivDataBytes += sizeOf(dev.PrivData)
	stats.UclassPrivBytes += sizeOf(dev.UclassPrivData)
	stats.ParentPrivBytes += sizeOf(dev.ParentPrivData)
}

func defaultSizeOf(v interface{}) int {
	if v == nil {
		return 0
	}
	return int(unsafe.Sizeof(v))
}

// RecordBytes returns the approximate fixed per-Device overhead. It is
// not folded into any MemoryStats field.
func RecordBytes() int { return deviceRecordSize }
