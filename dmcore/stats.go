// SPDX-License-Identifier: Apache-2.0

package dmcore

import "github.com/flashboot/dm/dmtypes"

// Stats is the (device_count, uclass_count) pair spec.md §6's
// get_stats returns.
type Stats struct {
	DeviceCount int
	UclassCount int
}

// GetStats returns the current device and uclass counts.
func (c *Core) GetStats() Stats {
	var stats Stats
	if c.root != nil {
		stats.DeviceCount = countDevices(c.root)
	}
	if c.uclasses != nil {
		stats.UclassCount = c.uclasses.Count()
	}
	return stats
}

func countDevices(dev *dmtypes.Device) int {
	n := 1
	for _, child := range dev.Children {
		n += countDevices(child)
	}
	return n
}

// GetMemoryStats returns byte counts for each attachment kind across
// every live device (spec.md §6).
func (c *Core) GetMemoryStats() dmtypes.MemoryStats {
	var stats dmtypes.MemoryStats
	if c.root != nil {
		accountTree(c.root, &stats)
	}
	return stats
}

func accountTree(dev *dmtypes.Device, stats *dmtypes.MemoryStats) {
	dmtypes.AccountDevice(stats, dev, nil)
	for _, child := range dev.Children {
		accountTree(child, stats)
	}
}
