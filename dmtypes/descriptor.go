// SPDX-License-Identifier: Apache-2.0

package dmtypes

// NoParent marks a descriptor with no static parent; it binds under
// whatever root the scanner is given.
const NoParent = -1

// Descriptor is a static, build-time description of a device to bind
// before any HDT scan ("drvinfo" in spec.md's glossary). ParentIdx
// indexes another Descriptor in the same table, or NoParent.
type Descriptor struct {
	DriverName string
	PlatData   interface{}
	ParentIdx  int
}
