// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"github.com/hashicorp/go-multierror"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmtypes"
)

// extendedPaths are well-known HDT paths that contain devices but
// aren't devices themselves (spec.md §4.6).
var extendedPaths = []string{"/chosen", "/clocks", "/firmware"}

// SetExtendedPaths overrides the well-known auxiliary paths walked by
// ExtendedScan. Platform glue calls this before scanning if its HDT
// layout differs from the built-in default set.
func SetExtendedPaths(paths []string) {
	extendedPaths = paths
}

// ScanHDT walks the immediate children of node, binding one device per
// enabled subnode. It does not recurse; spec.md §9's first Open
// Question resolves recursion depth to exactly one level here --
// deeper scanning is the explicit ScanSubtreeOf call below. The first
// error encountered is remembered but the walk continues over
// remaining siblings.
func (s *Scanner) ScanHDT(parent *dmtypes.Device, node api.Node, preRelocOnly bool) error {
	if s.HDT == nil {
		return nil
	}

	var first error
	for sub := s.HDT.FirstSubnode(node); s.HDT.IsValid(sub); sub = s.HDT.NextSubnode(sub) {
		if !s.HDT.IsEnabled(sub) {
			continue
		}
		_, err := s.Binder.BindHDTNode(parent, s.HDT, sub, nil, preRelocOnly)
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ScanHDTRoot walks only the top level of the HDT: root's immediate
// children become devices under parent.
func (s *Scanner) ScanHDTRoot(parent *dmtypes.Device, preRelocOnly bool) error {
	if s.HDT == nil {
		return nil
	}
	return s.ScanHDT(parent, s.HDT.RootNode(), preRelocOnly)
}

// ScanSubtreeOf walks node's children under device as parent. Exposed
// for drivers that declare a dynamic child domain and explicitly
// request deeper recursion than the one level ScanHDT performs on its
// own (spec.md §4.6).
func (s *Scanner) ScanSubtreeOf(device *dmtypes.Device, node api.Node, preRelocOnly bool) error {
	return s.ScanHDT(device, node, preRelocOnly)
}

// ExtendedScan scans the HDT root level, then each well-known
// auxiliary path's children as additional roots under root. Every path
// is attempted regardless of earlier failures; all errors are
// collected with go-multierror so callers can inspect the full set
// while the scanner still only reports the first one as its "primary"
// error per spec.md §4.6 ("first error wins, remaining roots still
// attempted").
func (s *Scanner) ExtendedScan(root *dmtypes.Device, preRelocOnly bool) error {
	var merr *multierror.Error

	if err := s.ScanHDTRoot(root, preRelocOnly); err != nil {
		merr = multierror.Append(merr, err)
	}

	if s.HDT == nil {
		return merr.ErrorOrNil()
	}

	for _, path := range extendedPaths {
		node, ok := s.HDT.Path(path)
		if !ok {
			continue
		}
		if err := s.ScanHDT(root, node, preRelocOnly); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	return merr.ErrorOrNil()
}
