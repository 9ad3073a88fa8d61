// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"github.com/hashicorp/go-multierror"

	"github.com/flashboot/dm/dmtypes"
)

// ProbeTree depth-first walks root's subtree. A device is probed only
// if PROBE_AFTER_BIND is set; pre_reloc_only gates probing (not
// descent: children are always visited, spec.md §4.7). Each device's
// own probe error is reported but does not abort sibling probing.
func ProbeTree(e *Engine, root *dmtypes.Device, preRelocOnly bool) error {
	var merr *multierror.Error
	walkProbeTree(e, root, preRelocOnly, &merr)
	return merr.ErrorOrNil()
}

func walkProbeTree(e *Engine, dev *dmtypes.Device, preRelocOnly bool, merr **multierror.Error) {
	eligible := !preRelocOnly || dev.PreRelocEligible(e.HDT)

	if eligible && dev.Flags.Has(dmtypes.DeviceFlagProbeAfterBind) {
		if err := e.Probe(dev); err != nil {
			*merr = multierror.Append(*merr, err)
		}
	}

	for _, child := range dev.Children {
		walkProbeTree(e, child, preRelocOnly, merr)
	}
}
