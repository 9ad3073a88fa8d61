// SPDX-License-Identifier: Apache-2.0

package binder

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
)

// splitCompatible parses a "compatible" property's raw bytes (a
// length-prefixed concatenation of NUL-terminated strings, priority
// high to low, spec.md §4.4 step 2) into an ordered string slice. A
// zero-length property is "no compatible", not an error.
func splitCompatible(data []byte, length int) ([]string, error) {
	if length == 0 || len(data) == 0 {
		return nil, nil
	}
	if length > len(data) {
		return nil, dmerr.Wrap(dmerr.KindBadHdt, errors.Wrapf(dmerr.ErrBadHdt, "compatible length %d exceeds buffer %d", length, len(data)))
	}
	buf := data[:length]
	var out []string
	for len(buf) > 0 {
		i := bytes.IndexByte(buf, 0)
		if i < 0 {
			// Unterminated trailing string: malformed per the NUL-
			// terminated-concatenation contract, but the node itself
			// is still usable for its other siblings -- treat as bad
			// HDT for this node only (spec.md §7: fatal to the
			// offending node, continue with siblings).
			return nil, dmerr.Wrap(dmerr.KindBadHdt, errors.Wrap(dmerr.ErrBadHdt, "unterminated compatible string"))
		}
		out = append(out, string(buf[:i]))
		buf = buf[i+1:]
	}
	return out, nil
}

// matchDriver finds the first driver (in registry order, or just
// restrict if non-nil) whose of_match table contains compatible,
// returning its match data.
func (b *Binder) matchDriver(compatible string, restrict *dmtypes.Driver) (*dmtypes.Driver, interface{}, bool) {
	candidates := b.Registry.IterDrivers()
	if restrict != nil {
		candidates = []*dmtypes.Driver{restrict}
	}

	for _, drv := range candidates {
		if len(drv.OfMatch) == 0 {
			if restrict != nil {
				// spec.md §4.4 step 3: "If the driver has no of_match
				// list and we have a restriction, break (no match
				// possible)."
				break
			}
			continue
		}
		for _, m := range drv.OfMatch {
			if m.Compatible == compatible {
				return drv, m.MatchData, true
			}
		}
	}
	return nil, nil, false
}

// BindHDTNode selects a driver for node by compatible-string priority
// match and binds it under parent. A nil, nil return means no driver
// matched, the driver refused, or the pre-reloc gate skipped the node
// -- none of which are errors (spec.md §4.4).
func (b *Binder) BindHDTNode(parent *dmtypes.Device, hdt api.HDTCursor, node api.Node, restrict *dmtypes.Driver, preRelocOnly bool) (*dmtypes.Device, error) {
	name := hdt.GetName(node)

	raw, length, ok := hdt.GetProperty(node, "compatible")
	if !ok {
		// spec.md §8: "HDT node with no compatible property -> not an
		// error; no device created."
		return nil, nil
	}

	compats, err := splitCompatible(raw, length)
	if err != nil {
		api.Logger().WithField("node", name).Warn("malformed compatible property")
		return nil, err
	}
	if len(compats) == 0 {
		return nil, nil
	}

	var chosen *dmtypes.Driver
	var matchData interface{}
	for _, c := range compats {
		if drv, md, found := b.matchDriver(c, restrict); found {
			chosen, matchData = drv, md
			break // higher-priority compatible string wins, §4.4 step 3/tie-break rule
		}
	}
	if chosen == nil {
		api.Logger().WithField("node", name).Debug("no driver matched any compatible string")
		return nil, nil
	}

	if preRelocOnly {
		nodePreReloc := hdt.PreReloc(node)
		if !nodePreReloc && !chosen.Flags.Has(dmtypes.DriverFlagPreReloc) {
			return nil, nil
		}
	}

	dev, err := b.BindWithDriver(parent, chosen, name, matchData, node)
	if err != nil {
		if errors.Is(err, dmerr.ErrRefused) {
			api.Logger().WithFields(logrus.Fields{"node": name, "driver": chosen.Name}).Info("bind refused")
			return nil, nil
		}
		return nil, err
	}
	return dev, nil
}
