// SPDX-License-Identifier: Apache-2.0

// Package uclass is the runtime registry of live uclasses: created at
// most once per uclass id, the first time one of its members binds
// (spec.md §4.2). Grounded on the teacher's NewDeviceManager, which
// resolves its one piece of lazily-decided configuration
// (blockDriver) once at construction and reuses it afterward -- the
// same "decide once, reuse" shape, generalized to a whole map of
// lazily-created objects.
package uclass

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flashboot/dm/api"
	"github.com/flashboot/dm/dmerr"
	"github.com/flashboot/dm/dmtypes"
	"github.com/flashboot/dm/registry"
)

// Registry is the live uclass set.
type Registry struct {
	reg      *registry.Registry
	byID     map[dmtypes.UclassID]*dmtypes.Uclass
	order    []*dmtypes.Uclass
}

// New returns an empty uclass registry backed by reg for looking up
// static uclass drivers.
func New(reg *registry.Registry) *Registry {
	return &Registry{reg: reg, byID: make(map[dmtypes.UclassID]*dmtypes.Uclass)}
}

// Get returns the live uclass for id, creating it (and running its
// driver's Init hook) on first use.
func (r *Registry) Get(id dmtypes.UclassID) (*dmtypes.Uclass, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}

	drv, err := r.reg.LookupUclassDriver(id)
	if err != nil {
		return nil, errors.Wrapf(err, "uclass %d", id)
	}

	u := &dmtypes.Uclass{Driver: drv}
	if drv.Hooks.Init != nil {
		if err := drv.Hooks.Init(u); err != nil {
			return nil, dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "uclass %q init", drv.Name))
		}
	}

	r.byID[id] = u
	r.order = append(r.order, u)
	api.Logger().WithFields(logrus.Fields{"uclass": drv.Name, "id": id}).Debug("uclass created")
	return u, nil
}

// Count returns the number of live uclasses.
func (r *Registry) Count() int { return len(r.order) }

// All returns the live uclasses in creation order.
func (r *Registry) All() []*dmtypes.Uclass { return r.order }

// Destroy runs a uclass's driver Destroy hook and forgets it, used by
// the root lifecycle after its last member is unbound.
func (r *Registry) Destroy(u *dmtypes.Uclass) error {
	if len(u.Members) != 0 {
		return errors.Errorf("uclass %q still has %d member(s)", u.Driver.Name, len(u.Members))
	}
	if u.Driver.Hooks.Destroy != nil {
		if err := u.Driver.Hooks.Destroy(u); err != nil {
			return dmerr.Wrap(dmerr.KindDriverError, errors.Wrapf(err, "uclass %q destroy", u.Driver.Name))
		}
	}
	delete(r.byID, u.Driver.ID)
	for i, existing := range r.order {
		if existing == u {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
