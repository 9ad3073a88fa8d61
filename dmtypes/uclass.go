// SPDX-License-Identifier: Apache-2.0

package dmtypes

// Uclass is a live set of devices sharing a common capability,
// created at most once per UclassID, the first time a member binds
// (spec.md §3). Member order is insertion (= bind) order.
type Uclass struct {
	Driver   *UclassDriver
	Members  []*Device
	PrivData interface{}
}

// AddMember appends dev to the uclass's member list.
func (u *Uclass) AddMember(dev *Device) {
	u.Members = append(u.Members, dev)
}

// RemoveMember removes dev from the uclass's member list.
func (u *Uclass) RemoveMember(dev *Device) {
	for i, m := range u.Members {
		if m == dev {
			u.Members = append(u.Members[:i], u.Members[i+1:]...)
			return
		}
	}
}
