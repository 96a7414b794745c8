package lockup

import "github.com/ethereum/go-ethereum/common"

// StaticRoles is a RoleAuthorizer backed by a fixed role-to-address map,
// suitable for deployments whose privileged callers are known at startup.
type StaticRoles struct {
	grants map[string]map[common.Address]struct{}
}

// NewStaticRoles returns an empty role table.
func NewStaticRoles() *StaticRoles {
	return &StaticRoles{grants: make(map[string]map[common.Address]struct{})}
}

// Grant authorises addr for role.
func (r *StaticRoles) Grant(role string, addr common.Address) {
	if r == nil || role == "" || addr == (common.Address{}) {
		return
	}
	holders, ok := r.grants[role]
	if !ok {
		holders = make(map[common.Address]struct{})
		r.grants[role] = holders
	}
	holders[addr] = struct{}{}
}

// IsAuthorized implements the RoleAuthorizer interface.
func (r *StaticRoles) IsAuthorized(caller common.Address, role string) bool {
	if r == nil {
		return false
	}
	_, ok := r.grants[role][caller]
	return ok
}
