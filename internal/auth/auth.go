// Package auth provides the authorization predicate gating privileged ledger
// operations. It is a capability check, not an identity system: the engine asks
// whether a caller account may perform an admin operation and gets a boolean.
package auth

// Authorizer decides whether an account may perform privileged operations
// (certificate minting, wallet creation, order finalization).
type Authorizer interface {
	Authorized(account string) bool
}

// SingleOwner authorizes exactly one admin account.
type SingleOwner struct {
	Admin string
}

// NewSingleOwner creates an authorizer that accepts only the given account.
func NewSingleOwner(admin string) *SingleOwner {
	return &SingleOwner{Admin: admin}
}

// Authorized reports whether account is the configured admin. An empty admin
// configuration authorizes nobody.
func (a *SingleOwner) Authorized(account string) bool {
	return a.Admin != "" && account == a.Admin
}

// AllowAll authorizes every account. Used in standalone mode and tests.
type AllowAll struct{}

// Authorized always returns true.
func (AllowAll) Authorized(string) bool { return true }
