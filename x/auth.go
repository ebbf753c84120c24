package x

import (
	"context"

	"github.com/iov-one/custody"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// keepers, so we can plug in another authentication system,
// rather than hard-coding one for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(context.Context) []custody.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(context.Context, custody.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx context.Context) []custody.Condition {
	var res []custody.Condition
	for _, impl := range m.impls {
		for _, c := range impl.GetConditions(ctx) {
			if !hasCondition(res, c) {
				res = append(res, c)
			}
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx context.Context, addr custody.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx context.Context, auth Authenticator) []custody.Address {
	conds := auth.GetConditions(ctx)
	addrs := make([]custody.Address, len(conds))
	for i, c := range conds {
		addrs[i] = c.Address()
	}
	return addrs
}

// MainSigner returns the first condition if any, otherwise nil
func MainSigner(ctx context.Context, auth Authenticator) custody.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

func hasCondition(conds []custody.Condition, c custody.Condition) bool {
	for _, have := range conds {
		if have.Equals(c) {
			return true
		}
	}
	return false
}

type ctxAuthKey struct{}

// ContextAuth authenticates the conditions that were attached to the
// context with WithConditions. The caller attaching conditions is
// responsible for having verified them, for example by checking a
// signature.
type ContextAuth struct{}

var _ Authenticator = ContextAuth{}

// WithConditions returns a context authenticating given conditions in
// addition to those already present.
func WithConditions(ctx context.Context, conds ...custody.Condition) context.Context {
	prev, _ := ctx.Value(ctxAuthKey{}).([]custody.Condition)
	all := make([]custody.Condition, 0, len(prev)+len(conds))
	all = append(all, prev...)
	all = append(all, conds...)
	return context.WithValue(ctx, ctxAuthKey{}, all)
}

// GetConditions returns all conditions attached to the context.
func (ContextAuth) GetConditions(ctx context.Context) []custody.Condition {
	conds, _ := ctx.Value(ctxAuthKey{}).([]custody.Condition)
	return conds
}

// HasAddress returns true if any attached condition has given address.
func (a ContextAuth) HasAddress(ctx context.Context, addr custody.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
