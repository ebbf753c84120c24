package authz

import (
	"context"
	"sync"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Router dispatches requests to the authorizer registered for the request
// authorizer address. Requests for unknown addresses are denied.
type Router struct {
	mu     sync.RWMutex
	routes map[string]Authorizer
}

var _ PolicyChecker = (*Router)(nil)

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Authorizer)}
}

// Register adds an authorizer for given address. Registering an address
// twice fails with ErrDuplicate.
func (r *Router) Register(addr custody.Address, a Authorizer) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "authorizer address")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(addr)
	if _, ok := r.routes[key]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "authorizer %s", addr)
	}
	r.routes[key] = a
	return nil
}

// Has returns true if an authorizer is registered for given address.
func (r *Router) Has(addr custody.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routes[string(addr)]
	return ok
}

// Authorize implements Authorizer.
func (r *Router) Authorize(ctx context.Context, req *Request) (bool, error) {
	r.mu.RLock()
	a, ok := r.routes[string(req.AuthorizerID)]
	r.mu.RUnlock()
	if !ok {
		custody.GetLogger(ctx).Debug("no authorizer registered", "authorizer", req.AuthorizerID)
		return false, nil
	}
	return a.Authorize(ctx, req)
}

// CheckPolicy implements PolicyChecker. Policies for unknown addresses are
// not checked, requests for them are denied anyway.
func (r *Router) CheckPolicy(authorizerID custody.Address, policy []byte) error {
	r.mu.RLock()
	a, ok := r.routes[string(authorizerID)]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return CheckPolicy(a, authorizerID, policy)
}
