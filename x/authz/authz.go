package authz

import (
	"context"
	"encoding/json"

	"github.com/gowebpki/jcs"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Action is the operation an authorization is requested for.
type Action string

const (
	ActionRelease Action = "release"
	ActionRefund  Action = "refund"
)

// Request describes a disbursement waiting for approval.
type Request struct {
	AuthorizerID custody.Address   `json:"authorizer_id"`
	Action       Action            `json:"action"`
	EscrowID     []byte            `json:"escrow_id"`
	OrderID      []byte            `json:"order_id"`
	Caller       custody.Address   `json:"caller,omitempty"`
	Amount       uint64            `json:"amount"`
	AssetType    string            `json:"asset_type"`
	DepositedAt  custody.Timestamp `json:"deposited_at"`
	Policy       []byte            `json:"policy,omitempty"`

	// Proof is supplied by the caller and interpreted by the
	// authorizer. It is not part of the signed request.
	Proof []byte `json:"-"`
}

// Authorizer decides whether a disbursement may happen. Returning false
// or an error both deny the request.
type Authorizer interface {
	Authorize(ctx context.Context, req *Request) (bool, error)
}

// Func adapts a function to the Authorizer interface.
type Func func(ctx context.Context, req *Request) (bool, error)

// Authorize implements Authorizer.
func (fn Func) Authorize(ctx context.Context, req *Request) (bool, error) {
	return fn(ctx, req)
}

// AllowAll approves every request.
type AllowAll struct{}

// Authorize implements Authorizer.
func (AllowAll) Authorize(context.Context, *Request) (bool, error) {
	return true, nil
}

// PolicyChecker is implemented by authorizers that interpret the escrow
// policy. CheckPolicy returns an error for a policy under which no request
// can be evaluated, so that such escrows are rejected when created.
type PolicyChecker interface {
	CheckPolicy(authorizerID custody.Address, policy []byte) error
}

// CheckPolicy validates the policy with a, if a implements PolicyChecker.
func CheckPolicy(a Authorizer, authorizerID custody.Address, policy []byte) error {
	if pc, ok := a.(PolicyChecker); ok {
		return pc.CheckPolicy(authorizerID, policy)
	}
	return nil
}

// All approves a request only if every authorizer approves it. Evaluation
// stops at the first denial.
type All []Authorizer

var _ PolicyChecker = All(nil)

// CheckPolicy implements PolicyChecker. Every authorizer must accept the
// policy.
func (all All) CheckPolicy(authorizerID custody.Address, policy []byte) error {
	for _, a := range all {
		if err := CheckPolicy(a, authorizerID, policy); err != nil {
			return err
		}
	}
	return nil
}

// Authorize implements Authorizer.
func (all All) Authorize(ctx context.Context, req *Request) (bool, error) {
	if len(all) == 0 {
		return false, nil
	}
	for _, a := range all {
		ok, err := a.Authorize(ctx, req)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// SignDomain is prepended to the canonical request before signing.
const SignDomain = "custody/authorize/v1"

// SignBytes returns the message an authorization proof signs: the domain
// tag followed by the canonical (RFC 8785) JSON form of the request. The
// proof itself is never part of the message.
func SignBytes(req *Request) ([]byte, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "json: %s", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "canonical json: %s", err)
	}
	msg := make([]byte, 0, len(SignDomain)+len(canonical))
	msg = append(msg, SignDomain...)
	return append(msg, canonical...), nil
}
