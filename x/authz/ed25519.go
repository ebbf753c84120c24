package authz

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
)

// Ed25519 approves a request when its proof is a signature of the key over
// SignBytes. The request must name the key address as its authorizer, so
// a proof cannot be reused for escrows bound to another context.
type Ed25519 struct {
	key crypto.PublicKey
}

// NewEd25519 returns an authorizer accepting proofs of given key.
func NewEd25519(key crypto.PublicKey) *Ed25519 {
	return &Ed25519{key: key}
}

// Address returns the authorizer address escrows must be bound to.
func (a *Ed25519) Address() custody.Address {
	return a.key.Address()
}

// Authorize implements Authorizer.
func (a *Ed25519) Authorize(ctx context.Context, req *Request) (bool, error) {
	if len(req.Proof) == 0 || !req.AuthorizerID.Equals(a.key.Address()) {
		return false, nil
	}
	msg, err := SignBytes(req)
	if err != nil {
		return false, err
	}
	return a.key.Verify(msg, req.Proof), nil
}

// Prove returns the proof an Ed25519 authorizer of the signer key accepts
// for given request.
func Prove(signer crypto.Signer, req *Request) ([]byte, error) {
	msg, err := SignBytes(req)
	if err != nil {
		return nil, err
	}
	return signer.Sign(msg)
}
