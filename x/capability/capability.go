package capability

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gogo/protobuf/proto"
	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

const (
	secretSize = 32
	digestSize = 32

	tokenPrefix = "cap1_"
)

// Capability is a release or refund token. The zero value is not a valid
// token, the only way to obtain one is Store.MintPair or Decode.
type Capability struct {
	id           uuid.UUID
	kind         Kind
	escrowID     []byte
	authorizerID custody.Address
	secret       [secretSize]byte
}

// ID returns the token identifier.
func (c *Capability) ID() uuid.UUID { return c.id }

// Kind returns the operation this token authorizes.
func (c *Capability) Kind() Kind { return c.kind }

// EscrowID returns the ID of the escrow this token is bound to.
func (c *Capability) EscrowID() []byte { return append([]byte(nil), c.escrowID...) }

// AuthorizerID returns the authorization context this token is bound to.
func (c *Capability) AuthorizerID() custody.Address {
	return append(custody.Address(nil), c.authorizerID...)
}

// String returns a description of the token that does not reveal its
// secret.
func (c *Capability) String() string {
	if c == nil {
		return "capability(nil)"
	}
	return fmt.Sprintf("%s capability %s", c.kind, c.id)
}

func (c *Capability) digest() []byte {
	d := blake3.Sum256(c.secret[:])
	return d[:]
}

// Encode returns the text representation of this token. Anyone holding the
// encoded form can use the token, treat it as a secret.
func (c *Capability) Encode() (string, error) {
	if c == nil || c.kind == KindInvalid {
		return "", errors.Wrap(ErrCapabilityMismatch, "zero value token")
	}
	raw, err := proto.Marshal(&tokenWire{
		ID:           c.id[:],
		Kind:         c.kind,
		EscrowID:     c.escrowID,
		AuthorizerID: c.authorizerID,
		Secret:       c.secret[:],
	})
	if err != nil {
		return "", errors.Wrapf(errors.ErrModel, "marshal token: %s", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode reads a token produced by Encode. A decoded token is usable only
// if the store still holds a matching, unconsumed record.
func Decode(s string) (*Capability, error) {
	w, err := decodeWire(s)
	if err != nil {
		return nil, err
	}
	if w.Kind != KindRelease && w.Kind != KindRefund {
		return nil, errors.Wrapf(ErrCapabilityMismatch, "not an escrow token: %s", w.Kind)
	}
	id, err := uuid.FromBytes(w.ID)
	if err != nil {
		return nil, errors.Wrap(ErrCapabilityMismatch, "invalid token ID")
	}
	c := &Capability{
		id:           id,
		kind:         w.Kind,
		escrowID:     w.EscrowID,
		authorizerID: w.AuthorizerID,
	}
	copy(c.secret[:], w.Secret)
	return c, nil
}

func decodeWire(s string) (*tokenWire, error) {
	if !strings.HasPrefix(s, tokenPrefix) {
		return nil, errors.Wrap(errors.ErrInput, "not a capability token")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(s, tokenPrefix))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "malformed token encoding")
	}
	var w tokenWire
	if err := proto.Unmarshal(raw, &w); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "malformed token: %s", err)
	}
	if len(w.Secret) != secretSize {
		return nil, errors.Wrap(errors.ErrInput, "malformed token secret")
	}
	return &w, nil
}

// AdminCapability is the global admin token. It is not bound to any escrow
// and is never consumed.
type AdminCapability struct {
	id     uuid.UUID
	secret [secretSize]byte
}

// ID returns the token identifier.
func (a *AdminCapability) ID() uuid.UUID { return a.id }

// String returns a description of the token that does not reveal its
// secret.
func (a *AdminCapability) String() string {
	if a == nil {
		return "admin capability(nil)"
	}
	return fmt.Sprintf("admin capability %s", a.id)
}

func (a *AdminCapability) digest() []byte {
	d := blake3.Sum256(a.secret[:])
	return d[:]
}

// Encode returns the text representation of the admin token.
func (a *AdminCapability) Encode() (string, error) {
	if a == nil || a.id == uuid.Nil {
		return "", errors.Wrap(errors.ErrUnauthorized, "zero value admin token")
	}
	raw, err := proto.Marshal(&tokenWire{
		ID:     a.id[:],
		Kind:   KindAdmin,
		Secret: a.secret[:],
	})
	if err != nil {
		return "", errors.Wrapf(errors.ErrModel, "marshal token: %s", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeAdmin reads an admin token produced by AdminCapability.Encode.
func DecodeAdmin(s string) (*AdminCapability, error) {
	w, err := decodeWire(s)
	if err != nil {
		return nil, err
	}
	if w.Kind != KindAdmin {
		return nil, errors.Wrap(errors.ErrUnauthorized, "not an admin token")
	}
	id, err := uuid.FromBytes(w.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid token ID")
	}
	a := &AdminCapability{id: id}
	copy(a.secret[:], w.Secret)
	return a, nil
}

// digestEqual compares digests in constant time.
func digestEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
