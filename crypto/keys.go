/*
Package crypto holds the ed25519 keys used by custody to identify parties,
sign audit receipts and prove authorization decisions.
*/
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/stellar/go/exp/crypto/derivation"
	"golang.org/x/crypto/ed25519"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// ExtensionName is used for the conditions we get from signatures
const ExtensionName = "sigs"

// DefaultDerivationPath is the SLIP-10 path used when deriving keys from a
// seed and no other path is requested.
const DefaultDerivationPath = "m/44'/234'/0'"

// PublicKey is an ed25519 public key.
type PublicKey ed25519.PublicKey

// PrivateKey is an ed25519 private key. It is safe to share between
// goroutines.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() PublicKey
}

var _ Signer = (*PrivateKey)(nil)

// GenPrivateKey returns a random new private key.
func GenPrivateKey() (*PrivateKey, error) {
	return genPrivateKey(rand.Reader)
}

func genPrivateKey(r io.Reader) (*PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "generate key: %s", err)
	}
	return &PrivateKey{key: priv}, nil
}

// PrivateKeyFromSeed will deterministically generate a private key from
// a given 32 byte seed. Use if you have a strong source of external
// randomness, or for deterministic keys in test cases.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(errors.ErrInput, "seed must be %d bytes", ed25519.SeedSize)
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// DerivePrivateKey derives a key from a master seed following SLIP-10 for
// ed25519 along given path, for example "m/44'/234'/0'".
func DerivePrivateKey(seed []byte, path string) (*PrivateKey, error) {
	k, err := derivation.DeriveForPath(path, seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "derive key using path %q: %s", path, err)
	}
	return PrivateKeyFromSeed(k.Key)
}

// ParsePrivateKey decodes the hex representation returned by String.
func ParsePrivateKey(hexKey string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return PrivateKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		return PrivateKeyFromSeed(raw[:ed25519.SeedSize])
	default:
		return nil, errors.Wrapf(errors.ErrInput, "invalid private key length %d", len(raw))
	}
}

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	if p == nil || len(p.key) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrEmpty, "private key")
	}
	return ed25519.Sign(p.key, message), nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() PublicKey {
	return PublicKey(p.key.Public().(ed25519.PublicKey))
}

// Seed returns the 32 byte seed this key was created from. Handle with
// care, it is the secret.
func (p *PrivateKey) Seed() []byte {
	return p.key.Seed()
}

// Verify verifies the signature was created with this message and public key
func (p PublicKey) Verify(message, sig []byte) bool {
	if len(p) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p), message, sig)
}

// Condition encodes the public key into a custody condition
func (p PublicKey) Condition() custody.Condition {
	return custody.NewCondition(ExtensionName, "ed25519", p)
}

// Address returns the address of the signature condition of this key.
func (p PublicKey) Address() custody.Address {
	return p.Condition().Address()
}

// String returns the hex encoded key.
func (p PublicKey) String() string {
	return hex.EncodeToString(p)
}

// ParsePublicKey decodes the hex representation returned by String.
func ParsePublicKey(hexKey string) (PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "invalid public key length %d", len(raw))
	}
	return PublicKey(raw), nil
}
