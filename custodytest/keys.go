package custodytest

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
)

// NewKey returns a new random private key. It panics if the system source
// of randomness is not usable.
func NewKey() *crypto.PrivateKey {
	k, err := crypto.GenPrivateKey()
	if err != nil {
		panic(err)
	}
	return k
}

// NewCondition returns the signature condition of a new random key.
func NewCondition() custody.Condition {
	return NewKey().PublicKey().Condition()
}
