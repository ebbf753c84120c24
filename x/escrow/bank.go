package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
)

// Bank moves funds between parties and escrow custody. Both calls are
// made inside the escrow transaction with the db of that transaction, so
// a failed escrow operation never leaves a half finished transfer.
type Bank interface {
	// Debit takes funds from the owner, for example a deposit.
	Debit(db custody.KVStore, owner custody.Address, amount asset.Amount) error
	// Credit gives funds to the owner, for example a release.
	Credit(db custody.KVStore, owner custody.Address, amount asset.Amount) error
	// LockKey returns the key that must be locked before the balance of
	// given owner is modified, or nil if no lock is required.
	LockKey(owner custody.Address) []byte
}

// NoBank accepts every transfer without keeping any balances. Use it when
// settlement happens outside of the custody store.
type NoBank struct{}

var _ Bank = NoBank{}

func (NoBank) Debit(custody.KVStore, custody.Address, asset.Amount) error  { return nil }
func (NoBank) Credit(custody.KVStore, custody.Address, asset.Amount) error { return nil }
func (NoBank) LockKey(custody.Address) []byte                              { return nil }
