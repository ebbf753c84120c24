package wallet

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
)

const optKey = "wallet"

// GenesisAccount is used to parse the json from genesis file.
type GenesisAccount struct {
	Address custody.Address `json:"address"`
	Amounts []asset.Amount  `json:"amounts"`
}

// Initializer loads initial balances from the genesis file.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis credits every listed account.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	bank := NewBank()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		for _, amt := range acct.Amounts {
			if err := bank.Credit(db, acct.Address, amt); err != nil {
				return errors.Wrapf(err, "account %d", i)
			}
		}
	}
	return nil
}
