package wallet

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Bank stores balances in the custody store. It satisfies escrow.Bank.
type Bank struct {
	bucket orm.ModelBucket
}

// NewBank returns a bank using the "wallet" bucket.
func NewBank() *Bank {
	return &Bank{bucket: orm.NewModelBucket("wallet")}
}

// LockKey implements escrow.Bank.
func (b *Bank) LockKey(owner custody.Address) []byte {
	return []byte("wallet/" + owner.String())
}

// Balance returns the quantity of the asset owned by owner. An owner
// without a balance has zero.
func (b *Bank) Balance(db custody.ReadOnlyKVStore, owner custody.Address, ticker string) (asset.Amount, error) {
	bal, err := b.load(db, owner, ticker)
	if err != nil {
		return asset.Amount{}, err
	}
	return bal.Amount(), nil
}

// Balances returns all balances of owner, ordered by ticker.
func (b *Bank) Balances(db custody.ReadOnlyKVStore, owner custody.Address) ([]asset.Amount, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	it, err := b.bucket.PrefixScan(db, owner, false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var res []asset.Amount
	for {
		var bal Balance
		switch _, err := it.LoadNext(&bal); {
		case errors.ErrIteratorDone.Is(err):
			return res, nil
		case err != nil:
			return nil, err
		}
		res = append(res, bal.Amount())
	}
}

// Debit implements escrow.Bank. It fails with ErrInsufficientAmount if
// the owner does not have enough funds.
func (b *Bank) Debit(db custody.KVStore, owner custody.Address, amount asset.Amount) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	bal, err := b.load(db, owner, amount.Ticker)
	if err != nil {
		return err
	}
	left, err := bal.Amount().Subtract(amount)
	if err != nil {
		return errors.Wrapf(err, "wallet %s", owner)
	}
	bal.Quantity = left.Quantity
	return b.save(db, bal)
}

// Credit implements escrow.Bank.
func (b *Bank) Credit(db custody.KVStore, owner custody.Address, amount asset.Amount) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	bal, err := b.load(db, owner, amount.Ticker)
	if err != nil {
		return err
	}
	total, err := bal.Amount().Add(amount)
	if err != nil {
		return errors.Wrapf(err, "wallet %s", owner)
	}
	bal.Quantity = total.Quantity
	return b.save(db, bal)
}

func (b *Bank) load(db custody.ReadOnlyKVStore, owner custody.Address, ticker string) (*Balance, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	bal := Balance{Schema: 1, Owner: owner, Ticker: ticker}
	switch err := b.bucket.One(db, balanceKey(owner, ticker), &bal); {
	case errors.ErrNotFound.Is(err):
		return &Balance{Schema: 1, Owner: owner, Ticker: ticker}, nil
	case err != nil:
		return nil, err
	}
	return &bal, nil
}

func (b *Bank) save(db custody.KVStore, bal *Balance) error {
	key := balanceKey(bal.Owner, bal.Ticker)
	if bal.Quantity == 0 {
		if err := b.bucket.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	_, err := b.bucket.Put(db, key, bal)
	return err
}

func validAmount(a asset.Amount) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.IsZero() {
		return errors.Wrap(errors.ErrAmount, "amount must be greater than zero")
	}
	return nil
}
