package wallet

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

func TestCreditDebit(t *testing.T) {
	db := store.MemStore()
	b := NewBank()
	alice := custodytest.NewCondition().Address()

	got, err := b.Balance(db, alice, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, asset.NewAmount(0, "IOV"), got)

	assert.Nil(t, b.Credit(db, alice, asset.NewAmount(100, "IOV")))
	assert.Nil(t, b.Credit(db, alice, asset.NewAmount(5, "ETH")))
	assert.Nil(t, b.Debit(db, alice, asset.NewAmount(30, "IOV")))

	got, err = b.Balance(db, alice, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, asset.NewAmount(70, "IOV"), got)

	all, err := b.Balances(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, []asset.Amount{asset.NewAmount(5, "ETH"), asset.NewAmount(70, "IOV")}, all)

	assert.IsErr(t, errors.ErrInsufficientAmount, b.Debit(db, alice, asset.NewAmount(71, "IOV")))
	assert.IsErr(t, errors.ErrInsufficientAmount, b.Debit(db, alice, asset.NewAmount(1, "BTC")))

	// Emptied balances are removed.
	assert.Nil(t, b.Debit(db, alice, asset.NewAmount(5, "ETH")))
	all, err = b.Balances(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, []asset.Amount{asset.NewAmount(70, "IOV")}, all)
}

func TestInvalidOperations(t *testing.T) {
	db := store.MemStore()
	b := NewBank()
	alice := custodytest.NewCondition().Address()

	assert.IsErr(t, errors.ErrAmount, b.Credit(db, alice, asset.NewAmount(0, "IOV")))
	assert.IsErr(t, errors.ErrAssetType, b.Credit(db, alice, asset.NewAmount(1, "iov")))
	assert.IsErr(t, errors.ErrInput, b.Credit(db, custody.Address{1, 2}, asset.NewAmount(1, "IOV")))

	assert.Nil(t, b.Credit(db, alice, asset.NewAmount(math.MaxUint64, "IOV")))
	assert.IsErr(t, errors.ErrOverflow, b.Credit(db, alice, asset.NewAmount(1, "IOV")))
}

func TestLockKeyPerOwner(t *testing.T) {
	b := NewBank()
	alice := custodytest.NewCondition().Address()
	bob := custodytest.NewCondition().Address()
	if string(b.LockKey(alice)) == string(b.LockKey(bob)) {
		t.Fatal("owners share a lock key")
	}
	assert.Equal(t, b.LockKey(alice), b.LockKey(alice))
}

func TestGenesis(t *testing.T) {
	alice := custodytest.NewCondition().Address()
	raw, err := json.Marshal([]GenesisAccount{
		{Address: alice, Amounts: []asset.Amount{asset.NewAmount(10, "IOV"), asset.NewAmount(3, "ETH")}},
	})
	assert.Nil(t, err)

	db := store.MemStore()
	opts := custody.Options{optKey: raw}
	assert.Nil(t, Initializer{}.FromGenesis(opts, db))

	got, err := NewBank().Balance(db, alice, "ETH")
	assert.Nil(t, err)
	assert.Equal(t, asset.NewAmount(3, "ETH"), got)

	bad := custody.Options{optKey: json.RawMessage(`[{"address": "", "amounts": []}]`)}
	if err := (Initializer{}).FromGenesis(bad, store.MemStore()); err == nil {
		t.Fatal("account without address accepted")
	}
}
