package escrow

import (
	"sync"
	"testing"

	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
)

func TestConcurrentReleaseAndRefund(t *testing.T) {
	const attempts = 16

	f := newFixture(t)
	esc, release, refund := f.fund(t, 100)

	var (
		wg   sync.WaitGroup
		errs = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.keeper.Release(f.ctx(0), esc.ID, release, nil)
			} else {
				_, err = f.keeper.Refund(f.ctx(0), esc.ID, refund, nil)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var won int
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.IsErr(t, errors.ErrInvalidState, err)
	}
	assert.Equal(t, 1, won)

	res := f.status(t, esc.ID)
	assert.Equal(t, uint64(0), res.Held)
	paid := f.balance(t, f.merchant.Address()) + f.balance(t, f.customer.Address())
	assert.Equal(t, uint64(initialFunds), paid)
	if res.Status != StatusReleased && res.Status != StatusRefunded {
		t.Fatalf("unexpected final status %s", res.Status)
	}
}

func TestConcurrentEscrows(t *testing.T) {
	const escrows = 10

	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make(chan []byte, escrows)
	for i := 0; i < escrows; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			esc, release, _, err := f.keeper.Create(f.ctx(0), CreateRequest{
				OrderID:      []byte("order"),
				Customer:     f.customer.Address(),
				Merchant:     f.merchant.Address(),
				Amount:       10,
				AuthorizerID: f.authorizer,
				AssetType:    "IOV",
			})
			if err != nil {
				t.Errorf("create: %s", err)
				return
			}
			if _, err := f.keeper.Deposit(f.ctx(0, f.customer), esc.ID, f.customer.Address(), asset.NewAmount(10, "IOV")); err != nil {
				t.Errorf("deposit %X: %s", esc.ID, err)
				return
			}
			if _, err := f.keeper.Release(f.ctx(0), esc.ID, release, nil); err != nil {
				t.Errorf("release %X: %s", esc.ID, err)
				return
			}
			ids <- esc.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[string(id)] {
			t.Fatalf("escrow id %X created twice", id)
		}
		seen[string(id)] = true
	}
	assert.Equal(t, escrows, len(seen))
	assert.Equal(t, uint64(escrows*10), f.balance(t, f.merchant.Address()))
	assert.Equal(t, uint64(initialFunds-escrows*10), f.balance(t, f.customer.Address()))
}
