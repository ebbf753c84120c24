package escrow

import (
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
)

// accept moves the deposited amount into custody. It fails if custody
// already holds funds or if the amount is not of the escrow asset.
func (e *Escrow) accept(amount asset.Amount) error {
	if e.Custody != nil {
		return errors.Wrap(errors.ErrInvalidState, "custody already holds funds")
	}
	if amount.Ticker != e.AssetTypeTag {
		return errors.Wrapf(errors.ErrAssetType, "escrow holds %s, not %s", e.AssetTypeTag, amount.Ticker)
	}
	e.Custody = &CustodyBalance{
		AssetType: amount.Ticker,
		Amount:    amount.Quantity,
	}
	return nil
}

// extract empties custody and returns everything it held.
func (e *Escrow) extract() (asset.Amount, error) {
	if e.Custody == nil {
		return asset.Amount{}, errors.Wrap(ErrNoFunds, "custody is empty")
	}
	if e.Custody.AssetType != e.AssetTypeTag {
		return asset.Amount{}, errors.Wrapf(errors.ErrAssetType, "escrow holds %s, not %s", e.AssetTypeTag, e.Custody.AssetType)
	}
	amount := asset.NewAmount(e.Custody.Amount, e.Custody.AssetType)
	e.Custody = nil
	return amount, nil
}

// Held returns the amount in custody. It is zero once funds have left.
func (e *Escrow) Held() asset.Amount {
	if e.Custody == nil {
		return asset.NewAmount(0, e.AssetTypeTag)
	}
	return asset.NewAmount(e.Custody.Amount, e.Custody.AssetType)
}
