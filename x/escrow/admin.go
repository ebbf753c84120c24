package escrow

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/txn"
	"github.com/iov-one/custody/x/audit"
	"github.com/iov-one/custody/x/capability"
)

// Dispute freezes a funded escrow. Release and refund tokens of a disputed
// escrow can no longer be used, funds can only leave through
// EmergencyWithdraw.
func (k *Keeper) Dispute(ctx context.Context, id []byte, admin *capability.AdminCapability) (*Escrow, error) {
	esc, err := k.update(ctx, id, func(tx *txn.Tx, e *Escrow) error {
		if e.Status != StatusFunded {
			return errors.Wrapf(errors.ErrInvalidState, "escrow is %s", e.Status)
		}
		if err := k.caps.VerifyAdmin(tx.Store(), admin); err != nil {
			return err
		}
		e.Status = StatusDisputed
		return k.save(tx, e, audit.TypeDisputed, k.caller(tx.Context()), nil, e.Held().Quantity)
	})
	k.metrics.observe("dispute", err)
	if err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Info("escrow disputed", "escrow", idString(id))
	return esc, nil
}

// EmergencyWithdraw pays all funds of a disputed escrow to recipient.
func (k *Keeper) EmergencyWithdraw(ctx context.Context, id []byte, admin *capability.AdminCapability, recipient custody.Address) (asset.Amount, error) {
	return k.emergencyWithdraw(ctx, id, admin, recipient, "")
}

func (k *Keeper) emergencyWithdraw(ctx context.Context, id []byte, admin *capability.AdminCapability, recipient custody.Address, ticker string) (asset.Amount, error) {
	var paid asset.Amount
	_, err := k.update(ctx, id, func(tx *txn.Tx, e *Escrow) error {
		if e.Status != StatusDisputed {
			return errors.Wrapf(errors.ErrInvalidState, "escrow is %s", e.Status)
		}
		if e.Custody == nil {
			return errors.Wrap(ErrNoFunds, "custody is empty")
		}
		if ticker != "" && ticker != e.AssetTypeTag {
			return errors.Wrapf(errors.ErrAssetType, "escrow holds %s, not %s", e.AssetTypeTag, ticker)
		}
		db := tx.Store()
		if err := k.caps.VerifyAdmin(db, admin); err != nil {
			return err
		}
		if err := recipient.Validate(); err != nil {
			return errors.Field("Recipient", err, "invalid")
		}

		amount, err := e.extract()
		if err != nil {
			return err
		}
		if err := k.lockBank(tx, recipient); err != nil {
			return err
		}
		if err := k.bank.Credit(db, recipient, amount); err != nil {
			return errors.Wrap(err, "credit recipient")
		}
		paid = amount
		e.Status = StatusEmergencyWithdrawn
		return k.save(tx, e, audit.TypeEmergencyWithdrawn, k.caller(tx.Context()), recipient, amount.Quantity)
	})
	k.metrics.observe("emergency_withdraw", err)
	if err != nil {
		return asset.Amount{}, err
	}
	custody.GetLogger(ctx).Info("escrow emergency withdrawn",
		"escrow", idString(id),
		"recipient", recipient,
		"amount", paid)
	return paid, nil
}
