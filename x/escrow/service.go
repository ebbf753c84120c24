package escrow

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/capability"
)

// Service exposes escrow operations for a single asset type known at
// compile time. Balances of other assets cannot be passed in, and every
// operation still checks at runtime that the escrow holds asset A.
type Service[A asset.Type] struct {
	keeper *Keeper
}

// NewService returns a service for escrows of asset A.
func NewService[A asset.Type](k *Keeper) *Service[A] {
	return &Service[A]{keeper: k}
}

// Create creates an escrow of asset A. The asset type of the request must
// be empty or equal to the ticker of A.
func (s *Service[A]) Create(ctx context.Context, req CreateRequest) (*Escrow, *capability.Capability, *capability.Capability, error) {
	ticker := asset.TickerOf[A]()
	if req.AssetType != "" && req.AssetType != ticker {
		return nil, nil, nil, errors.Wrapf(errors.ErrAssetType, "service handles %s, not %s", ticker, req.AssetType)
	}
	req.AssetType = ticker
	return s.keeper.Create(ctx, req)
}

// Deposit moves the balance into custody of the escrow.
func (s *Service[A]) Deposit(ctx context.Context, id []byte, depositor custody.Address, b asset.Balance[A]) (*Escrow, error) {
	return s.keeper.Deposit(ctx, id, depositor, b.Amount())
}

// Release pays custody to the merchant and returns the paid balance.
func (s *Service[A]) Release(ctx context.Context, id []byte, c *capability.Capability, proof []byte) (asset.Balance[A], error) {
	paid, err := s.keeper.disburse(ctx, id, c, proof, capability.KindRelease, asset.TickerOf[A]())
	if err != nil {
		return asset.Balance[A]{}, err
	}
	return asset.BalanceOf[A](paid)
}

// Refund pays custody back to the customer and returns the paid balance.
func (s *Service[A]) Refund(ctx context.Context, id []byte, c *capability.Capability, proof []byte) (asset.Balance[A], error) {
	paid, err := s.keeper.disburse(ctx, id, c, proof, capability.KindRefund, asset.TickerOf[A]())
	if err != nil {
		return asset.Balance[A]{}, err
	}
	return asset.BalanceOf[A](paid)
}

// Dispute freezes the escrow.
func (s *Service[A]) Dispute(ctx context.Context, id []byte, admin *capability.AdminCapability) (*Escrow, error) {
	if err := s.checkAsset(ctx, id); err != nil {
		return nil, err
	}
	return s.keeper.Dispute(ctx, id, admin)
}

// EmergencyWithdraw pays custody of a disputed escrow to recipient.
func (s *Service[A]) EmergencyWithdraw(ctx context.Context, id []byte, admin *capability.AdminCapability, recipient custody.Address) (asset.Balance[A], error) {
	paid, err := s.keeper.emergencyWithdraw(ctx, id, admin, recipient, asset.TickerOf[A]())
	if err != nil {
		return asset.Balance[A]{}, err
	}
	return asset.BalanceOf[A](paid)
}

// Query returns the status of the escrow and the balance it holds.
func (s *Service[A]) Query(ctx context.Context, id []byte) (Status, asset.Balance[A], error) {
	e, err := s.keeper.Get(ctx, id)
	if err != nil {
		return 0, asset.Balance[A]{}, err
	}
	held, err := asset.BalanceOf[A](e.Held())
	if err != nil {
		return 0, asset.Balance[A]{}, err
	}
	return e.Status, held, nil
}

func (s *Service[A]) checkAsset(ctx context.Context, id []byte) error {
	e, err := s.keeper.Get(ctx, id)
	if err != nil {
		return err
	}
	if t := asset.TickerOf[A](); e.AssetTypeTag != t {
		return errors.Wrapf(errors.ErrAssetType, "escrow holds %s, not %s", e.AssetTypeTag, t)
	}
	return nil
}
