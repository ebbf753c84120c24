package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/txn"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/audit"
	"github.com/iov-one/custody/x/authz"
	"github.com/iov-one/custody/x/capability"
)

// Keeper executes escrow operations. Each operation is a separate
// transaction locking the escrow it acts on, so operations on different
// escrows run in parallel and operations on the same escrow are
// serialized.
type Keeper struct {
	exec       *txn.Executor
	bucket     orm.ModelBucket
	caps       *capability.Store
	events     *audit.Log
	authorizer authz.Authorizer
	bank       Bank
	auth       x.Authenticator
	metrics    *Metrics
}

// Option configures a Keeper.
type Option func(*Keeper)

// WithAuthorizer sets the authorization context consulted on release and
// refund. The default approves everything.
func WithAuthorizer(a authz.Authorizer) Option {
	return func(k *Keeper) { k.authorizer = a }
}

// WithBank sets the bank funds are moved with. The default is NoBank.
func WithBank(b Bank) Option {
	return func(k *Keeper) { k.bank = b }
}

// WithAuthenticator sets the source of caller identities. The default
// reads conditions set with x.WithConditions.
func WithAuthenticator(a x.Authenticator) Option {
	return func(k *Keeper) { k.auth = a }
}

// WithAuditLog sets the log events are appended to.
func WithAuditLog(l *audit.Log) Option {
	return func(k *Keeper) { k.events = l }
}

// WithMetrics enables metrics.
func WithMetrics(m *Metrics) Option {
	return func(k *Keeper) { k.metrics = m }
}

// NewKeeper returns a keeper running its transactions with exec.
func NewKeeper(exec *txn.Executor, opts ...Option) *Keeper {
	k := &Keeper{
		exec:       exec,
		bucket:     NewBucket(),
		caps:       capability.NewStore(),
		events:     audit.NewLog(),
		authorizer: authz.AllowAll{},
		bank:       NoBank{},
		auth:       x.ContextAuth{},
	}
	for _, fn := range opts {
		fn(k)
	}
	return k
}

// CreateRequest holds the parameters of a new escrow.
type CreateRequest struct {
	OrderID      []byte
	Customer     custody.Address
	Merchant     custody.Address
	Amount       uint64
	AuthorizerID custody.Address
	Policy       []byte
	AssetType    string
}

// Validate returns an error if an escrow cannot be created from this
// request.
func (r *CreateRequest) Validate() error {
	var errs error
	if len(r.OrderID) == 0 {
		errs = errors.Append(errs, errors.Field("OrderID", errors.ErrEmpty, "required"))
	}
	if err := r.Customer.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Customer", err, "invalid"))
	}
	if err := r.Merchant.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Merchant", err, "invalid"))
	}
	if r.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	if err := r.AuthorizerID.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("AuthorizerID", err, "invalid"))
	}
	if !asset.IsTicker(r.AssetType) {
		errs = errors.Append(errs, errors.Field("AssetType", errors.ErrAssetType, "invalid ticker %q", r.AssetType))
	}
	return errs
}

// Create stores a new pending escrow and returns it together with its
// release and refund tokens. The tokens are returned only here.
func (k *Keeper) Create(ctx context.Context, req CreateRequest) (*Escrow, *capability.Capability, *capability.Capability, error) {
	var (
		esc             *Escrow
		release, refund *capability.Capability
	)
	err := k.exec.Update(ctx, [][]byte{escrowSeq.Key()}, func(tx *txn.Tx) error {
		if err := req.Validate(); err != nil {
			return err
		}
		db := tx.Store()
		conf, err := LoadConfiguration(db)
		if err != nil {
			return err
		}
		if len(req.OrderID) > int(conf.MaxOrderIDSize) {
			return errors.Field("OrderID", errors.ErrInput, "longer than %d bytes", conf.MaxOrderIDSize)
		}
		if len(req.Policy) > int(conf.MaxPolicySize) {
			return errors.Field("Policy", errors.ErrInput, "longer than %d bytes", conf.MaxPolicySize)
		}
		if err := authz.CheckPolicy(k.authorizer, req.AuthorizerID, req.Policy); err != nil {
			return errors.Field("Policy", err, "rejected by authorizer %s", req.AuthorizerID)
		}

		id, err := escrowSeq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire key")
		}
		esc = &Escrow{
			Schema:       1,
			ID:           id,
			OrderID:      req.OrderID,
			Customer:     req.Customer,
			Merchant:     req.Merchant,
			Amount:       req.Amount,
			Status:       StatusPending,
			CreatedAt:    custody.NowTimestamp(tx.Context()),
			AuthorizerID: req.AuthorizerID,
			Policy:       req.Policy,
			AssetTypeTag: req.AssetType,
		}
		if release, refund, err = k.caps.MintPair(db, id, req.AuthorizerID); err != nil {
			return errors.Wrap(err, "cannot mint tokens")
		}
		return k.save(tx, esc, audit.TypeCreated, k.caller(tx.Context()), nil, esc.Amount)
	})
	k.metrics.observe("create", err)
	if err != nil {
		return nil, nil, nil, err
	}
	custody.GetLogger(ctx).Info("escrow created",
		"escrow", idString(esc.ID),
		"order", string(esc.OrderID),
		"amount", asset.NewAmount(esc.Amount, esc.AssetTypeTag))
	return esc, release, refund, nil
}

// Deposit moves the amount from the depositor into escrow custody. Only
// the customer can deposit and only once. The amount must be of the
// escrow asset and not less than the declared amount.
func (k *Keeper) Deposit(ctx context.Context, id []byte, depositor custody.Address, amount asset.Amount) (*Escrow, error) {
	esc, err := k.update(ctx, id, func(tx *txn.Tx, e *Escrow) error {
		if e.Status != StatusPending {
			return errors.Wrapf(errors.ErrInvalidState, "escrow is %s", e.Status)
		}
		if !depositor.Equals(e.Customer) || !k.auth.HasAddress(tx.Context(), depositor) {
			return errors.Wrap(errors.ErrUnauthorized, "only the customer can deposit")
		}
		if amount.Ticker != e.AssetTypeTag {
			return errors.Wrapf(errors.ErrAssetType, "escrow holds %s, not %s", e.AssetTypeTag, amount.Ticker)
		}
		if amount.Quantity < e.Amount {
			return errors.Wrapf(errors.ErrInsufficientAmount, "%d is less than declared %d", amount.Quantity, e.Amount)
		}

		if err := k.lockBank(tx, depositor); err != nil {
			return err
		}
		if err := k.bank.Debit(tx.Store(), depositor, amount); err != nil {
			return errors.Wrap(err, "debit depositor")
		}
		if err := e.accept(amount); err != nil {
			return err
		}
		e.DepositedAt = custody.NowTimestamp(tx.Context())
		e.Status = StatusFunded
		return k.save(tx, e, audit.TypeDeposited, depositor, nil, amount.Quantity)
	})
	k.metrics.observe("deposit", err)
	if err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Info("escrow funded", "escrow", idString(id), "amount", amount)
	return esc, nil
}

// Release pays the escrow custody out to the merchant. The release token
// is consumed.
func (k *Keeper) Release(ctx context.Context, id []byte, c *capability.Capability, proof []byte) (asset.Amount, error) {
	return k.disburse(ctx, id, c, proof, capability.KindRelease, "")
}

// Refund pays the escrow custody back to the customer. The refund token
// is consumed.
func (k *Keeper) Refund(ctx context.Context, id []byte, c *capability.Capability, proof []byte) (asset.Amount, error) {
	return k.disburse(ctx, id, c, proof, capability.KindRefund, "")
}

// disburse implements release and refund. If ticker is not empty, the
// escrow must hold that asset.
func (k *Keeper) disburse(ctx context.Context, id []byte, c *capability.Capability, proof []byte, kind capability.Kind, ticker string) (asset.Amount, error) {
	var (
		paid      asset.Amount
		action    = authz.ActionRelease
		eventType = audit.TypeReleased
		status    = StatusReleased
	)
	if kind == capability.KindRefund {
		action, eventType, status = authz.ActionRefund, audit.TypeRefunded, StatusRefunded
	}

	_, err := k.update(ctx, id, func(tx *txn.Tx, e *Escrow) error {
		if e.Status != StatusFunded {
			return errors.Wrapf(errors.ErrInvalidState, "escrow is %s", e.Status)
		}
		if ticker != "" && ticker != e.AssetTypeTag {
			return errors.Wrapf(errors.ErrAssetType, "escrow holds %s, not %s", e.AssetTypeTag, ticker)
		}
		db := tx.Store()
		if err := k.caps.Verify(db, c, kind, e.ID, e.AuthorizerID); err != nil {
			return err
		}
		now := custody.NowTimestamp(tx.Context())
		if kind == capability.KindRelease {
			if err := releaseLocked(db, e, now); err != nil {
				return err
			}
		}
		if err := k.authorize(tx.Context(), e, action, proof); err != nil {
			return err
		}

		if err := k.caps.Consume(db, c, kind, e.ID, e.AuthorizerID, now); err != nil {
			return err
		}
		amount, err := e.extract()
		if err != nil {
			return err
		}
		recipient := e.Merchant
		if kind == capability.KindRefund {
			recipient = e.Customer
		}
		if err := k.lockBank(tx, recipient); err != nil {
			return err
		}
		if err := k.bank.Credit(db, recipient, amount); err != nil {
			return errors.Wrap(err, "credit recipient")
		}
		paid = amount
		e.Status = status
		return k.save(tx, e, eventType, k.caller(tx.Context()), recipient, amount.Quantity)
	})
	k.metrics.observe(string(action), err)
	if err != nil {
		return asset.Amount{}, err
	}
	custody.GetLogger(ctx).Info("escrow disbursed", "escrow", idString(id), "action", action, "amount", paid)
	return paid, nil
}

// releaseLocked returns ErrInvalidState while the configured time lock
// since deposit has not passed.
func releaseLocked(db custody.ReadOnlyKVStore, e *Escrow, now custody.Timestamp) error {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return err
	}
	if conf.MinReleaseDelayMs == 0 {
		return nil
	}
	if unlock := e.DepositedAt.Add(conf.MinReleaseDelay()); now.Before(unlock) {
		return errors.Wrapf(errors.ErrInvalidState, "release locked until %s", unlock)
	}
	return nil
}

// authorize asks the authorization context exactly once. Denial and
// failure are both reported as ErrUnauthorized.
func (k *Keeper) authorize(ctx context.Context, e *Escrow, action authz.Action, proof []byte) error {
	req := &authz.Request{
		AuthorizerID: e.AuthorizerID,
		Action:       action,
		EscrowID:     e.ID,
		OrderID:      e.OrderID,
		Caller:       k.caller(ctx),
		Amount:       e.Held().Quantity,
		AssetType:    e.AssetTypeTag,
		DepositedAt:  e.DepositedAt,
		Policy:       e.Policy,
		Proof:        proof,
	}
	start := time.Now()
	ok, err := k.authorizer.Authorize(ctx, req)
	k.metrics.observeAuthorize(string(action), ok, err, time.Since(start))
	if err != nil {
		custody.GetLogger(ctx).Error("authorization context failed", "err", err)
		return errors.Wrapf(errors.ErrUnauthorized, "authorization context: %s", err)
	}
	if !ok {
		return errors.Wrapf(errors.ErrUnauthorized, "%s denied by authorization context", action)
	}
	return nil
}

// QueryResult is the public summary of an escrow.
type QueryResult struct {
	Status Status `json:"status"`
	// Amount is the declared amount.
	Amount uint64 `json:"amount"`
	// Held is the amount currently in custody.
	Held      uint64 `json:"held"`
	AssetType string `json:"asset_type"`
}

// Query returns the status and amounts of an escrow.
func (k *Keeper) Query(ctx context.Context, id []byte) (*QueryResult, error) {
	e, err := k.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		Status:    e.Status,
		Amount:    e.Amount,
		Held:      e.Held().Quantity,
		AssetType: e.AssetTypeTag,
	}, nil
}

// Get returns the full escrow record.
func (k *Keeper) Get(ctx context.Context, id []byte) (*Escrow, error) {
	var e Escrow
	err := k.exec.View(ctx, func(db custody.ReadOnlyKVStore) error {
		return k.bucket.One(db, id, &e)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "escrow %s", idString(id))
	}
	return &e, nil
}

// Events returns audit events of an escrow newer than since.
func (k *Keeper) Events(ctx context.Context, id []byte, since uint64) ([]*audit.Event, error) {
	var events []*audit.Event
	err := k.exec.View(ctx, func(db custody.ReadOnlyKVStore) error {
		var err error
		events, err = k.events.Events(db, id, since)
		return err
	})
	return events, err
}

// update runs fn in a transaction holding the escrow lock and passes it
// the current state of the escrow. fn is responsible for saving changes.
func (k *Keeper) update(ctx context.Context, id []byte, fn func(tx *txn.Tx, e *Escrow) error) (*Escrow, error) {
	var esc Escrow
	ctx = custody.WithLogInfo(ctx, "escrow", idString(id))
	err := k.exec.Update(ctx, [][]byte{k.bucket.DBKey(id)}, func(tx *txn.Tx) error {
		if err := k.bucket.One(tx.Store(), id, &esc); err != nil {
			return errors.Wrapf(err, "escrow %s", idString(id))
		}
		return fn(tx, &esc)
	})
	if err != nil {
		return nil, err
	}
	return &esc, nil
}

// save stores the escrow and appends the event describing the change.
func (k *Keeper) save(tx *txn.Tx, e *Escrow, typ audit.Type, actor, recipient custody.Address, amount uint64) error {
	if _, err := k.bucket.Put(tx.Store(), e.ID, e); err != nil {
		return errors.Wrap(err, "cannot store escrow")
	}
	return k.events.Append(tx, &audit.Event{
		EscrowID:  e.ID,
		Type:      typ,
		OrderID:   e.OrderID,
		Amount:    amount,
		AssetType: e.AssetTypeTag,
		Time:      custody.NowTimestamp(tx.Context()),
		Actor:     actor,
		Recipient: recipient,
		Status:    e.Status.String(),
	})
}

func (k *Keeper) lockBank(tx *txn.Tx, owner custody.Address) error {
	key := k.bank.LockKey(owner)
	if key == nil {
		return nil
	}
	return tx.Lock(key)
}

// caller returns the address of the main signer of the context, or nil.
func (k *Keeper) caller(ctx context.Context) custody.Address {
	if c := x.MainSigner(ctx, k.auth); c != nil {
		return c.Address()
	}
	return nil
}

func idString(id []byte) string {
	if n, err := orm.DecodeSequence(id); err == nil && len(id) == 8 {
		return fmt.Sprint(n)
	}
	return fmt.Sprintf("%X", id)
}
