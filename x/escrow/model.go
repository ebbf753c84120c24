package escrow

import (
	"github.com/gogo/protobuf/proto"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Status is the lifecycle state of an escrow.
type Status int32

const (
	StatusPending            Status = 0
	StatusFunded             Status = 1
	StatusReleased           Status = 2
	StatusRefunded           Status = 3
	StatusDisputed           Status = 4
	StatusEmergencyWithdrawn Status = 5
)

var statusNames = []string{
	StatusPending:            "Pending",
	StatusFunded:             "Funded",
	StatusReleased:           "Released",
	StatusRefunded:           "Refunded",
	StatusDisputed:           "Disputed",
	StatusEmergencyWithdrawn: "EmergencyWithdrawn",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}

// IsTerminal returns true if no transition leaves this status.
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRefunded || s == StatusEmergencyWithdrawn
}

// holdsCustody returns true for statuses in which the escrow must hold
// funds.
func (s Status) holdsCustody() bool {
	return s == StatusFunded || s == StatusDisputed
}

// CustodyBalance is the quantity of an asset held by an escrow.
type CustodyBalance struct {
	AssetType string `protobuf:"bytes,1,opt,name=asset_type,json=assetType,proto3" json:"asset_type"`
	Amount    uint64 `protobuf:"varint,2,opt,name=amount,proto3" json:"amount"`
}

func (m *CustodyBalance) Reset()         { *m = CustodyBalance{} }
func (m *CustodyBalance) String() string { return proto.CompactTextString(m) }
func (*CustodyBalance) ProtoMessage()    {}

// Escrow is the stored state of a single order.
type Escrow struct {
	Schema       int32             `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
	ID           []byte            `protobuf:"bytes,2,opt,name=id,proto3" json:"id"`
	OrderID      []byte            `protobuf:"bytes,3,opt,name=order_id,json=orderId,proto3" json:"order_id"`
	Customer     custody.Address   `protobuf:"bytes,4,opt,name=customer,proto3" json:"customer"`
	Merchant     custody.Address   `protobuf:"bytes,5,opt,name=merchant,proto3" json:"merchant"`
	Amount       uint64            `protobuf:"varint,6,opt,name=amount,proto3" json:"amount"`
	Status       Status            `protobuf:"varint,7,opt,name=status,proto3" json:"status"`
	CreatedAt    custody.Timestamp `protobuf:"varint,8,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
	DepositedAt  custody.Timestamp `protobuf:"varint,9,opt,name=deposited_at,json=depositedAt,proto3" json:"deposited_at,omitempty"`
	AuthorizerID custody.Address   `protobuf:"bytes,10,opt,name=authorizer_id,json=authorizerId,proto3" json:"authorizer_id"`
	Custody      *CustodyBalance   `protobuf:"bytes,11,opt,name=custody,proto3" json:"custody,omitempty"`
	Policy       []byte            `protobuf:"bytes,12,opt,name=policy,proto3" json:"policy,omitempty"`
	AssetTypeTag string            `protobuf:"bytes,13,opt,name=asset_type_tag,json=assetTypeTag,proto3" json:"asset_type_tag"`
}

var _ orm.Model = (*Escrow)(nil)

type escrowWire Escrow

func (m *escrowWire) Reset()         { *m = escrowWire{} }
func (m *escrowWire) String() string { return proto.CompactTextString(m) }
func (*escrowWire) ProtoMessage()    {}

// Marshal implements custody.Persistent.
func (e *Escrow) Marshal() ([]byte, error) {
	return proto.Marshal((*escrowWire)(e))
}

// Unmarshal implements custody.Persistent.
func (e *Escrow) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*escrowWire)(e))
}

// Validate ensures the escrow is valid. Besides checking each field it
// enforces that custody is held exactly when the status requires it.
func (e *Escrow) Validate() error {
	var errs error
	if e.Schema != 1 {
		errs = errors.Append(errs, errors.Field("Schema", errors.ErrModel, "unsupported schema %d", e.Schema))
	}
	if len(e.ID) != 8 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrModel, "must be a sequence value"))
	}
	if len(e.OrderID) == 0 {
		errs = errors.Append(errs, errors.Field("OrderID", errors.ErrEmpty, "required"))
	}
	if err := e.Customer.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Customer", err, "invalid"))
	}
	if err := e.Merchant.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Merchant", err, "invalid"))
	}
	if e.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	if e.Status < StatusPending || e.Status > StatusEmergencyWithdrawn {
		errs = errors.Append(errs, errors.Field("Status", errors.ErrModel, "unknown status %d", e.Status))
	}
	if e.CreatedAt.IsZero() {
		errs = errors.Append(errs, errors.Field("CreatedAt", errors.ErrEmpty, "required"))
	}
	if e.Status == StatusPending && !e.DepositedAt.IsZero() {
		errs = errors.Append(errs, errors.Field("DepositedAt", errors.ErrModel, "set before deposit"))
	}
	if e.Status != StatusPending && e.DepositedAt.IsZero() {
		errs = errors.Append(errs, errors.Field("DepositedAt", errors.ErrEmpty, "required once funded"))
	}
	if err := e.AuthorizerID.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("AuthorizerID", err, "invalid"))
	}
	if !asset.IsTicker(e.AssetTypeTag) {
		errs = errors.Append(errs, errors.Field("AssetTypeTag", errors.ErrAssetType, "invalid ticker %q", e.AssetTypeTag))
	}
	switch {
	case e.Status.holdsCustody() && e.Custody == nil:
		errs = errors.Append(errs, errors.Field("Custody", errors.ErrModel, "required in %s status", e.Status))
	case !e.Status.holdsCustody() && e.Custody != nil:
		errs = errors.Append(errs, errors.Field("Custody", errors.ErrModel, "not allowed in %s status", e.Status))
	case e.Custody != nil && e.Custody.AssetType != e.AssetTypeTag:
		errs = errors.Append(errs, errors.Field("Custody", errors.ErrAssetType, "holds %s", e.Custody.AssetType))
	}
	return errs
}

var escrowSeq = orm.NewSequence("escrow", "id")

// NewBucket returns the bucket escrows are stored in, keyed by a sequence
// generated ID.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("esc", orm.WithIDSequence(escrowSeq))
}
