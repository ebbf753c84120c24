package audit

import (
	"encoding/binary"

	"github.com/gogo/protobuf/proto"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Type names a transition.
type Type string

const (
	TypeCreated            Type = "escrow.created"
	TypeDeposited          Type = "escrow.deposited"
	TypeReleased           Type = "escrow.released"
	TypeRefunded           Type = "escrow.refunded"
	TypeDisputed           Type = "escrow.disputed"
	TypeEmergencyWithdrawn Type = "escrow.emergency_withdrawn"
)

var knownTypes = map[Type]bool{
	TypeCreated:            true,
	TypeDeposited:          true,
	TypeReleased:           true,
	TypeRefunded:           true,
	TypeDisputed:           true,
	TypeEmergencyWithdrawn: true,
}

// Event is a single entry of the audit log.
type Event struct {
	Schema    int32             `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
	EscrowID  []byte            `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3" json:"escrow_id"`
	Sequence  uint64            `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence"`
	Type      Type              `protobuf:"bytes,4,opt,name=type,proto3" json:"type"`
	OrderID   []byte            `protobuf:"bytes,5,opt,name=order_id,json=orderId,proto3" json:"order_id"`
	Amount    uint64            `protobuf:"varint,6,opt,name=amount,proto3" json:"amount"`
	AssetType string            `protobuf:"bytes,7,opt,name=asset_type,json=assetType,proto3" json:"asset_type"`
	Time      custody.Timestamp `protobuf:"varint,8,opt,name=time,proto3" json:"time"`
	Actor     custody.Address   `protobuf:"bytes,9,opt,name=actor,proto3" json:"actor,omitempty"`
	Recipient custody.Address   `protobuf:"bytes,10,opt,name=recipient,proto3" json:"recipient,omitempty"`
	Status    string            `protobuf:"bytes,11,opt,name=status,proto3" json:"status"`
	Signature []byte            `protobuf:"bytes,12,opt,name=signature,proto3" json:"signature,omitempty"`
}

var _ orm.Model = (*Event)(nil)

type eventWire Event

func (m *eventWire) Reset()         { *m = eventWire{} }
func (m *eventWire) String() string { return proto.CompactTextString(m) }
func (*eventWire) ProtoMessage()    {}

// Marshal implements custody.Persistent.
func (e *Event) Marshal() ([]byte, error) {
	return proto.Marshal((*eventWire)(e))
}

// Unmarshal implements custody.Persistent.
func (e *Event) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*eventWire)(e))
}

// Validate returns an error if the event cannot be stored.
func (e *Event) Validate() error {
	var errs error
	if e.Schema != 1 {
		errs = errors.Append(errs, errors.Field("Schema", errors.ErrModel, "unsupported schema %d", e.Schema))
	}
	if len(e.EscrowID) == 0 {
		errs = errors.Append(errs, errors.Field("EscrowID", errors.ErrEmpty, "required"))
	}
	if e.Sequence == 0 {
		errs = errors.Append(errs, errors.Field("Sequence", errors.ErrModel, "must be assigned"))
	}
	if !knownTypes[e.Type] {
		errs = errors.Append(errs, errors.Field("Type", errors.ErrModel, "unknown event type %q", e.Type))
	}
	if e.Time.IsZero() {
		errs = errors.Append(errs, errors.Field("Time", errors.ErrEmpty, "required"))
	}
	if e.Actor != nil {
		if err := e.Actor.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Actor", err, "invalid"))
		}
	}
	if e.Recipient != nil {
		if err := e.Recipient.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Recipient", err, "invalid"))
		}
	}
	return errs
}

// key returns the database key of the event: escrow ID followed by the
// big endian sequence number, so that a prefix scan returns events of a
// single escrow in order.
func (e *Event) key() []byte {
	k := make([]byte, len(e.EscrowID)+8)
	copy(k, e.EscrowID)
	binary.BigEndian.PutUint64(k[len(e.EscrowID):], e.Sequence)
	return k
}
