package capability

import (
	"github.com/gogo/protobuf/proto"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Kind tells which operation a token authorizes.
type Kind int32

const (
	KindInvalid Kind = 0
	KindRelease Kind = 1
	KindRefund  Kind = 2
	KindAdmin   Kind = 3
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindRelease: "release",
	KindRefund:  "refund",
	KindAdmin:   "admin",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Record is the stored state of a release or refund token.
type Record struct {
	Schema       int32             `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
	ID           []byte            `protobuf:"bytes,2,opt,name=id,proto3" json:"id"`
	Kind         Kind              `protobuf:"varint,3,opt,name=kind,proto3" json:"kind"`
	EscrowID     []byte            `protobuf:"bytes,4,opt,name=escrow_id,json=escrowId,proto3" json:"escrow_id"`
	AuthorizerID custody.Address   `protobuf:"bytes,5,opt,name=authorizer_id,json=authorizerId,proto3" json:"authorizer_id"`
	Digest       []byte            `protobuf:"bytes,6,opt,name=digest,proto3" json:"-"`
	ConsumedAt   custody.Timestamp `protobuf:"varint,7,opt,name=consumed_at,json=consumedAt,proto3" json:"consumed_at"`
}

var _ orm.Model = (*Record)(nil)

// recordWire is the protobuf message of Record.
type recordWire Record

func (m *recordWire) Reset()         { *m = recordWire{} }
func (m *recordWire) String() string { return proto.CompactTextString(m) }
func (*recordWire) ProtoMessage()    {}

// Marshal implements custody.Persistent.
func (r *Record) Marshal() ([]byte, error) {
	return proto.Marshal((*recordWire)(r))
}

// Unmarshal implements custody.Persistent.
func (r *Record) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*recordWire)(r))
}

// Validate returns an error if the record cannot be stored.
func (r *Record) Validate() error {
	var errs error
	if r.Schema != 1 {
		errs = errors.Append(errs, errors.Field("Schema", errors.ErrModel, "unsupported schema %d", r.Schema))
	}
	if len(r.ID) != 16 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrModel, "must be an UUID"))
	}
	if r.Kind != KindRelease && r.Kind != KindRefund {
		errs = errors.Append(errs, errors.Field("Kind", errors.ErrModel, "invalid kind %d", r.Kind))
	}
	if len(r.EscrowID) == 0 {
		errs = errors.Append(errs, errors.Field("EscrowID", errors.ErrEmpty, "required"))
	}
	if err := r.AuthorizerID.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("AuthorizerID", err, "invalid"))
	}
	if len(r.Digest) != digestSize {
		errs = errors.Append(errs, errors.Field("Digest", errors.ErrModel, "must be %d bytes", digestSize))
	}
	return errs
}

// IsConsumed returns true if the token was used.
func (r *Record) IsConsumed() bool {
	return !r.ConsumedAt.IsZero()
}

// AdminRecord is the stored state of the admin token.
type AdminRecord struct {
	Schema   int32             `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
	ID       []byte            `protobuf:"bytes,2,opt,name=id,proto3" json:"id"`
	Digest   []byte            `protobuf:"bytes,3,opt,name=digest,proto3" json:"-"`
	MintedAt custody.Timestamp `protobuf:"varint,4,opt,name=minted_at,json=mintedAt,proto3" json:"minted_at"`
}

var _ orm.Model = (*AdminRecord)(nil)

type adminRecordWire AdminRecord

func (m *adminRecordWire) Reset()         { *m = adminRecordWire{} }
func (m *adminRecordWire) String() string { return proto.CompactTextString(m) }
func (*adminRecordWire) ProtoMessage()    {}

// Marshal implements custody.Persistent.
func (r *AdminRecord) Marshal() ([]byte, error) {
	return proto.Marshal((*adminRecordWire)(r))
}

// Unmarshal implements custody.Persistent.
func (r *AdminRecord) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*adminRecordWire)(r))
}

// Validate returns an error if the record cannot be stored.
func (r *AdminRecord) Validate() error {
	var errs error
	if r.Schema != 1 {
		errs = errors.Append(errs, errors.Field("Schema", errors.ErrModel, "unsupported schema %d", r.Schema))
	}
	if len(r.ID) != 16 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrModel, "must be an UUID"))
	}
	if len(r.Digest) != digestSize {
		errs = errors.Append(errs, errors.Field("Digest", errors.ErrModel, "must be %d bytes", digestSize))
	}
	return errs
}

// tokenWire is the portable encoding of a token.
type tokenWire struct {
	ID           []byte `protobuf:"bytes,1,opt,name=id,proto3"`
	Kind         Kind   `protobuf:"varint,2,opt,name=kind,proto3"`
	EscrowID     []byte `protobuf:"bytes,3,opt,name=escrow_id,json=escrowId,proto3"`
	AuthorizerID []byte `protobuf:"bytes,4,opt,name=authorizer_id,json=authorizerId,proto3"`
	Secret       []byte `protobuf:"bytes,5,opt,name=secret,proto3"`
}

func (m *tokenWire) Reset()       { *m = tokenWire{} }
func (*tokenWire) String() string { return "capability token" } // never print the secret
func (*tokenWire) ProtoMessage()  {}
