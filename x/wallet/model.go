package wallet

import (
	"github.com/gogo/protobuf/proto"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Balance is the quantity of a single asset owned by an address.
type Balance struct {
	Schema   int32           `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
	Owner    custody.Address `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner"`
	Ticker   string          `protobuf:"bytes,3,opt,name=ticker,proto3" json:"ticker"`
	Quantity uint64          `protobuf:"varint,4,opt,name=quantity,proto3" json:"quantity"`
}

var _ orm.Model = (*Balance)(nil)

type balanceWire Balance

func (m *balanceWire) Reset()         { *m = balanceWire{} }
func (m *balanceWire) String() string { return proto.CompactTextString(m) }
func (*balanceWire) ProtoMessage()    {}

// Marshal implements custody.Persistent.
func (b *Balance) Marshal() ([]byte, error) {
	return proto.Marshal((*balanceWire)(b))
}

// Unmarshal implements custody.Persistent.
func (b *Balance) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*balanceWire)(b))
}

// Validate returns an error if the balance cannot be stored.
func (b *Balance) Validate() error {
	var errs error
	if b.Schema != 1 {
		errs = errors.Append(errs, errors.Field("Schema", errors.ErrModel, "unsupported schema %d", b.Schema))
	}
	if err := b.Owner.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Owner", err, "invalid"))
	}
	if !asset.IsTicker(b.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrAssetType, "invalid ticker %q", b.Ticker))
	}
	return errs
}

// Amount returns the balance as an asset amount.
func (b *Balance) Amount() asset.Amount {
	return asset.NewAmount(b.Quantity, b.Ticker)
}

// balanceKey is the owner address followed by the ticker, so that a
// prefix scan by owner returns all balances of that owner.
func balanceKey(owner custody.Address, ticker string) []byte {
	k := make([]byte, 0, len(owner)+len(ticker))
	k = append(k, owner...)
	return append(k, ticker...)
}
