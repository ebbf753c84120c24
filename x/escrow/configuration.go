package escrow

import (
	"time"

	"github.com/gogo/protobuf/proto"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const packageName = "escrow"

const (
	defaultMaxPolicySize  = 4096
	defaultMaxOrderIDSize = 128
)

// Configuration is the runtime configuration of the escrow package, stored
// with gconf.
type Configuration struct {
	Schema int32 `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
	// MinReleaseDelayMs is the minimal time between deposit and release.
	// Zero disables the check. Refunds are never delayed.
	MinReleaseDelayMs uint64 `protobuf:"varint,2,opt,name=min_release_delay_ms,json=minReleaseDelayMs,proto3" json:"min_release_delay_ms"`
	MaxPolicySize     uint32 `protobuf:"varint,3,opt,name=max_policy_size,json=maxPolicySize,proto3" json:"max_policy_size"`
	MaxOrderIDSize    uint32 `protobuf:"varint,4,opt,name=max_order_id_size,json=maxOrderIdSize,proto3" json:"max_order_id_size"`
}

var _ gconf.Configuration = (*Configuration)(nil)

type configurationWire Configuration

func (m *configurationWire) Reset()         { *m = configurationWire{} }
func (m *configurationWire) String() string { return proto.CompactTextString(m) }
func (*configurationWire) ProtoMessage()    {}

// Marshal implements gconf.Configuration.
func (c *Configuration) Marshal() ([]byte, error) {
	return proto.Marshal((*configurationWire)(c))
}

// Unmarshal implements gconf.Configuration.
func (c *Configuration) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*configurationWire)(c))
}

// Validate implements gconf.Configuration.
func (c *Configuration) Validate() error {
	var errs error
	if c.Schema != 1 {
		errs = errors.Append(errs, errors.Field("Schema", errors.ErrModel, "unsupported schema %d", c.Schema))
	}
	if c.MaxPolicySize == 0 {
		errs = errors.Append(errs, errors.Field("MaxPolicySize", errors.ErrInput, "must be greater than zero"))
	}
	if c.MaxOrderIDSize == 0 {
		errs = errors.Append(errs, errors.Field("MaxOrderIDSize", errors.ErrInput, "must be greater than zero"))
	}
	return errs
}

// MinReleaseDelay returns the release time lock as a duration.
func (c *Configuration) MinReleaseDelay() time.Duration {
	return time.Duration(c.MinReleaseDelayMs) * time.Millisecond
}

// DefaultConfiguration is used when no configuration was saved. The
// release time lock is disabled.
func DefaultConfiguration() Configuration {
	return Configuration{
		Schema:         1,
		MaxPolicySize:  defaultMaxPolicySize,
		MaxOrderIDSize: defaultMaxOrderIDSize,
	}
}

// SaveConfiguration validates and stores the configuration.
func SaveConfiguration(db gconf.Store, c Configuration) error {
	return gconf.Save(db, packageName, &c)
}

// LoadConfiguration returns the stored configuration, or the default one
// if none was saved.
func LoadConfiguration(db custody.ReadOnlyKVStore) (Configuration, error) {
	var c Configuration
	switch err := gconf.Load(db, packageName, &c); {
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	case err != nil:
		return Configuration{}, errors.Wrap(err, "escrow configuration")
	}
	return c, nil
}
