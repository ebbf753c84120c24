package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/x/capability"
)

var _ custody.Initializer = (*Initializer)(nil)

// Initializer loads the escrow configuration from genesis and mints the
// admin token. The minted token is available in Admin once FromGenesis
// returns. It is never stored in plain form, whoever runs the genesis must
// hand it to the administrator.
type Initializer struct {
	// Now is recorded as the admin token mint time.
	Now   custody.Timestamp
	Admin *capability.AdminCapability
}

// FromGenesis reads opts["conf"]["escrow"]. Missing values are taken from
// the default configuration.
func (i *Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	conf := DefaultConfiguration()
	switch err := gconf.InitConfig(db, opts, packageName, &conf); {
	case errors.ErrNotFound.Is(err):
		if err := SaveConfiguration(db, DefaultConfiguration()); err != nil {
			return errors.Wrap(err, "default configuration")
		}
	case err != nil:
		return err
	}

	if i.Now.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "genesis time")
	}
	admin, err := capability.NewStore().MintAdmin(db, i.Now)
	if err != nil {
		return errors.Wrap(err, "admin token")
	}
	i.Admin = admin
	return nil
}
