package escrow

import (
	"github.com/iov-one/custody/errors"
)

// ErrNoFunds is returned when funds are taken from an escrow that holds
// none.
var ErrNoFunds = errors.Register(301, "no funds in custody")
