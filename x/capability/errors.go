package capability

import (
	"github.com/iov-one/custody/errors"
)

// ErrCapabilityMismatch is returned when a token does not authorize the
// requested operation: it is unknown, already consumed, of the wrong kind
// or bound to another escrow or authorization context.
var ErrCapabilityMismatch = errors.Register(300, "capability mismatch")
