package audit

import (
	"encoding/json"

	"github.com/gowebpki/jcs"

	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
)

// SignDomain is prepended to the canonical form of an event before
// signing, so that an audit signature cannot be replayed as any other
// kind of signature made by the same key.
const SignDomain = "custody/audit/v1"

// SignBytes returns the message that is signed for given event. The
// signature field is not part of the message.
func SignBytes(e *Event) ([]byte, error) {
	unsigned := *e
	unsigned.Signature = nil
	raw, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "json: %s", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "canonical json: %s", err)
	}
	msg := make([]byte, 0, len(SignDomain)+len(canonical))
	msg = append(msg, SignDomain...)
	return append(msg, canonical...), nil
}

// VerifySignature returns ErrUnauthorized unless the event carries a valid
// signature of given key.
func VerifySignature(key crypto.PublicKey, e *Event) error {
	if len(e.Signature) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "event not signed")
	}
	msg, err := SignBytes(e)
	if err != nil {
		return err
	}
	if !key.Verify(msg, e.Signature) {
		return errors.Wrap(errors.ErrUnauthorized, "invalid event signature")
	}
	return nil
}
