package capability

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/google/uuid"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const adminKey = "admin"

// Store mints, verifies and consumes tokens. It holds no state of its own,
// all records live in the database passed to each call, so a Store can be
// shared between transactions.
type Store struct {
	records orm.ModelBucket
	admin   orm.ModelBucket
	rand    io.Reader
}

// NewStore returns a store drawing secrets from crypto/rand.
func NewStore() *Store {
	return &Store{
		records: orm.NewModelBucket("cap"),
		admin:   orm.NewModelBucket("cap_admin"),
		rand:    rand.Reader,
	}
}

// MintPair issues a release and a refund token bound to given escrow and
// authorization context.
func (s *Store) MintPair(db custody.KVStore, escrowID []byte, authorizerID custody.Address) (release, refund *Capability, err error) {
	release, err = s.mint(db, KindRelease, escrowID, authorizerID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "release")
	}
	refund, err = s.mint(db, KindRefund, escrowID, authorizerID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "refund")
	}
	return release, refund, nil
}

func (s *Store) mint(db custody.KVStore, kind Kind, escrowID []byte, authorizerID custody.Address) (*Capability, error) {
	id, err := uuid.NewRandomFromReader(s.rand)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "token ID: %s", err)
	}
	c := &Capability{
		id:           id,
		kind:         kind,
		escrowID:     append([]byte(nil), escrowID...),
		authorizerID: append(custody.Address(nil), authorizerID...),
	}
	if _, err := io.ReadFull(s.rand, c.secret[:]); err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "token secret: %s", err)
	}
	if err := s.records.Has(db, id[:]); err == nil {
		return nil, errors.Wrapf(errors.ErrDuplicate, "token %s", id)
	}

	rec := &Record{
		Schema:       1,
		ID:           id[:],
		Kind:         kind,
		EscrowID:     c.escrowID,
		AuthorizerID: c.authorizerID,
		Digest:       c.digest(),
	}
	if _, err := s.records.Put(db, id[:], rec); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the stored record of a token.
func (s *Store) Get(db custody.ReadOnlyKVStore, id uuid.UUID) (*Record, error) {
	var rec Record
	if err := s.records.One(db, id[:], &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Verify checks that c is a live token of given kind bound to given escrow
// and authorization context. It does not modify anything. Every failure is
// reported as ErrCapabilityMismatch.
func (s *Store) Verify(db custody.ReadOnlyKVStore, c *Capability, kind Kind, escrowID []byte, authorizerID custody.Address) error {
	_, err := s.verify(db, c, kind, escrowID, authorizerID)
	return err
}

func (s *Store) verify(db custody.ReadOnlyKVStore, c *Capability, kind Kind, escrowID []byte, authorizerID custody.Address) (*Record, error) {
	if c == nil || c.kind == KindInvalid {
		return nil, errors.Wrap(ErrCapabilityMismatch, "no token")
	}
	if c.kind != kind {
		return nil, errors.Wrapf(ErrCapabilityMismatch, "want %s token, got %s", kind, c.kind)
	}
	if !bytes.Equal(c.escrowID, escrowID) {
		return nil, errors.Wrap(ErrCapabilityMismatch, "token bound to another escrow")
	}
	if !c.authorizerID.Equals(authorizerID) {
		return nil, errors.Wrap(ErrCapabilityMismatch, "token bound to another authorization context")
	}

	rec, err := s.Get(db, c.id)
	switch {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(ErrCapabilityMismatch, "unknown token")
	case err != nil:
		return nil, err
	}
	if !digestEqual(rec.Digest, c.digest()) {
		return nil, errors.Wrap(ErrCapabilityMismatch, "invalid token secret")
	}
	if rec.Kind != c.kind || !bytes.Equal(rec.EscrowID, c.escrowID) || !rec.AuthorizerID.Equals(c.authorizerID) {
		return nil, errors.Wrap(ErrCapabilityMismatch, "token does not match its record")
	}
	if rec.IsConsumed() {
		return nil, errors.Wrapf(ErrCapabilityMismatch, "token consumed at %s", rec.ConsumedAt)
	}
	return rec, nil
}

// Consume verifies the token like Verify does and marks it as used. The
// tombstone is written to db, so consumption is undone together with
// everything else if the surrounding transaction fails.
func (s *Store) Consume(db custody.KVStore, c *Capability, kind Kind, escrowID []byte, authorizerID custody.Address, now custody.Timestamp) error {
	rec, err := s.verify(db, c, kind, escrowID, authorizerID)
	if err != nil {
		return err
	}
	if now.IsZero() {
		return errors.Wrap(errors.ErrInput, "consumption time required")
	}
	rec.ConsumedAt = now
	if _, err := s.records.Put(db, rec.ID, rec); err != nil {
		return errors.Wrap(err, "tombstone")
	}
	return nil
}

// MintAdmin issues the admin token. It can be called only once per
// database, any later call fails with ErrDuplicate.
func (s *Store) MintAdmin(db custody.KVStore, now custody.Timestamp) (*AdminCapability, error) {
	if err := s.admin.Has(db, []byte(adminKey)); err == nil {
		return nil, errors.Wrap(errors.ErrDuplicate, "admin token already minted")
	} else if !errors.ErrNotFound.Is(err) {
		return nil, err
	}

	id, err := uuid.NewRandomFromReader(s.rand)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "token ID: %s", err)
	}
	a := &AdminCapability{id: id}
	if _, err := io.ReadFull(s.rand, a.secret[:]); err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "token secret: %s", err)
	}
	rec := &AdminRecord{
		Schema:   1,
		ID:       id[:],
		Digest:   a.digest(),
		MintedAt: now,
	}
	if _, err := s.admin.Put(db, []byte(adminKey), rec); err != nil {
		return nil, err
	}
	return a, nil
}

// VerifyAdmin returns ErrUnauthorized unless a is the minted admin token.
func (s *Store) VerifyAdmin(db custody.ReadOnlyKVStore, a *AdminCapability) error {
	if a == nil || a.id == uuid.Nil {
		return errors.Wrap(errors.ErrUnauthorized, "no admin token")
	}
	var rec AdminRecord
	switch err := s.admin.One(db, []byte(adminKey), &rec); {
	case errors.ErrNotFound.Is(err):
		return errors.Wrap(errors.ErrUnauthorized, "admin token not minted")
	case err != nil:
		return err
	}
	if !bytes.Equal(rec.ID, a.id[:]) || !digestEqual(rec.Digest, a.digest()) {
		return errors.Wrap(errors.ErrUnauthorized, "invalid admin token")
	}
	return nil
}
