package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendermint/tendermint/libs/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/store/iavl"
	"github.com/iov-one/custody/txn"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/audit"
	"github.com/iov-one/custody/x/authz"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/wallet"
)

// node is the custody state of a home directory opened for a single
// command.
type node struct {
	home    string
	logger  log.Logger
	commit  *iavl.CommitStore
	db      *store.SyncStore
	keeper  *escrow.Keeper
	auth    x.Authenticator
	bank    *wallet.Bank
	closers []io.Closer
}

func openNode(home string, stderr io.Writer) (*node, error) {
	conf, err := loadConfig(home)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(stderr, conf.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(home, "data"), 0700); err != nil {
		return nil, fmt.Errorf("cannot create data directory: %s", err)
	}
	commit, err := iavl.NewCommitStore(filepath.Join(home, "data"), "custody")
	if err != nil {
		return nil, err
	}
	if err := commit.LoadLatestVersion(); err != nil {
		commit.Close()
		return nil, err
	}

	n := &node{
		home:    home,
		logger:  logger,
		commit:  commit,
		db:      store.NewSyncStore(commit),
		bank:    wallet.NewBank(),
		closers: []io.Closer{commit},
	}

	events, err := n.auditLog(conf.Audit)
	if err != nil {
		n.Close()
		return nil, err
	}
	authorizer, err := newAuthorizer(conf)
	if err != nil {
		n.Close()
		return nil, err
	}
	var operator keyAuth
	if conf.NodeKey != "" {
		key, err := readKey(resolve(home, conf.NodeKey))
		if err != nil {
			n.Close()
			return nil, fmt.Errorf("node key: %s", err)
		}
		operator = keyAuth{key.PublicKey().Condition()}
	}
	n.auth = x.ChainAuth(x.ContextAuth{}, operator)
	n.keeper = escrow.NewKeeper(txn.NewExecutor(n.db),
		escrow.WithBank(n.bank),
		escrow.WithAuthorizer(authorizer),
		escrow.WithAuditLog(events),
		escrow.WithAuthenticator(n.auth),
	)
	return n, nil
}

func newLogger(w io.Writer, level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(w)).With("module", "escrowctl")
	if level == "" {
		return logger, nil
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s", err)
	}
	return log.NewFilter(logger, opt), nil
}

func (n *node) auditLog(conf AuditConfig) (*audit.Log, error) {
	var (
		opts  []audit.Option
		sinks audit.MultiSink
	)
	if conf.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   resolve(n.home, conf.File),
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
		}
		n.closers = append(n.closers, rotated)
		sinks = append(sinks, audit.NewWriterSink(rotated))
	}
	if conf.Bolt != "" {
		bolt, err := audit.OpenBoltSink(resolve(n.home, conf.Bolt))
		if err != nil {
			return nil, err
		}
		n.closers = append(n.closers, bolt)
		sinks = append(sinks, bolt)
	}
	if len(sinks) > 0 {
		opts = append(opts, audit.WithSink(sinks))
	}
	if conf.SignerKey != "" {
		key, err := readKey(resolve(n.home, conf.SignerKey))
		if err != nil {
			return nil, fmt.Errorf("audit signer: %s", err)
		}
		opts = append(opts, audit.WithSigner(key))
	}
	return audit.NewLog(opts...), nil
}

func newAuthorizer(conf Config) (authz.Authorizer, error) {
	if len(conf.Authorizers) == 0 {
		return authz.AllowAll{}, nil
	}

	limit := conf.CELCostLimit
	if limit == 0 {
		limit = authz.DefaultCostLimit
	}
	var policies *authz.CEL
	celAuthorizer := func() (*authz.CEL, error) {
		if policies == nil {
			var err error
			if policies, err = authz.NewCEL(limit); err != nil {
				return nil, err
			}
		}
		return policies, nil
	}

	router := authz.NewRouter()
	for i, ac := range conf.Authorizers {
		var (
			a    authz.Authorizer
			addr custody.Address
		)
		switch strings.ToLower(ac.Type) {
		case "allow":
			a = authz.AllowAll{}
		case "cel":
			c, err := celAuthorizer()
			if err != nil {
				return nil, err
			}
			a = c
		case "ed25519":
			key, err := crypto.ParsePublicKey(ac.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("authorizer %d: %s", i, err)
			}
			ed := authz.NewEd25519(key)
			a, addr = ed, ed.Address()
			if ac.Policy {
				c, err := celAuthorizer()
				if err != nil {
					return nil, err
				}
				a = authz.All{ed, c}
			}
		default:
			return nil, fmt.Errorf("authorizer %d: unknown type %q", i, ac.Type)
		}

		if ac.Address != "" {
			declared, err := custody.ParseAddress(ac.Address)
			if err != nil {
				return nil, fmt.Errorf("authorizer %d: %s", i, err)
			}
			if addr != nil && !addr.Equals(declared) {
				return nil, fmt.Errorf("authorizer %d: address %s does not match the public key", i, declared)
			}
			addr = declared
		}
		if addr == nil {
			return nil, fmt.Errorf("authorizer %d: address required", i)
		}
		if err := router.Register(addr, a); err != nil {
			return nil, fmt.Errorf("authorizer %d: %s", i, err)
		}
	}
	return router, nil
}

// context returns the context operations are run with. Conditions of
// given keys are authenticated, after them the node key if configured.
func (n *node) context(keys ...*crypto.PrivateKey) context.Context {
	ctx := custody.WithLogger(context.Background(), n.logger)
	ctx = custody.WithNow(ctx, time.Now())
	for _, k := range keys {
		ctx = x.WithConditions(ctx, k.PublicKey().Condition())
	}
	n.logger.Debug("authenticated", "signers", x.GetAddresses(ctx, n.auth))
	return ctx
}

// keyAuth authenticates conditions held by the process itself.
type keyAuth []custody.Condition

var _ x.Authenticator = keyAuth(nil)

func (k keyAuth) GetConditions(context.Context) []custody.Condition {
	return k
}

func (k keyAuth) HasAddress(_ context.Context, addr custody.Address) bool {
	for _, c := range k {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}

// Commit persists all changes as a new version of the store.
func (n *node) Commit() error {
	return n.db.Locked(func(custody.KVStore) error {
		id, err := n.commit.Commit()
		if err != nil {
			return err
		}
		n.logger.Debug("state committed", "version", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
		return nil
	})
}

// Close releases resources. Uncommitted changes are lost.
func (n *node) Close() error {
	var first error
	for i := len(n.closers) - 1; i >= 0; i-- {
		if err := n.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	n.closers = nil
	return first
}

// withNode opens the home directory, runs fn and commits the changes if
// fn succeeds.
func withNode(home string, fn func(n *node) error) error {
	n, err := openNode(home, os.Stderr)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := fn(n); err != nil {
		return err
	}
	return n.Commit()
}

// viewNode opens the home directory and runs fn without committing.
func viewNode(home string, fn func(n *node) error) error {
	n, err := openNode(home, os.Stderr)
	if err != nil {
		return err
	}
	defer n.Close()
	return fn(n)
}
