package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/audit"
	"github.com/iov-one/custody/x/capability"
	"github.com/iov-one/custody/x/escrow"
)

func cmdCreate(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create a new escrow for an order.

The release and refund tokens of the escrow are printed once. Hand the
release token to whoever may pay the merchant and the refund token to
whoever may pay the customer back.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl       = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		orderFl      = fl.String("order", "", "Order identifier.")
		customerFl   = flAddress(fl, "customer", "", "Address of the customer that deposits the funds.")
		merchantFl   = flAddress(fl, "merchant", "", "Address of the merchant paid on release.")
		amountFl     = flAmount(fl, "amount", "", "Declared amount, for example \"100 IOV\".")
		authorizerFl = flAddress(fl, "authorizer", "", "Authorization context consulted on release and refund.")
		policyFl     = fl.String("policy", "", "Policy evaluated by the authorization context.")
		policyFileFl = fl.String("policy-file", "", "Read the policy from a file.")
	)
	fl.Parse(args)

	policy := []byte(*policyFl)
	if *policyFileFl != "" {
		raw, err := os.ReadFile(*policyFileFl)
		if err != nil {
			return fmt.Errorf("cannot read policy file: %s", err)
		}
		policy = raw
	}

	var (
		esc             *escrow.Escrow
		release, refund *capability.Capability
	)
	err := withNode(*homeFl, func(n *node) error {
		var err error
		esc, release, refund, err = n.keeper.Create(n.context(), escrow.CreateRequest{
			OrderID:      []byte(*orderFl),
			Customer:     *customerFl,
			Merchant:     *merchantFl,
			Amount:       amountFl.Quantity,
			AuthorizerID: *authorizerFl,
			Policy:       policy,
			AssetType:    amountFl.Ticker,
		})
		return err
	})
	if err != nil {
		return err
	}

	releaseToken, err := release.Encode()
	if err != nil {
		return err
	}
	refundToken, err := refund.Encode()
	if err != nil {
		return err
	}
	id, err := orm.DecodeSequence(esc.ID)
	if err != nil {
		return err
	}
	return printJSON(output, struct {
		EscrowID     uint64 `json:"escrow_id"`
		ReleaseToken string `json:"release_token"`
		RefundToken  string `json:"refund_token"`
	}{id, releaseToken, refundToken})
}

func cmdDeposit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Deposit funds from the customer wallet into escrow custody.

The private key must belong to the customer of the escrow.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl    = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the customer private key file. You can use ESCROWCTL_PRIV_KEY environment variable to set it.")
		escrowFl = flSeq(fl, "escrow", "Escrow ID.")
		amountFl = flAmount(fl, "amount", "", "Deposited amount, for example \"100 IOV\".")
	)
	fl.Parse(args)

	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}
	return withNode(*homeFl, func(n *node) error {
		esc, err := n.keeper.Deposit(n.context(key), *escrowFl, key.PublicKey().Address(), *amountFl)
		if err != nil {
			return err
		}
		return printQuery(output, esc)
	})
}

func cmdRelease(input io.Reader, output io.Writer, args []string) error {
	return disburse(output, args, "release", func(n *node, ctxKeys []*crypto.PrivateKey, id []byte, c *capability.Capability, proof []byte) (asset.Amount, error) {
		return n.keeper.Release(n.context(ctxKeys...), id, c, proof)
	})
}

func cmdRefund(input io.Reader, output io.Writer, args []string) error {
	return disburse(output, args, "refund", func(n *node, ctxKeys []*crypto.PrivateKey, id []byte, c *capability.Capability, proof []byte) (asset.Amount, error) {
		return n.keeper.Refund(n.context(ctxKeys...), id, c, proof)
	})
}

type disburseFunc func(n *node, keys []*crypto.PrivateKey, id []byte, c *capability.Capability, proof []byte) (asset.Amount, error)

func disburse(output io.Writer, args []string, action string, fn disburseFunc) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `
Pay the custody of a funded escrow using its %s token.

The authorization context of the escrow is consulted with the given proof.
`, action)
		fl.PrintDefaults()
	}
	var (
		homeFl    = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		escrowFl  = flSeq(fl, "escrow", "Escrow ID.")
		tokenFl   = fl.String("token", "", fmt.Sprintf("The %s token printed by the create command.", action))
		proofFl   = flHex(fl, "proof", "", "Hex encoded proof for the authorization context.")
		keyPathFl = fl.String("key", "", "Optional private key file identifying the caller.")
	)
	fl.Parse(args)

	c, err := capability.Decode(*tokenFl)
	if err != nil {
		return fmt.Errorf("invalid token: %s", err)
	}
	var keys []*crypto.PrivateKey
	if *keyPathFl != "" {
		key, err := readKey(*keyPathFl)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	var paid asset.Amount
	err = withNode(*homeFl, func(n *node) error {
		var err error
		paid, err = fn(n, keys, *escrowFl, c, *proofFl)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(output, struct {
		Paid asset.Amount `json:"paid"`
	}{paid})
}

func cmdDispute(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Freeze a funded escrow. Its release and refund tokens can no longer be used.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		escrowFl = flSeq(fl, "escrow", "Escrow ID.")
		adminFl  = fl.String("admin", env("ESCROWCTL_ADMIN_TOKEN", ""),
			"Admin token printed by the init command. You can use ESCROWCTL_ADMIN_TOKEN environment variable to set it.")
	)
	fl.Parse(args)

	admin, err := capability.DecodeAdmin(*adminFl)
	if err != nil {
		return fmt.Errorf("invalid admin token: %s", err)
	}
	return withNode(*homeFl, func(n *node) error {
		esc, err := n.keeper.Dispute(n.context(), *escrowFl, admin)
		if err != nil {
			return err
		}
		return printQuery(output, esc)
	})
}

func cmdWithdraw(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Pay all funds of a disputed escrow to a recipient chosen by the
administrator.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		escrowFl = flSeq(fl, "escrow", "Escrow ID.")
		adminFl  = fl.String("admin", env("ESCROWCTL_ADMIN_TOKEN", ""),
			"Admin token printed by the init command. You can use ESCROWCTL_ADMIN_TOKEN environment variable to set it.")
		recipientFl = flAddress(fl, "recipient", "", "Address receiving the funds.")
	)
	fl.Parse(args)

	admin, err := capability.DecodeAdmin(*adminFl)
	if err != nil {
		return fmt.Errorf("invalid admin token: %s", err)
	}
	var paid asset.Amount
	err = withNode(*homeFl, func(n *node) error {
		var err error
		paid, err = n.keeper.EmergencyWithdraw(n.context(), *escrowFl, admin, *recipientFl)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(output, struct {
		Paid asset.Amount `json:"paid"`
	}{paid})
}

func cmdQuery(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the status of an escrow.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		escrowFl = flSeq(fl, "escrow", "Escrow ID.")
		fullFl   = fl.Bool("full", false, "Print the whole escrow record.")
	)
	fl.Parse(args)

	return viewNode(*homeFl, func(n *node) error {
		if *fullFl {
			esc, err := n.keeper.Get(n.context(), *escrowFl)
			if err != nil {
				return err
			}
			return printJSON(output, esc)
		}
		res, err := n.keeper.Query(n.context(), *escrowFl)
		if err != nil {
			return err
		}
		return printJSON(output, newQueryOutput(*escrowFl, res))
	})
}

func cmdEvents(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the audit events of an escrow, oldest first, one JSON document per
line.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		escrowFl = flSeq(fl, "escrow", "Escrow ID.")
		sinceFl  = fl.Uint64("since", 0, "Print only events with a greater sequence number.")
	)
	fl.Parse(args)

	return viewNode(*homeFl, func(n *node) error {
		events, err := n.keeper.Events(n.context(), *escrowFl, *sinceFl)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			if _, err := n.keeper.Get(n.context(), *escrowFl); err != nil {
				return err
			}
		}
		sink := audit.NewWriterSink(output)
		for _, e := range events {
			if err := sink.Publish(n.context(), e); err != nil {
				return err
			}
		}
		return nil
	})
}

type queryOutput struct {
	EscrowID  uint64 `json:"escrow_id"`
	Status    string `json:"status"`
	Amount    uint64 `json:"amount"`
	Held      uint64 `json:"held"`
	AssetType string `json:"asset_type"`
}

func printQuery(out io.Writer, esc *escrow.Escrow) error {
	if esc == nil {
		return errors.New("no escrow")
	}
	return printJSON(out, newQueryOutput(esc.ID, &escrow.QueryResult{
		Status:    esc.Status,
		Amount:    esc.Amount,
		Held:      esc.Held().Quantity,
		AssetType: esc.AssetTypeTag,
	}))
}

func newQueryOutput(id []byte, res *escrow.QueryResult) queryOutput {
	n, _ := orm.DecodeSequence(id)
	return queryOutput{
		EscrowID:  n,
		Status:    res.Status.String(),
		Amount:    res.Amount,
		Held:      res.Held,
		AssetType: res.AssetType,
	}
}
