package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/wallet"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Initialize the custody state from a genesis file and mint the admin token.

The genesis file is a JSON document. The "conf" key holds the escrow
configuration and the "wallet" key the initial balances, for example:

  {
    "conf": {"escrow": {"schema": 1, "min_release_delay_ms": 0, "max_policy_size": 4096, "max_order_id_size": 128}},
    "wallet": [{"address": "<hex>", "amounts": [{"ticker": "IOV", "quantity": 1000}]}]
  }

The admin token is printed once and never stored in readable form. Keep it
safe, it is required to dispute escrows and withdraw disputed funds.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl    = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		genesisFl = fl.String("genesis", "", "Path to the genesis file. Defaults are used when not provided.")
	)
	fl.Parse(args)

	opts := custody.Options{}
	if *genesisFl != "" {
		raw, err := os.ReadFile(*genesisFl)
		if err != nil {
			return fmt.Errorf("cannot read genesis file: %s", err)
		}
		if err := json.Unmarshal(raw, &opts); err != nil {
			return fmt.Errorf("cannot decode genesis file: %s", err)
		}
	}

	var token string
	err := withNode(*homeFl, func(n *node) error {
		esc := &escrow.Initializer{Now: custody.NowTimestamp(n.context())}
		init := custody.ChainInitializers(esc, wallet.Initializer{})

		cache := n.db.CacheWrap()
		if err := init.FromGenesis(opts, cache); err != nil {
			cache.Discard()
			return fmt.Errorf("genesis: %s", err)
		}
		if err := cache.Write(); err != nil {
			return err
		}
		var err error
		token, err = esc.Admin.Encode()
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(output, struct {
		AdminToken string `json:"admin_token"`
	}{token})
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
