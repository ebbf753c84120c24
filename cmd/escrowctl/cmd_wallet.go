package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/custody/asset"
)

func cmdCredit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Add funds to a wallet. Use it to fund test accounts, funds are created out
of thin air.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		ownerFl  = flAddress(fl, "owner", "", "Address of the wallet owner.")
		amountFl = flAmount(fl, "amount", "", "Credited amount, for example \"100 IOV\".")
	)
	fl.Parse(args)

	var total asset.Amount
	err := withNode(*homeFl, func(n *node) error {
		if err := n.bank.Credit(n.db, *ownerFl, *amountFl); err != nil {
			return err
		}
		var err error
		total, err = n.bank.Balance(n.db, *ownerFl, amountFl.Ticker)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(output, []asset.Amount{total})
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print all balances of a wallet.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl  = fl.String("home", defaultHome(), "Directory the custody state is stored in.")
		ownerFl = flAddress(fl, "owner", "", "Address of the wallet owner.")
	)
	fl.Parse(args)

	return viewNode(*homeFl, func(n *node) error {
		balances, err := n.bank.Balances(n.db, *ownerFl)
		if err != nil {
			return err
		}
		if balances == nil {
			balances = []asset.Amount{}
		}
		return printJSON(output, balances)
	})
}
