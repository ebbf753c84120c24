package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iov-one/custody/crypto"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate a new private key.

When successful a new file with the hex encoded key seed is created. This
command fails if the private key file already exists. When a master seed is
given the key is derived from it, otherwise it is random.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use ESCROWCTL_PRIV_KEY environment variable to set it.")
		seedFl = flHex(fl, "seed", "", "Optional hex encoded master seed to derive the key from.")
		pathFl = fl.String("path", crypto.DefaultDerivationPath, "Derivation path used with -seed.")
	)
	fl.Parse(args)

	if _, err := os.Stat(*keyPathFl); !os.IsNotExist(err) {
		// Never overwrite a key, it may be the only copy.
		return fmt.Errorf("private key file %q already exists, delete this file and try again", *keyPathFl)
	}

	var (
		key *crypto.PrivateKey
		err error
	)
	if len(*seedFl) != 0 {
		key, err = crypto.DerivePrivateKey(*seedFl, *pathFl)
	} else {
		key, err = crypto.GenPrivateKey()
	}
	if err != nil {
		return fmt.Errorf("cannot generate key: %s", err)
	}

	fd, err := os.OpenFile(*keyPathFl, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot create private key file: %s", err)
	}
	defer fd.Close()

	if _, err := fmt.Fprintln(fd, hex.EncodeToString(key.Seed())); err != nil {
		return fmt.Errorf("cannot write private key: %s", err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("cannot close private key file: %s", err)
	}
	_, err = fmt.Fprintln(output, key.PublicKey().Address())
	return err
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the address and the public key of your private key.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use ESCROWCTL_PRIV_KEY environment variable to set it.")
		bechFl = fl.Bool("bech32", false, "Print the address in bech32 format.")
	)
	fl.Parse(args)

	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}
	addr := key.PublicKey().Address()
	enc := addr.String()
	if *bechFl {
		if enc, err = addr.Bech32(); err != nil {
			return fmt.Errorf("cannot encode address: %s", err)
		}
	}
	_, err = fmt.Fprintf(output, "%s\t%s\n", enc, key.PublicKey())
	return err
}

func readKey(path string) (*crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read private key file: %s", err)
	}
	key, err := crypto.ParsePrivateKey(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("cannot parse private key file %q: %s", path, err)
	}
	return key, nil
}
