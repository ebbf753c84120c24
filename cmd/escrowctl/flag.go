package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/orm"
)

// flAddress returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flAddress(fl *flag.FlagSet, name, defaultVal, usage string) *custody.Address {
	var a custody.Address
	if defaultVal != "" {
		var err error
		a, err = custody.ParseAddress(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q address flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var((*flagAddress)(&a), name, usage)
	return &a
}

type flagAddress custody.Address

func (a flagAddress) String() string {
	if len(a) == 0 {
		return ""
	}
	return custody.Address(a).String()
}

func (a *flagAddress) Set(raw string) error {
	addr, err := custody.ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = flagAddress(addr)
	return nil
}

// flAmount returns an amount flag in the "<quantity> <ticker>" format, for
// example "100 IOV".
func flAmount(fl *flag.FlagSet, name, defaultVal, usage string) *asset.Amount {
	var a asset.Amount
	if defaultVal != "" {
		var err error
		a, err = asset.ParseAmount(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q amount flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var((*flagAmount)(&a), name, usage)
	return &a
}

type flagAmount asset.Amount

func (a flagAmount) String() string {
	if a.Ticker == "" {
		return ""
	}
	return asset.Amount(a).String()
}

func (a *flagAmount) Set(raw string) error {
	amt, err := asset.ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = flagAmount(amt)
	return nil
}

// flHex returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided.
func flHex(fl *flag.FlagSet, name, defaultVal, usage string) *[]byte {
	var b []byte
	if defaultVal != "" {
		var err error
		b, err = hex.DecodeString(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q hex encoded flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var((*flagbyte)(&b), name, usage)
	return &b
}

type flagbyte []byte

func (b flagbyte) String() string {
	return hex.EncodeToString(b)
}

func (b *flagbyte) Set(raw string) error {
	val, err := hex.DecodeString(raw)
	if err != nil {
		return err
	}
	*b = val
	return nil
}

// flSeq returns an escrow ID flag. The value is the decimal sequence
// number and is stored encoded the way the orm package encodes sequences.
func flSeq(fl *flag.FlagSet, name, usage string) *[]byte {
	var b []byte
	fl.Var((*flagSeq)(&b), name, usage)
	return &b
}

type flagSeq []byte

func (s flagSeq) String() string {
	if len(s) == 0 {
		return ""
	}
	n, err := orm.DecodeSequence(s)
	if err != nil {
		return hex.EncodeToString(s)
	}
	return strconv.FormatUint(n, 10)
}

func (s *flagSeq) Set(raw string) error {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sequence number %q: %s", raw, err)
	}
	*s = orm.EncodeSequence(n)
	return nil
}
