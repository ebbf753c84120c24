package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iov-one/custody"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is given stdin, stdout and the command line arguments
// without the program name and the command name. It is the responsibility
// of the command function to parse the arguments using the flag package.
// Every command that touches the custody state opens the store found in the
// home directory, runs a single operation and commits it before returning.
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"balance":  cmdBalance,
	"create":   cmdCreate,
	"credit":   cmdCredit,
	"deposit":  cmdDeposit,
	"dispute":  cmdDispute,
	"events":   cmdEvents,
	"init":     cmdInit,
	"keyaddr":  cmdKeyaddr,
	"keygen":   cmdKeygen,
	"query":    cmdQuery,
	"refund":   cmdRefund,
	"release":  cmdRelease,
	"version":  cmdVersion,
	"withdraw": cmdWithdraw,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s operates escrow custody stored in a local directory.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	_, err := fmt.Fprintln(out, custody.Version())
	return err
}
