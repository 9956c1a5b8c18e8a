package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kryptor-go/kryptor/cmd/kryptor/cmd"
)

type subcommand struct {
	flags *flag.FlagSet
	run   func() int
}

var subcommands = map[string]subcommand{
	"encrypt": {cmd.EncryptCmd, cmd.RunEncryptCmd},
	"decrypt": {cmd.DecryptCmd, cmd.RunDecryptCmd},
	"keygen":  {cmd.KeygenCmd, cmd.RunKeygenCmd},
	"shares":  {cmd.SharesCmd, cmd.RunSharesCmd},
}

func usage() string {
	names := make([]string, 0, len(subcommands))
	for name := range subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "You must specify a subcommand. Valid subcommands are: %s\n", usage())
		return 1
	}
	command, ok := subcommands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown subcommand '%s'. Available commands are: %s\n", os.Args[1], usage())
		return 1
	}
	command.flags.Parse(os.Args[2:])
	return command.run()
}

func main() {
	os.Exit(run())
}
