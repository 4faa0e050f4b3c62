// Command evm executes contract bytecode against a throwaway in-memory
// state and prints the outcome.
//
// Usage:
//
//	evm run --code 0x6005600301 [--input 0x..] [--gas N] [--value N]
//	evm run --codefile prog.hex --create --json
//	evm disasm --code 0x6005600301
//
// Flags may also be set in a config file (--config, YAML/TOML/JSON) or in
// RSKJ_EVM_* environment variables, e.g. RSKJ_EVM_GAS=100000.
//
// Exit codes: 0 success, 1 usage or engine error, 2 execution fault.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the actual entry point, returning an exit code. It takes the
// arguments without the program name so it can be tested in isolation.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errExecutionFault):
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
