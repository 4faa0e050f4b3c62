package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/y0ke/rskj/core/state"
	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/core/vm"
	"github.com/y0ke/rskj/log"
	"github.com/y0ke/rskj/metrics"
)

// errExecutionFault marks a run whose bytecode faulted. It maps to exit
// code 2; the fault itself has already been printed.
var errExecutionFault = errors.New("execution fault")

var errTraceAndDump = errors.New("--trace and --dump are mutually exclusive")

var (
	senderAddr   = types.HexToAddress("0x00000000000000000000000000000000000000aa")
	receiverAddr = types.HexToAddress("0x00000000000000000000000000000000000000cc")
	coinbaseAddr = types.HexToAddress("0x00000000000000000000000000000000000000cb")
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute bytecode in a fresh in-memory state",
		Long: `Run deploys the code at a fixed receiver address and calls it from a
funded sender. With --create the code is run as init code instead and the
returned bytes become the code of the new contract.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(v)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			return runCode(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	addCodeFlags(f)
	f.String(flagInput, "", "call data as hex")
	f.Uint64(flagGas, defaultGas, "gas limit")
	f.String(flagValue, "0", "value sent with the call (decimal or 0x hex)")
	f.Uint8(flagScriptVersion, 0, "script version of the top-level frame")
	f.Bool(flagCreate, false, "run the code as init code of a contract creation")
	f.Bool(flagTrace, false, "print every executed instruction")
	f.Bool(flagDump, false, "log every executed instruction with stack and memory at debug level")
	f.Bool(flagJSON, false, "print the result as JSON")
	f.Bool(flagMetrics, false, "print engine metrics in Prometheus text format")
	return cmd
}

// runResult is the printed outcome of a run.
type runResult struct {
	Output          hexutil.Bytes `json:"output"`
	GasUsed         uint64        `json:"gasUsed"`
	Refund          uint64        `json:"refund"`
	ContractAddress string        `json:"contractAddress,omitempty"`
	Error           string        `json:"error,omitempty"`
	Steps           uint64        `json:"steps"`
	Trace           []traceStep   `json:"trace,omitempty"`
}

type traceStep struct {
	Pc      uint64   `json:"pc"`
	Op      string   `json:"op"`
	Gas     uint64   `json:"gas"`
	GasCost uint64   `json:"gasCost"`
	Depth   int      `json:"depth"`
	Stack   []string `json:"stack"`
	MemSize int      `json:"memSize"`
	Error   string   `json:"error,omitempty"`
}

func runCode(cfg *runConfig, stdout, stderr io.Writer) error {
	if cfg.Trace && cfg.Dump {
		return errTraceAndDump
	}
	level := log.ParseLevel(cfg.LogLevel)
	if cfg.Dump {
		level = slog.LevelDebug
	}
	logger := log.NewWriter(stderr, level, false).Module("cli")

	var (
		reg     *metrics.Registry
		tracer  vm.EVMLogger
		structs *vm.StructLogTracer
	)
	if cfg.Metrics {
		reg = metrics.NewRegistry()
	}
	switch {
	case cfg.Trace:
		structs = vm.NewStructLogTracer()
		tracer = structs
	case cfg.Dump:
		tracer = vm.NewDumpTracer(logger, true)
	}

	db := state.NewMemoryStateDB()
	db.AddBalance(senderAddr, cfg.Value)
	msg := vm.Message{From: senderAddr, Value: cfg.Value, GasLimit: cfg.Gas}
	if cfg.Create {
		msg.Data = cfg.Code
	} else {
		db.SetCode(receiverAddr, cfg.Code)
		to := receiverAddr
		msg.To = &to
		msg.Data = cfg.Input
	}

	evm := vm.NewEVM(blockContext(cfg.Gas), vm.TxContext{Origin: senderAddr, GasPrice: uint256.NewInt(1)}, db, vm.Config{
		Tracer:        tracer,
		ScriptVersion: cfg.ScriptVersion,
		Logger:        logger,
		Metrics:       reg,
	})
	res, err := evm.Execute(msg)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	out := runResult{
		Output:  res.ReturnData,
		GasUsed: res.UsedGas,
		Refund:  res.Refund,
		Steps:   evm.StepCount(),
	}
	if cfg.Create && !res.Failed() {
		out.ContractAddress = res.ContractAddress.Hex()
	}
	if res.Failed() {
		out.Error = res.Err.Error()
	}
	if structs != nil {
		out.Trace = convertTrace(structs.Logs)
	}

	if cfg.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		printResult(stdout, &out)
	}
	if reg != nil {
		if err := metrics.WriteText(stdout, reg, "rskj"); err != nil {
			return err
		}
	}
	if res.Failed() {
		return errExecutionFault
	}
	return nil
}

func blockContext(gasLimit uint64) vm.BlockContext {
	return vm.BlockContext{
		GetHash:     func(n uint64) types.Hash { return types.Hash{} },
		Coinbase:    coinbaseAddr,
		BlockNumber: 1,
		Difficulty:  uint256.NewInt(1),
		GasLimit:    gasLimit,
	}
}

func convertTrace(logs []vm.StructLogEntry) []traceStep {
	steps := make([]traceStep, len(logs))
	for i, l := range logs {
		stack := make([]string, len(l.Stack))
		for j := range l.Stack {
			stack[j] = l.Stack[j].Hex()
		}
		steps[i] = traceStep{
			Pc:      l.Pc,
			Op:      l.Op.String(),
			Gas:     l.Gas,
			GasCost: l.GasCost,
			Depth:   l.Depth,
			Stack:   stack,
			MemSize: l.MemorySize,
		}
		if l.Err != nil {
			steps[i].Error = l.Err.Error()
		}
	}
	return steps
}

func printResult(w io.Writer, r *runResult) {
	for _, s := range r.Trace {
		fmt.Fprintf(w, "%05d %-14s gas=%-10d cost=%-6d depth=%d", s.Pc, s.Op, s.Gas, s.GasCost, s.Depth)
		if s.Error != "" {
			fmt.Fprintf(w, " err=%q", s.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "output:   %s\n", r.Output)
	fmt.Fprintf(w, "gas used: %d\n", r.GasUsed)
	fmt.Fprintf(w, "refund:   %d\n", r.Refund)
	fmt.Fprintf(w, "steps:    %d\n", r.Steps)
	if r.ContractAddress != "" {
		fmt.Fprintf(w, "address:  %s\n", r.ContractAddress)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "error:    %s\n", r.Error)
	}
}
