package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag names double as viper keys and, upper-cased with '-' mapped to
// '_', as RSKJ_EVM_* environment variable suffixes.
const (
	flagConfig        = "config"
	flagLogLevel      = "log-level"
	flagCode          = "code"
	flagCodeFile      = "codefile"
	flagInput         = "input"
	flagGas           = "gas"
	flagValue         = "value"
	flagScriptVersion = "script-version"
	flagCreate        = "create"
	flagTrace         = "trace"
	flagDump          = "dump"
	flagJSON          = "json"
	flagMetrics       = "metrics"
)

const defaultGas = 10_000_000

var (
	errNoCode       = errors.New("one of --code or --codefile is required")
	errBothCode     = errors.New("--code and --codefile are mutually exclusive")
	errBadVersion   = errors.New("script version out of range")
	errZeroGasLimit = errors.New("gas limit must be positive")
)

// runConfig is the resolved configuration of the run command.
type runConfig struct {
	Code          []byte
	Input         []byte
	Gas           uint64
	Value         *uint256.Int
	ScriptVersion uint8
	Create        bool
	Trace         bool
	Dump          bool
	JSON          bool
	Metrics       bool
	LogLevel      string
}

// loadRunConfig resolves flags, environment and config file values held
// by v into a runConfig.
func loadRunConfig(v *viper.Viper) (*runConfig, error) {
	code, err := loadCode(v)
	if err != nil {
		return nil, err
	}
	input, err := decodeHex(v.GetString(flagInput))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flagInput, err)
	}
	value, err := parseWord(v.GetString(flagValue))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flagValue, err)
	}
	version := v.GetUint(flagScriptVersion)
	if version > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d", errBadVersion, version)
	}
	cfg := &runConfig{
		Code:          code,
		Input:         input,
		Gas:           v.GetUint64(flagGas),
		Value:         value,
		ScriptVersion: uint8(version),
		Create:        v.GetBool(flagCreate),
		Trace:         v.GetBool(flagTrace),
		Dump:          v.GetBool(flagDump),
		JSON:          v.GetBool(flagJSON),
		Metrics:       v.GetBool(flagMetrics),
		LogLevel:      v.GetString(flagLogLevel),
	}
	if cfg.Gas == 0 {
		return nil, errZeroGasLimit
	}
	return cfg, nil
}

// addCodeFlags registers the flags loadCode reads.
func addCodeFlags(f *pflag.FlagSet) {
	f.String(flagCode, "", "bytecode as hex")
	f.String(flagCodeFile, "", "file holding the bytecode as hex")
}

// loadCode reads the bytecode from --code or from the file named by
// --codefile.
func loadCode(v *viper.Viper) ([]byte, error) {
	src, file := v.GetString(flagCode), v.GetString(flagCodeFile)
	switch {
	case src != "" && file != "":
		return nil, errBothCode
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		src = string(data)
	case src == "":
		return nil, errNoCode
	}
	code, err := decodeHex(src)
	if err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}
	return code, nil
}

// decodeHex decodes hex with or without a 0x prefix. Surrounding
// whitespace is ignored and an empty string yields nil.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if s == "0x" || s == "0X" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

// parseWord parses a decimal or 0x-prefixed hex 256-bit value.
func parseWord(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(uint256.Int), nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}
