package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/y0ke/rskj/core/vm"
)

func newDisasmCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm",
		Short: "Print a listing of bytecode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(v)
			if err != nil {
				return fmt.Errorf("disasm: %w", err)
			}
			w := cmd.OutOrStdout()
			for _, in := range vm.Disassemble(code) {
				fmt.Fprintln(w, in)
			}
			return nil
		},
	}
	addCodeFlags(cmd.Flags())
	return cmd
}
