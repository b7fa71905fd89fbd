package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qinglongcn/vitalchain"
	"github.com/qinglongcn/vitalchain/opcode"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [program hex]",
	Short: "Disassemble a program",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := argOrStdin(args)
		if err != nil {
			return err
		}
		program, err := hex.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		instructions, err := opcode.Parse(program)
		if err != nil {
			fmt.Fprintln(out, opcode.Disasm(program))
			return err
		}
		for i, ins := range instructions {
			fmt.Fprintf(out, "%d\t%s\n", i, ins)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [raw tx hex]",
	Short: "Show the outputs and programs carried by a transaction",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		text, err := argOrStdin(args)
		if err != nil {
			return err
		}
		tx, err := vitalchain.DecodeTxHex(text)
		if err != nil {
			return err
		}
		vitalchain.PrintTx(cmd.OutOrStdout(), tx, opt.ChainParams())
		return nil
	},
}
