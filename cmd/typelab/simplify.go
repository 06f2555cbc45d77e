package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"typelab/pkg/typeset"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify <expr>",
	Short: "Parse a type expression and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, err := buildChecker()
		if err != nil {
			return err
		}
		t, err := parseExpr(checker, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), typeset.Display(t))
		return nil
	},
}

var (
	flagTop    bool
	flagBottom bool
)

var materializeCmd = &cobra.Command{
	Use:   "materialize --top|--bottom <expr>",
	Short: "Replace Any by its widest or narrowest fully static bound",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagTop == flagBottom {
			return fmt.Errorf("exactly one of --top or --bottom is required")
		}
		checker, err := buildChecker()
		if err != nil {
			return err
		}
		t, err := parseExpr(checker, args[0])
		if err != nil {
			return err
		}
		if flagTop {
			t = checker.TopMaterialization(t)
		} else {
			t = checker.BottomMaterialization(t)
		}
		fmt.Fprintln(cmd.OutOrStdout(), typeset.Display(t))
		return nil
	},
}

func init() {
	materializeCmd.Flags().BoolVar(&flagTop, "top", false, "top materialization")
	materializeCmd.Flags().BoolVar(&flagBottom, "bottom", false, "bottom materialization")
}
