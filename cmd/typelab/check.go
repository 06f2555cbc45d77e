package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typelab/pkg/conformance"
	"typelab/pkg/typeexpr"
	"typelab/pkg/typeset"
)

var flagExplain bool

var checkCmd = &cobra.Command{
	Use:   "check <left> <relation> <right>",
	Short: "Answer a relation query between two type expressions",
	Long: `Answer a relation query between two type expressions.

Relations and their aliases:
  subtype     <:    set inclusion under every materialization
  assignable  <~    inclusion under some materialization
  disjoint    ><    no common value under every materialization
  equivalent  ==    same set of values

The exit code mirrors the verdict: 0 when it holds, 1 when it does not.`,
	Args: cobra.ExactArgs(3),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagExplain, "explain", false, "print the derivation trace")
}

func canonicalRelation(name string) (string, error) {
	switch name {
	case conformance.RelationSubtype, "<:":
		return conformance.RelationSubtype, nil
	case conformance.RelationAssignable, "<~":
		return conformance.RelationAssignable, nil
	case conformance.RelationDisjoint, "><":
		return conformance.RelationDisjoint, nil
	case conformance.RelationEquivalent, "==":
		return conformance.RelationEquivalent, nil
	}
	return "", fmt.Errorf("unknown relation %q (expected subtype/<:, assignable/<~, disjoint/><, equivalent/==)", name)
}

func parseExpr(checker *typeset.Checker, input string) (typeset.Type, error) {
	t, err := typeexpr.Parse(checker, input)
	if err != nil {
		var parseErr *typeexpr.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintln(os.Stderr, parseErr.Render())
		}
		return nil, err
	}
	return t, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	relation, err := canonicalRelation(args[1])
	if err != nil {
		return err
	}
	checker, err := buildChecker()
	if err != nil {
		return err
	}
	left, err := parseExpr(checker, args[0])
	if err != nil {
		return err
	}
	right, err := parseExpr(checker, args[2])
	if err != nil {
		return err
	}

	var verdict bool
	var trace *typeset.Trace
	switch relation {
	case conformance.RelationSubtype:
		verdict, trace = checker.ExplainSubtype(left, right)
	case conformance.RelationAssignable:
		verdict, trace = checker.ExplainAssignable(left, right)
	case conformance.RelationDisjoint:
		verdict, trace = checker.ExplainDisjoint(left, right)
	case conformance.RelationEquivalent:
		verdict, trace = checker.ExplainEquivalent(left, right)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s: %t\n",
		typeset.Display(left), relation, typeset.Display(right), verdict)
	if flagExplain {
		fmt.Fprint(cmd.OutOrStdout(), trace.Render())
	}
	if !verdict {
		return errVerdict
	}
	return nil
}
