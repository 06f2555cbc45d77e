package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"typelab/pkg/conformance"
	"typelab/pkg/typeset"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive loop over the type expression syntax",
	Long: `Interactive loop over the type expression syntax.

Enter an expression to see its canonical form, or two expressions joined by
a relation operator (<:, <~, ><, ==) to query the relation. :help lists
commands, :quit exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, err := buildChecker()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "typelab repl — :help for commands")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case ":quit", ":q", ":exit":
				return nil
			case ":help", ":h":
				fmt.Fprintln(out, "  <expr>             canonical form")
				fmt.Fprintln(out, "  <expr> <: <expr>   subtype")
				fmt.Fprintln(out, "  <expr> <~ <expr>   assignable")
				fmt.Fprintln(out, "  <expr> >< <expr>   disjoint")
				fmt.Fprintln(out, "  <expr> == <expr>   equivalent")
				fmt.Fprintln(out, "  :quit              exit")
				continue
			}
			evalLine(out, checker, line)
		}
	},
}

// replOperators in scan order; == last so <: style operators win on ties.
var replOperators = []struct {
	op       string
	relation string
}{
	{"<:", conformance.RelationSubtype},
	{"<~", conformance.RelationAssignable},
	{"><", conformance.RelationDisjoint},
	{"==", conformance.RelationEquivalent},
}

func evalLine(out io.Writer, checker *typeset.Checker, line string) {
	for _, candidate := range replOperators {
		padded := " " + candidate.op + " "
		idx := strings.Index(line, padded)
		if idx < 0 {
			continue
		}
		left, err := parseExpr(checker, strings.TrimSpace(line[:idx]))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		right, err := parseExpr(checker, strings.TrimSpace(line[idx+len(padded):]))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		var verdict bool
		switch candidate.relation {
		case conformance.RelationSubtype:
			verdict = checker.IsSubtypeOf(left, right)
		case conformance.RelationAssignable:
			verdict = checker.IsAssignableTo(left, right)
		case conformance.RelationDisjoint:
			verdict = checker.IsDisjointFrom(left, right)
		case conformance.RelationEquivalent:
			verdict = checker.IsEquivalentTo(left, right)
		}
		fmt.Fprintf(out, "%t\n", verdict)
		return
	}
	t, err := parseExpr(checker, line)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(out, typeset.Display(t))
}
