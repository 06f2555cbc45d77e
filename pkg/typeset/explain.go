package typeset

import (
	"fmt"
	"strings"
)

// Step is one recorded rule application inside a relation derivation.
type Step struct {
	Rule    string
	Left    string
	Right   string
	Outcome bool
}

// Trace is a derivation transcript for one relation query. Capturing a trace
// never changes the verdict; the traced checker runs the same code paths.
type Trace struct {
	Relation string
	Steps    []Step
}

// Render formats the trace one step per line, conclusion first.
func (tr *Trace) Render() string {
	var b strings.Builder
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		step := tr.Steps[i]
		fmt.Fprintf(&b, "%-20s %s  vs  %s  => %t\n", step.Rule, step.Left, step.Right, step.Outcome)
	}
	return b.String()
}

// verdict records a rule application when tracing and passes the outcome
// through unchanged.
func (c *Checker) verdict(rule string, s, t Type, outcome bool) bool {
	if c.trace != nil {
		c.trace.Steps = append(c.trace.Steps, Step{
			Rule:    rule,
			Left:    Display(s),
			Right:   Display(t),
			Outcome: outcome,
		})
	}
	return outcome
}

func (c *Checker) traced(relation string) *Checker {
	return &Checker{reg: c.reg, log: c.log, trace: &Trace{Relation: relation}}
}

// ExplainSubtype answers IsSubtypeOf with a derivation trace.
func (c *Checker) ExplainSubtype(s, t Type) (bool, *Trace) {
	sub := c.traced("subtype")
	ok := sub.IsSubtypeOf(s, t)
	return ok, sub.trace
}

// ExplainAssignable answers IsAssignableTo with a derivation trace.
func (c *Checker) ExplainAssignable(s, t Type) (bool, *Trace) {
	sub := c.traced("assignable")
	ok := sub.IsAssignableTo(s, t)
	return ok, sub.trace
}

// ExplainDisjoint answers IsDisjointFrom with a derivation trace.
func (c *Checker) ExplainDisjoint(s, t Type) (bool, *Trace) {
	sub := c.traced("disjoint")
	ok := sub.IsDisjointFrom(s, t)
	return ok, sub.trace
}

// ExplainEquivalent answers IsEquivalentTo with a derivation trace.
func (c *Checker) ExplainEquivalent(s, t Type) (bool, *Trace) {
	sub := c.traced("equivalent")
	ok := sub.IsEquivalentTo(s, t)
	return ok, sub.trace
}
