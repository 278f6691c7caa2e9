package parser

import (
	"fmt"
	"stratum/internal/core/errors"
	"stratum/internal/engine/rules"
)

// Grammar is a named rule table plus a start rule. It is built once and
// read-only during parsing, so a single Grammar may back any number of
// concurrent parse calls.
type Grammar struct {
	table map[string]*rules.Rule
	start string
}

// NewGrammar validates that the start rule exists and that every Ref in the
// table resolves. Unresolvable references are construction-time errors, not
// parse-time surprises.
func NewGrammar(start string, defs map[string]*rules.Rule) (*Grammar, error) {
	if _, ok := defs[start]; !ok {
		return nil, errors.New(errors.CodeValidationError,
			fmt.Sprintf("start rule %q is not defined", start))
	}

	table := make(map[string]*rules.Rule, len(defs))
	for name, r := range defs {
		table[name] = r
	}
	for name, r := range table {
		if err := checkRefs(r, table); err != nil {
			return nil, errors.AddContext(err, errors.CtxRule, name)
		}
	}
	return &Grammar{table: table, start: start}, nil
}

func (g *Grammar) Start() string {
	return g.start
}

func (g *Grammar) Rule(name string) (*rules.Rule, bool) {
	r, ok := g.table[name]
	return r, ok
}

// RuleNames returns the defined rule names in unspecified order.
func (g *Grammar) RuleNames() []string {
	names := make([]string, 0, len(g.table))
	for name := range g.table {
		names = append(names, name)
	}
	return names
}

func checkRefs(r *rules.Rule, table map[string]*rules.Rule) error {
	switch r.Kind {
	case rules.KindRef:
		if _, ok := table[r.Name]; !ok {
			return errors.New(errors.CodeValidationError,
				fmt.Sprintf("reference to undefined rule %q", r.Name))
		}
	case rules.KindSequence, rules.KindChoice:
		for _, sub := range r.Subs {
			if err := checkRefs(sub, table); err != nil {
				return err
			}
		}
	case rules.KindOptional, rules.KindRepeat, rules.KindRepeat1:
		return checkRefs(r.Inner, table)
	}
	return nil
}
