package lsystem

import (
	"fmt"
	"slices"
)

// Grammar is a deterministic context-free L-System. It is immutable once
// built and safe for concurrent use.
type Grammar struct {
	name        string
	axiom       []Symbol
	rules       []Rule
	productions map[Symbol][]Symbol
}

// New parses the axiom and the rules. A later rule with the same key
// replaces an earlier one.
func New(name, axiom string, rules ...string) (*Grammar, error) {
	ax, err := ParseSymbols(axiom)
	if err != nil {
		return nil, fmt.Errorf("axiom: %w", err)
	}
	g := &Grammar{
		name:        name,
		axiom:       ax,
		productions: make(map[Symbol][]Symbol, len(rules)),
	}
	for i, src := range rules {
		r, err := ParseRule(src)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		g.rules = append(g.rules, r)
		g.productions[r.Key()] = r.To
	}
	return g, nil
}

func (g *Grammar) Name() string { return g.name }

func (g *Grammar) Axiom() []Symbol { return slices.Clone(g.axiom) }

// Rules returns the rules in the order they were given.
func (g *Grammar) Rules() []Rule {
	out := make([]Rule, len(g.rules))
	for i, r := range g.rules {
		out[i] = Rule{From: slices.Clone(r.From), To: slices.Clone(r.To)}
	}
	return out
}

// Production returns the replacement for s and whether s has one.
func (g *Grammar) Production(s Symbol) ([]Symbol, bool) {
	p, ok := g.productions[s]
	return slices.Clone(p), ok
}

// Ambiguous lists rules whose left side has more than one symbol. Only the
// first symbol of such a rule is matched.
func (g *Grammar) Ambiguous() []Rule {
	var out []Rule
	for _, r := range g.Rules() {
		if len(r.From) > 1 {
			out = append(out, r)
		}
	}
	return out
}

// Derive applies the productions to seq n times in parallel-rewrite fashion.
// Symbols without a production are copied unchanged. For n <= 0 a copy of
// seq is returned.
func (g *Grammar) Derive(seq []Symbol, n int) []Symbol {
	cur := slices.Clone(seq)
	for ; n > 0; n-- {
		size := 0
		for _, s := range cur {
			if p, ok := g.productions[s]; ok {
				size += len(p)
			} else {
				size++
			}
		}
		next := make([]Symbol, 0, size)
		for _, s := range cur {
			if p, ok := g.productions[s]; ok {
				next = append(next, p...)
			} else {
				next = append(next, s)
			}
		}
		cur = next
	}
	return cur
}

// Commands derives the axiom n times.
func (g *Grammar) Commands(n int) []Symbol {
	return g.Derive(g.axiom, n)
}
