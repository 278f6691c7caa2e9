package app

import (
	"stratum/internal/engine/parser"
	"stratum/internal/engine/rules"
)

// DefaultGrammar builds a language-neutral lexical grammar: identifiers,
// numbers, whitespace and punctuation. It lets the engine derive facts from
// arbitrary boundaries without a per-language grammar, which stays an
// upstream concern.
func DefaultGrammar() (*parser.Grammar, error) {
	letters := make([]*rules.Rule, 0, 53)
	for ch := 'a'; ch <= 'z'; ch++ {
		letters = append(letters, rules.Terminal(string(ch)))
	}
	for ch := 'A'; ch <= 'Z'; ch++ {
		letters = append(letters, rules.Terminal(string(ch)))
	}
	letters = append(letters, rules.Terminal("_"))

	digits := make([]*rules.Rule, 0, 10)
	for ch := '0'; ch <= '9'; ch++ {
		digits = append(digits, rules.Terminal(string(ch)))
	}

	punct := make([]*rules.Rule, 0, 32)
	for _, ch := range `()[]{}<>.,;:+-*/=!&|^%#@?~"'\$` + "`" {
		punct = append(punct, rules.Terminal(string(ch)))
	}

	spaces := []*rules.Rule{
		rules.Terminal(" "), rules.Terminal("\t"),
		rules.Terminal("\n"), rules.Terminal("\r"),
	}

	return parser.NewGrammar("text", map[string]*rules.Rule{
		"letter": rules.Choice(letters...),
		"digit":  rules.Choice(digits...),
		"ident": rules.Sequence(
			rules.Ref("letter"),
			rules.Repeat(rules.Choice(rules.Ref("letter"), rules.Ref("digit"))),
		),
		"number": rules.Repeat1(rules.Ref("digit")),
		"space":  rules.Repeat1(rules.Choice(spaces...)),
		"punct":  rules.Choice(punct...),
		"token": rules.Choice(
			rules.Ref("ident"), rules.Ref("number"),
			rules.Ref("space"), rules.Ref("punct"),
		),
		"text": rules.Repeat(rules.Ref("token")),
	})
}
