package grammar

import "github.com/pkg/errors"

// RHSKind distinguishes the three right-hand side shapes.
type RHSKind uint8

const (
	LexicalRHS RHSKind = iota
	UnaryRHS
	BinaryRHS
)

func (k RHSKind) String() string {
	switch k {
	case LexicalRHS:
		return "lexical"
	case UnaryRHS:
		return "unary"
	case BinaryRHS:
		return "binary"
	}
	return "invalid"
}

// RHS is the right-hand side of a production: a word, one symbol or two
// symbols.
type RHS struct {
	Kind  RHSKind
	Word  string
	Left  Symbol
	Right Symbol
}

// Word returns a lexical right-hand side.
func Word(w string) RHS {
	return RHS{Kind: LexicalRHS, Word: w}
}

// Unary returns a single-symbol right-hand side.
func Unary(child Symbol) RHS {
	return RHS{Kind: UnaryRHS, Left: child}
}

// Binary returns a two-symbol right-hand side.
func Binary(left, right Symbol) RHS {
	return RHS{Kind: BinaryRHS, Left: left, Right: right}
}

// IsLexical reports whether r rewrites to a word.
func (r RHS) IsLexical() bool {
	return r.Kind == LexicalRHS
}

// Symbols returns the nonterminals of r in order.
func (r RHS) Symbols() []Symbol {
	switch r.Kind {
	case UnaryRHS:
		return []Symbol{r.Left}
	case BinaryRHS:
		return []Symbol{r.Left, r.Right}
	}
	return nil
}

func (r RHS) String() string {
	switch r.Kind {
	case UnaryRHS:
		return r.Left.String()
	case BinaryRHS:
		return r.Left.String() + " " + r.Right.String()
	}
	return r.Word
}

// sortKey orders lexical before unary before binary, then by text.
func (r RHS) sortKey() string {
	return string(rune('0'+r.Kind)) + r.String()
}

// Rule is a production LHS -> RHS.
type Rule struct {
	LHS Symbol
	RHS RHS
}

func (r Rule) String() string {
	if r.RHS.IsLexical() {
		return r.LHS.String() + " -> " + "\"" + r.RHS.Word + "\""
	}
	return r.LHS.String() + " -> " + r.RHS.String()
}

// ruleJSON is the persisted form of a weighted rule.
type ruleJSON struct {
	LHS  Symbol   `json:"lhs"`
	Kind string   `json:"kind"`
	Word string   `json:"word,omitempty"`
	RHS  []Symbol `json:"rhs,omitempty"`
	Prob float64  `json:"prob"`
}

func (r ruleJSON) rule() (Rule, error) {
	switch r.Kind {
	case LexicalRHS.String():
		return Rule{LHS: r.LHS, RHS: Word(r.Word)}, nil
	case UnaryRHS.String():
		if len(r.RHS) != 1 {
			return Rule{}, errors.Errorf("unary rule for %s has %d children", r.LHS, len(r.RHS))
		}
		return Rule{LHS: r.LHS, RHS: Unary(r.RHS[0])}, nil
	case BinaryRHS.String():
		if len(r.RHS) != 2 {
			return Rule{}, errors.Errorf("binary rule for %s has %d children", r.LHS, len(r.RHS))
		}
		return Rule{LHS: r.LHS, RHS: Binary(r.RHS[0], r.RHS[1])}, nil
	}
	return Rule{}, errors.Errorf("unknown rule kind %q", r.Kind)
}
