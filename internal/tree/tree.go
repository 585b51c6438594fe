// Package tree reads and writes Penn-style bracketed trees and undoes the
// treebank pre-processing so gold trees compare with parser output.
package tree

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/happyhackingspace/pcfg/grammar"
)

// Node is a tree node. Leaves carry the word in Label and have no children.
type Node struct {
	Label    string
	Children []*Node
}

// Leaf returns a leaf node for word.
func Leaf(word string) *Node {
	return &Node{Label: word}
}

// IsLeaf reports whether n is a word.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// IsPreterminal reports whether n dominates exactly one word.
func (n *Node) IsPreterminal() bool {
	return len(n.Children) == 1 && n.Children[0].IsLeaf()
}

// Parse reads one bracketed tree such as "(TOP (NP (DT the) (NN dog)))".
func Parse(text string) (*Node, error) {
	p := &parser{text: text}
	p.skipSpace()
	root, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.text) {
		return nil, errors.Errorf("trailing input at column %d", p.pos)
	}
	return root, nil
}

type parser struct {
	text string
	pos  int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.text) && strings.IndexByte(" \t\r\n", p.text[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) token() string {
	start := p.pos
	for p.pos < len(p.text) && strings.IndexByte(" \t\r\n()", p.text[p.pos]) < 0 {
		p.pos++
	}
	return p.text[start:p.pos]
}

func (p *parser) node() (*Node, error) {
	if p.pos >= len(p.text) || p.text[p.pos] != '(' {
		return nil, errors.Errorf("expected '(' at column %d", p.pos)
	}
	open := p.pos
	p.pos++
	label := p.token()
	if label == "" {
		return nil, errors.Errorf("node without label at column %d", open)
	}
	n := &Node{Label: label}
	for {
		p.skipSpace()
		if p.pos >= len(p.text) {
			return nil, errors.Errorf("unmatched '(' at column %d", open)
		}
		switch p.text[p.pos] {
		case ')':
			p.pos++
			if len(n.Children) == 0 {
				return nil, errors.Errorf("empty node %s at column %d", label, open)
			}
			return n, nil
		case '(':
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		default:
			n.Children = append(n.Children, Leaf(p.token()))
		}
	}
}

// String renders the tree on a single line.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.IsLeaf() {
		sb.WriteString(n.Label)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.Label)
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.write(sb)
	}
	sb.WriteByte(')')
}

// Leaves returns the words of the tree from left to right.
func (n *Node) Leaves() []string {
	var out []string
	var walk func(*Node)
	walk = func(m *Node) {
		if m.IsLeaf() {
			out = append(out, m.Label)
			return
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Debinarize strips parent annotation, splices binarized nodes with two
// children into their parent and expands collapsed unary chains "A%%%%%B" into (A (B ...)).
// The root is never spliced.
func (n *Node) Debinarize() *Node {
	nodes := n.debinarize()
	if len(nodes) == 1 {
		return nodes[0]
	}
	sym := decode(n.Label)
	return &Node{Label: sym.Label, Children: nodes}
}

func (n *Node) debinarize() []*Node {
	if n.IsLeaf() {
		return []*Node{Leaf(n.Label)}
	}
	var kids []*Node
	for _, c := range n.Children {
		kids = append(kids, c.debinarize()...)
	}
	sym := decode(n.Label)
	switch {
	case sym.Binarized && len(n.Children) == 2:
		return kids
	case sym.Binarized:
		return []*Node{{Label: sym.Bare(), Children: kids}}
	case sym.Collapsed != "":
		return []*Node{{Label: sym.Label, Children: []*Node{{Label: sym.Collapsed, Children: kids}}}}
	}
	return []*Node{{Label: sym.Label, Children: kids}}
}

// decode reads a label leniently: labels that are not valid symbols only
// lose their parent annotation.
func decode(label string) grammar.Symbol {
	sym, err := grammar.ParseSymbol(label)
	if err != nil {
		if i := strings.Index(label, grammar.ParentSep); i > 0 {
			label = label[:i]
		}
		return grammar.Symbol{Label: label}
	}
	return sym
}
