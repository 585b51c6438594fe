package cyk

import (
	"github.com/pkg/errors"

	"github.com/happyhackingspace/pcfg/grammar"
	"github.com/happyhackingspace/pcfg/internal/textutil"
	"github.com/happyhackingspace/pcfg/internal/tree"
)

// Tree rebuilds the Viterbi parse. Parent annotation is dropped, binary
// binarized nodes are spliced into their parent and collapsed unary chains
// are expanded. A binarized node with a single child keeps its label.
func (c *Chart) Tree() (*tree.Node, error) {
	nodes, err := c.build(c.start, 0, len(c.tokens))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return &tree.Node{Label: c.start.Label, Children: nodes}, nil
}

func (c *Chart) build(sym grammar.Symbol, begin, end int) ([]*tree.Node, error) {
	d, ok := c.Backpointer(begin, end, sym)
	if !ok {
		return nil, errors.Wrapf(ErrNotInGrammar, "no %s over [%d,%d)", sym, begin, end)
	}
	var kids []*tree.Node
	switch d.Kind {
	case Lexical:
		kids = []*tree.Node{tree.Leaf(d.Word)}
	case Unary:
		sub, err := c.build(d.Left, begin, end)
		if err != nil {
			return nil, err
		}
		kids = sub
	case Binary:
		left, err := c.build(d.Left, begin, d.Split)
		if err != nil {
			return nil, err
		}
		right, err := c.build(d.Right, d.Split, end)
		if err != nil {
			return nil, err
		}
		kids = append(left, right...)
	}
	switch {
	case sym.Binarized && d.Kind == Binary:
		return kids, nil
	case sym.Binarized:
		return []*tree.Node{{Label: sym.Bare(), Children: kids}}, nil
	case sym.Collapsed != "":
		inner := &tree.Node{Label: sym.Collapsed, Children: kids}
		return []*tree.Node{{Label: sym.Label, Children: []*tree.Node{inner}}}, nil
	}
	return []*tree.Node{{Label: sym.Label, Children: kids}}, nil
}

// Annotated returns the raw derivation tree with full symbol labels,
// including parent annotation and markers.
func (c *Chart) Annotated() (*tree.Node, error) {
	var walk func(sym grammar.Symbol, begin, end int) (*tree.Node, error)
	walk = func(sym grammar.Symbol, begin, end int) (*tree.Node, error) {
		d, ok := c.Backpointer(begin, end, sym)
		if !ok {
			return nil, errors.Wrapf(ErrNotInGrammar, "no %s over [%d,%d)", sym, begin, end)
		}
		n := &tree.Node{Label: sym.String()}
		switch d.Kind {
		case Lexical:
			n.Children = []*tree.Node{tree.Leaf(d.Word)}
		case Unary:
			child, err := walk(d.Left, begin, end)
			if err != nil {
				return nil, err
			}
			n.Children = []*tree.Node{child}
		case Binary:
			left, err := walk(d.Left, begin, d.Split)
			if err != nil {
				return nil, err
			}
			right, err := walk(d.Right, d.Split, end)
			if err != nil {
				return nil, err
			}
			n.Children = []*tree.Node{left, right}
		}
		return n, nil
	}
	return walk(c.start, 0, len(c.tokens))
}

// Viterbi returns the Viterbi parse on a single line.
func (c *Chart) Viterbi() (string, error) {
	t, err := c.Tree()
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// Parse tokenises sentence on whitespace, fills a chart and returns the
// Viterbi parse.
func Parse(g *grammar.Grammar, sentence string, opts Options) (string, error) {
	c, err := NewChart(g, textutil.Tokenize(sentence), opts)
	if err != nil {
		return "", err
	}
	return c.Viterbi()
}
