package tree

import (
	"reflect"
	"testing"
)

func TestParseString(t *testing.T) {
	tests := []string{
		"(TOP (S (NP dog) (VP barks)))",
		"(NP (DT the) (NN dog))",
		"(X a)",
	}
	for _, text := range tests {
		n, err := Parse(text)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", text, err)
			continue
		}
		if got := n.String(); got != text {
			t.Errorf("String() = %q, want %q", got, text)
		}
	}
}

func TestParseWhitespace(t *testing.T) {
	n, err := Parse("  (S\n  (NP  dog)\t(VP barks) )  ")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := n.String(), "(S (NP dog) (VP barks))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"dog",
		"(S (NP dog)",
		"(S (NP dog)))",
		"( dog)",
		"(S )",
	}
	for _, text := range tests {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) expected error", text)
		}
	}
}

func TestLeaves(t *testing.T) {
	n, err := Parse("(TOP (S (NP (DT the) (NN dog)) (VP barks)))")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"the", "dog", "barks"}
	if got := n.Leaves(); !reflect.DeepEqual(got, want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}
}

func TestDebinarize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"(TOP (S^TOP (NP^S dog) (VP^S barks)))",
			"(TOP (S (NP dog) (VP barks)))",
		},
		{
			"(TOP (S^TOP (NP^S (DT^NP the) (NP@^NP (JJ^NP big) (NN^NP dog))) (VP^S barks)))",
			"(TOP (S (NP (DT the) (JJ big) (NN dog)) (VP barks)))",
		},
		{
			"(TOP (S%%%%%VP^TOP (VB^S go) (NP^S home)))",
			"(TOP (S (VP (VB go) (NP home))))",
		},
		{
			"(TOP (NP%%%%%NN^TOP dog))",
			"(TOP (NP (NN dog)))",
		},
		{
			"(TOP (S^TOP (NP@^S dog) (VP^S barks)))",
			"(TOP (S (NP@ dog) (VP barks)))",
		},
	}
	for _, tt := range tests {
		n, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.in, err)
		}
		if got := n.Debinarize().String(); got != tt.want {
			t.Errorf("Debinarize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBrackets(t *testing.T) {
	n, err := Parse("(TOP (S (NP (DT the) (NN dog)) (VP barks)))")
	if err != nil {
		t.Fatal(err)
	}
	want := []Bracket{
		{Label: "TOP", Start: 0, End: 3},
		{Label: "S", Start: 0, End: 3},
		{Label: "NP", Start: 0, End: 2},
	}
	if got := n.Brackets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Brackets() = %v, want %v", got, want)
	}
}

func TestMatch(t *testing.T) {
	gold := []Bracket{{"S", 0, 3}, {"NP", 0, 2}, {"NP", 0, 2}}
	test := []Bracket{{"S", 0, 3}, {"NP", 0, 2}, {"VP", 2, 3}, {"NP", 0, 2}, {"NP", 0, 2}}
	if got := Match(gold, test); got != 3 {
		t.Errorf("Match() = %d, want 3", got)
	}
}
