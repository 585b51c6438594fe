package tree

// Bracket is a labelled constituent span over word positions [Start, End).
type Bracket struct {
	Label string
	Start int
	End   int
}

// Brackets returns the labelled spans of every phrasal node in pre-order.
// Preterminals are left out, as in PARSEVAL scoring.
func (n *Node) Brackets() []Bracket {
	var out []Bracket
	var walk func(m *Node, start int) int
	walk = func(m *Node, start int) int {
		if m.IsLeaf() {
			return start + 1
		}
		if m.IsPreterminal() {
			return start + 1
		}
		i := len(out)
		out = append(out, Bracket{Label: m.Label, Start: start})
		end := start
		for _, c := range m.Children {
			end = walk(c, end)
		}
		out[i].End = end
		return end
	}
	walk(n, 0)
	return out
}

// Match counts the brackets shared by gold and test, each bracket matched at
// most once.
func Match(gold, test []Bracket) int {
	pool := make(map[Bracket]int, len(gold))
	for _, b := range gold {
		pool[b]++
	}
	matched := 0
	for _, b := range test {
		if pool[b] > 0 {
			pool[b]--
			matched++
		}
	}
	return matched
}
