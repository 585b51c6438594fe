package grammar

// normalize turns raw counts into conditional rule probabilities. rules
// fixes the summation order so repeated builds give identical floats.
func normalize(rules []Rule, counts map[Rule]int, weights *FrequencyWeights, unknownWords bool) map[Rule]float64 {
	prob := make(map[Rule]float64, len(rules))
	norm := make(map[Symbol]float64)

	// openness: distinct word types covered by each lexical symbol
	openness := make(map[Symbol]int)
	var lexical []Symbol
	if unknownWords {
		for _, r := range rules {
			if !r.RHS.IsLexical() || r.RHS.Word == UnknownWord {
				continue
			}
			if openness[r.LHS] == 0 {
				lexical = append(lexical, r.LHS)
			}
			openness[r.LHS]++
		}
	}
	maxOpen := 0
	for _, o := range openness {
		maxOpen = max(maxOpen, o)
	}

	for _, r := range rules {
		w := weights.Weight(counts[r])
		prob[r] = w
		norm[r.LHS] += w
	}
	for _, lhs := range lexical {
		w := float64(openness[lhs]) / float64(maxOpen) * weights.Weight(0)
		if w <= 0 {
			continue
		}
		prob[Rule{LHS: lhs, RHS: Word(UnknownWord)}] = w
		norm[lhs] += w
	}
	for r := range prob {
		prob[r] /= norm[r.LHS]
	}
	return prob
}
