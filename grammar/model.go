package grammar

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// modelVersion is bumped whenever the persisted layout changes.
const modelVersion = 1

type modelJSON struct {
	Version  int        `json:"version"`
	Lower    bool       `json:"lower"`
	Numerate bool       `json:"numerate"`
	Rules    []ruleJSON `json:"rules"`
}

func toModelJSON(g *Grammar) modelJSON {
	m := modelJSON{
		Version:  modelVersion,
		Lower:    g.lower,
		Numerate: g.numerate,
		Rules:    make([]ruleJSON, 0, len(g.prob)),
	}
	for _, r := range g.Rules() {
		m.Rules = append(m.Rules, ruleJSON{
			LHS:  r.LHS,
			Kind: r.RHS.Kind.String(),
			Word: r.RHS.Word,
			RHS:  r.RHS.Symbols(),
			Prob: g.prob[r],
		})
	}
	return m
}

func fromModelJSON(m modelJSON) (*Grammar, error) {
	if m.Version != modelVersion {
		return nil, errors.Errorf("unsupported model version %d", m.Version)
	}
	prob := make(map[Rule]float64, len(m.Rules))
	for _, rj := range m.Rules {
		r, err := rj.rule()
		if err != nil {
			return nil, err
		}
		if _, dup := prob[r]; dup {
			return nil, errors.Errorf("duplicate rule %s", r)
		}
		prob[r] = rj.Prob
	}
	return FromRules(prob, m.Lower, m.Numerate)
}

// SaveModel serializes the grammar to JSON.
func SaveModel(g *Grammar, path string) error {
	data, err := json.MarshalIndent(toModelJSON(g), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel deserializes a grammar from JSON.
func LoadModel(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalModel(data)
}

// MarshalModel serializes the grammar to JSON bytes.
func MarshalModel(g *Grammar) ([]byte, error) {
	return json.Marshal(toModelJSON(g))
}

// UnmarshalModel deserializes a grammar from JSON bytes.
func UnmarshalModel(data []byte) (*Grammar, error) {
	var m modelJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return fromModelJSON(m)
}
