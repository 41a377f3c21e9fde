// Package dimension derives the business dimensions of an assigned account
// from its raw attributes.
package dimension

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/reyer3/faco-etl/internal/textnorm"
)

//go:embed rules.yaml
var defaultRules []byte

// Fractionation values.
const (
	Fraccionado   = "FRACCIONADO"
	NoFraccionado = "NO_FRACCIONADO"
)

// CarteraRule assigns Value when the folded filename contains any marker.
type CarteraRule struct {
	Value    string   `yaml:"value"`
	Contains []string `yaml:"contains"`
}

// TrancheRule assigns Value when the folded tranche equals Equals.
type TrancheRule struct {
	Equals string  `yaml:"equals"`
	Value  float64 `yaml:"value"`
}

// FilenameRule assigns Value when the folded filename contains any marker.
type FilenameRule struct {
	Contains []string `yaml:"contains"`
	Value    float64  `yaml:"value"`
}

// Rules holds the ordered rule chains used to derive dimensions.
type Rules struct {
	CarteraChain struct {
		Default string        `yaml:"default"`
		Rules   []CarteraRule `yaml:"rules"`
	} `yaml:"cartera"`
	ObjChain struct {
		Default  float64        `yaml:"default"`
		Tranche  []TrancheRule  `yaml:"tranche"`
		Filename []FilenameRule `yaml:"filename"`
	} `yaml:"obj_recupero"`
	FraccChain struct {
		Affirmative []string `yaml:"affirmative"`
	} `yaml:"fraccionamiento"`
}

// Parse decodes and validates a rules document.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "dimension: parse rules")
	}
	if strings.TrimSpace(r.CarteraChain.Default) == "" {
		return nil, eris.New("dimension: cartera rules require a default")
	}
	if r.ObjChain.Default <= 0 {
		return nil, eris.New("dimension: obj_recupero rules require a positive default")
	}
	for i, rule := range r.CarteraChain.Rules {
		if rule.Value == "" || len(rule.Contains) == 0 {
			return nil, eris.Errorf("dimension: cartera rule %d needs a value and at least one marker", i)
		}
	}
	return &r, nil
}

// Default returns the embedded rule set.
func Default() *Rules {
	r, err := Parse(defaultRules)
	if err != nil {
		panic(err)
	}
	return r
}

// CarteraRules returns the cartera chain in evaluation order.
func (r *Rules) CarteraRules() []CarteraRule {
	out := make([]CarteraRule, len(r.CarteraChain.Rules))
	copy(out, r.CarteraChain.Rules)
	return out
}

// Carteras enumerates every value Cartera can return.
func (r *Rules) Carteras() []string {
	out := make([]string, 0, len(r.CarteraChain.Rules)+1)
	for _, rule := range r.CarteraChain.Rules {
		out = append(out, rule.Value)
	}
	return append(out, r.CarteraChain.Default)
}

// Cartera classifies a source filename into its portfolio.
func (r *Rules) Cartera(filename string) string {
	f := textnorm.Fold(filename)
	for _, rule := range r.CarteraChain.Rules {
		if containsAny(f, rule.Contains) {
			return rule.Value
		}
	}
	return r.CarteraChain.Default
}

// ObjRecupero resolves the target recovery rate: tranche rules first, then
// filename rules, then the default.
func (r *Rules) ObjRecupero(tranche, filename string) float64 {
	t := textnorm.Fold(tranche)
	for _, rule := range r.ObjChain.Tranche {
		if t != "" && t == textnorm.Fold(rule.Equals) {
			return rule.Value
		}
	}
	f := textnorm.Fold(filename)
	for _, rule := range r.ObjChain.Filename {
		if containsAny(f, rule.Contains) {
			return rule.Value
		}
	}
	return r.ObjChain.Default
}

// Fraccionamiento maps the raw installment flag to its binary dimension.
func (r *Rules) Fraccionamiento(flag string) string {
	f := textnorm.Fold(flag)
	for _, yes := range r.FraccChain.Affirmative {
		if f != "" && f == textnorm.Fold(yes) {
			return Fraccionado
		}
	}
	return NoFraccionado
}

func containsAny(folded string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(folded, textnorm.Fold(m)) {
			return true
		}
	}
	return false
}
