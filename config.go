package bookkeep

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/nivelet/bookkeep/address"
	"github.com/nivelet/bookkeep/analysis"
	"github.com/nivelet/bookkeep/knowledge"
	"gopkg.in/yaml.v3"
)

// configDocument is the YAML shape of the analyzer configuration as it is
// persisted by collaborators.
type configDocument struct {
	Currency          string                                    `yaml:"currency"`
	Plugin            string                                    `yaml:"plugin"`
	AllowShortSelling bool                                      `yaml:"allowShortSelling"`
	Addresses         map[string]string                         `yaml:"addresses"`
	Answers           map[string]string                         `yaml:"answers"`
	Knowledge         map[knowledge.Category]knowledge.TreeData `yaml:"knowledge"`
}

// ParseConfig parses a YAML configuration document into an analyzer
// configuration. The default currency must be a known ISO 4217 code and
// every address key must be a well-formed dotted address.
func ParseConfig(data []byte) (analysis.Config, error) {
	var doc configDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return analysis.Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	if doc.Currency == "" {
		return analysis.Config{}, fmt.Errorf("configuration misses a default currency")
	}
	if money.GetCurrency(doc.Currency) == nil {
		return analysis.Config{}, fmt.Errorf("unknown currency code %q", doc.Currency)
	}

	for key := range doc.Addresses {
		if _, err := address.Parse(key); err != nil {
			return analysis.Config{}, fmt.Errorf("invalid address key: %w", err)
		}
	}

	cfg := analysis.Config{
		Currency:          doc.Currency,
		Plugin:            doc.Plugin,
		AllowShortSelling: doc.AllowShortSelling,
		Addresses:         doc.Addresses,
		Answers:           doc.Answers,
	}

	if len(doc.Knowledge) > 0 {
		base, err := knowledge.New(doc.Knowledge)
		if err != nil {
			return analysis.Config{}, err
		}
		cfg.Knowledge = base
	}
	return cfg, nil
}
