// Package analysis splits free-text queries into search tokens with bleve's
// analyzers.
package analysis

import (
	"fmt"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Analyzer names accepted by New.
const (
	Standard = standard.Name
	Simple   = simple.Name
	Keyword  = keyword.Name
	English  = en.AnalyzerName
	CJK      = cjk.AnalyzerName
)

// Analyzer turns text into ordered tokens. It is safe for concurrent use.
type Analyzer struct {
	name    string
	mapping *mapping.IndexMappingImpl
}

// New returns an analyzer for the named bleve analyzer; empty means Standard.
func New(name string) (*Analyzer, error) {
	if name == "" {
		name = Standard
	}
	m := blevesearch.NewIndexMapping()
	if _, err := m.AnalyzeText(name, []byte("check")); err != nil {
		return nil, fmt.Errorf("unknown analyzer %q: %w", name, err)
	}
	return &Analyzer{name: name, mapping: m}, nil
}

// Name returns the analyzer name.
func (a *Analyzer) Name() string { return a.name }

// Tokens analyzes text and returns the terms in order, keeping repeats.
func (a *Analyzer) Tokens(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	ts, err := a.mapping.AnalyzeText(a.name, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	out := make([]string, 0, len(ts))
	for _, tok := range ts {
		out = append(out, string(tok.Term))
	}
	return out, nil
}
