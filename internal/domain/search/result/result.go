package result

import "github.com/kailas-cloud/smartsearch/internal/domain/document"

// Hit is a single search hit.
type Hit struct {
	id          string
	score       float64
	source      document.Value
	highlights  map[string][]string
	explanation string
}

// New creates a search hit.
func New(
	id string, score float64, source document.Value,
	highlights map[string][]string, explanation string,
) Hit {
	return Hit{
		id: id, score: score, source: source,
		highlights: highlights, explanation: explanation,
	}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// Source returns the decoded document; nil when the backend returned none.
func (h *Hit) Source() document.Value { return h.source }

// Highlights returns marked-up fragments per field.
func (h *Hit) Highlights() map[string][]string { return h.highlights }

// Explanation returns the backend's score explanation, if requested.
func (h *Hit) Explanation() string { return h.explanation }

// Page is one page of hits plus the total match count.
type Page struct {
	Hits  []Hit
	Total int
}

// Top returns the best hit.
func (p *Page) Top() (Hit, bool) {
	if p == nil || len(p.Hits) == 0 {
		return Hit{}, false
	}
	return p.Hits[0], true
}

// Sources returns the decoded source of every hit that has one.
func (p *Page) Sources() []document.Value {
	if p == nil {
		return nil
	}
	out := make([]document.Value, 0, len(p.Hits))
	for i := range p.Hits {
		if s := p.Hits[i].Source(); s != nil {
			out = append(out, s)
		}
	}
	return out
}
