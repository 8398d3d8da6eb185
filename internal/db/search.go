package db

// AllFields names the catch-all field every backend searches by default.
const AllFields = "_all"

// TextQuery is the input for a phrase search: any of Phrases on Field, plus
// each phrase on BoostField weighted by BoostWeight.
type TextQuery struct {
	IndexName   string
	Field       string
	Phrases     []string
	BoostField  string
	BoostWeight float64
	Offset      int
	Limit       int
	SortBy      string
	SortDesc    bool
	Highlight   []string
	Explain     bool
}

// SuggestQuery asks for completions of Prefix on Field.
type SuggestQuery struct {
	IndexName string
	Field     string
	Prefix    string
	Max       int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key         string
	Score       float64
	Source      []byte
	Highlights  map[string][]string
	Explanation string
}
