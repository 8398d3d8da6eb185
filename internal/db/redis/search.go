package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/buger/jsonparser"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// sourceField is the RETURN name of the whole JSON document.
const sourceField = "$"

// Search runs a phrase query via FT.SEARCH. Every phrase is OR-ed; phrases on
// the boost field carry a $weight attribute.
func (s *Store) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Phrases) == 0 {
		return nil, fmt.Errorf("at least one phrase is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := []string{s.indexName(q.IndexName), buildQuery(q), "WITHSCORES"}
	if q.Explain {
		args = append(args, "EXPLAINSCORE")
	}

	returned := append([]string{sourceField}, q.Highlight...)
	args = append(args, "RETURN", strconv.Itoa(len(returned)))
	args = append(args, returned...)

	if len(q.Highlight) > 0 {
		args = append(args, "HIGHLIGHT", "FIELDS", strconv.Itoa(len(q.Highlight)))
		args = append(args, q.Highlight...)
		args = append(args, "TAGS", "<em>", "</em>")
	}

	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return s.parseScoredResult(q.IndexName, raw)
}

// Suggest returns completions from the field's suggestion dictionary.
// valkey-search has no suggestion dictionaries.
func (s *Store) Suggest(ctx context.Context, q *db.SuggestQuery) ([]string, error) {
	if s.flavor != FlavorRedis {
		return nil, db.ErrNotSupported
	}
	if q.IndexName == "" || q.Field == "" {
		return nil, fmt.Errorf("index and field are required")
	}
	if q.Prefix == "" {
		return []string{}, nil
	}
	limit := q.Max
	if limit <= 0 {
		limit = 5
	}

	cmd := s.b().Arbitrary("FT.SUGGET").Keys(s.suggestKey(q.IndexName, q.Field)).
		Args(q.Prefix, "MAX", strconv.Itoa(limit)).Build()
	out, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return []string{}, nil
		}
		return nil, &db.Error{Op: db.OpSugGet, Err: err}
	}
	return out, nil
}

// Sample returns up to n documents. Redis answers a bare "*" query; valkey-search
// does not support it, so keys are listed with SCAN and read with JSON.GET.
func (s *Store) Sample(ctx context.Context, index string, n int) (*db.SearchResult, error) {
	if n <= 0 {
		return &db.SearchResult{}, nil
	}
	if s.flavor == FlavorValkey {
		return s.scanSample(ctx, index, n)
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		s.indexName(index), "*",
		"RETURN", "1", sourceField,
		"LIMIT", "0", strconv.Itoa(n),
		"DIALECT", "2",
	).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return s.parseListResult(index, raw)
}

func (s *Store) scanSample(ctx context.Context, index string, n int) (*db.SearchResult, error) {
	keys, err := s.scan(ctx, s.docPrefix(index)+"*")
	if err != nil {
		return nil, err
	}
	sort.Strings(keys) // deterministic ordering

	total := len(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	if len(keys) == 0 {
		return &db.SearchResult{Total: total}, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, k := range keys {
		cmds[i] = s.b().Arbitrary("JSON.GET").Keys(k).Args(sourceField).Build()
	}

	entries := make([]db.SearchEntry, 0, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		raw, err := res.ToString()
		if err != nil {
			continue // key may have been deleted between SCAN and GET
		}
		// JSON.GET with a JSONPath wraps matches in an array
		doc, _, _, err := jsonparser.Get([]byte(raw), "[0]")
		if err != nil {
			continue
		}
		entries = append(entries, db.SearchEntry{Key: s.docID(index, keys[i]), Source: doc})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// --- Query building ---

func buildQuery(q *db.TextQuery) string {
	clauses := make([]string, 0, len(q.Phrases)*2)
	for _, p := range q.Phrases {
		clauses = append(clauses, fieldPhrase(q.Field, p))
	}
	if q.BoostField != "" && q.BoostWeight > 0 {
		weight := strconv.FormatFloat(q.BoostWeight, 'f', -1, 64)
		for _, p := range q.Phrases {
			clauses = append(clauses,
				fmt.Sprintf("(%s) => { $weight: %s; }", fieldPhrase(q.BoostField, p), weight))
		}
	}
	return strings.Join(clauses, " | ")
}

func fieldPhrase(field, phrase string) string {
	quoted := `"` + phraseEscaper.Replace(phrase) + `"`
	if field == "" || field == db.AllFields {
		return quoted
	}
	return "@" + escapeField(field) + ":(" + quoted + ")"
}

// escapeField backslash-escapes every rune of a field name that the query
// parser would read as syntax. Letters, digits and '_' pass through.
func escapeField(field string) string {
	var b strings.Builder
	b.Grow(len(field) + 4)
	for _, r := range field {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var phraseEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)

// --- Result parsing ---

// parseScoredResult reads the 3-stride WITHSCORES layout:
// [total, key1, score1, fields1, ...]. With EXPLAINSCORE the score slot is
// [score, [explanation...]].
func (s *Store) parseScoredResult(index string, raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		score, expl, err := parseScore(raw[i+1])
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entry := s.entryFromFields(index, key, fields)
		entry.Score = score
		entry.Explanation = expl
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseListResult reads the 2-stride layout: [total, key1, fields1, ...].
func (s *Store) parseListResult(index string, raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entries = append(entries, s.entryFromFields(index, key, fields))
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func (s *Store) entryFromFields(index, key string, fields []rueidis.RedisMessage) db.SearchEntry {
	entry := db.SearchEntry{Key: s.docID(index, key)}
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		if name == sourceField {
			entry.Source = []byte(value)
			continue
		}
		if entry.Highlights == nil {
			entry.Highlights = make(map[string][]string)
		}
		entry.Highlights[name] = append(entry.Highlights[name], value)
	}
	return entry
}

func parseScore(m rueidis.RedisMessage) (float64, string, error) {
	if parts, err := m.ToArray(); err == nil {
		if len(parts) == 0 {
			return 0, "", fmt.Errorf("empty score")
		}
		str, err := parts[0].ToString()
		if err != nil {
			return 0, "", err
		}
		score, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, "", err
		}
		var lines []string
		for _, p := range parts[1:] {
			flattenExplanation(p, 0, &lines)
		}
		return score, strings.Join(lines, "\n"), nil
	}

	str, err := m.ToString()
	if err != nil {
		return 0, "", err
	}
	score, err := strconv.ParseFloat(str, 64)
	return score, "", err
}

func flattenExplanation(m rueidis.RedisMessage, depth int, lines *[]string) {
	if arr, err := m.ToArray(); err == nil {
		for _, c := range arr {
			flattenExplanation(c, depth+1, lines)
		}
		return
	}
	if str, err := m.ToString(); err == nil {
		*lines = append(*lines, strings.Repeat("  ", max(0, depth-1))+str)
	}
}
