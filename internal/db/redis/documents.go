package redis

import (
	"context"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// IndexBatch stores every document with JSON.SET in a single DoMulti
// round-trip. When a suggest field is configured, its string value is added to
// the suggestion dictionary in the same pipeline.
func (s *Store) IndexBatch(ctx context.Context, index string, docs []db.Doc) ([]batch.Result, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	type pending struct {
		doc int
		op  string
	}

	cmds := make([]rueidis.Completed, 0, len(docs))
	owners := make([]pending, 0, len(docs))
	for i, d := range docs {
		cmds = append(cmds, s.b().Arbitrary("JSON.SET").Keys(s.docKey(index, d.ID)).
			Args("$", string(d.Source)).Build())
		owners = append(owners, pending{doc: i, op: db.OpJSONSet})

		if term := s.suggestTerm(d.Source); term != "" {
			cmds = append(cmds, s.b().Arbitrary("FT.SUGADD").Keys(s.suggestKey(index, s.suggestField)).
				Args(term, "1", "INCR").Build())
			owners = append(owners, pending{doc: i, op: db.OpSugAdd})
		}
	}

	results := s.client.DoMulti(ctx, cmds...)

	errs := make([]error, len(docs))
	transport := 0
	for i, res := range results {
		err := res.Error()
		if err == nil {
			continue
		}
		if _, ok := rueidis.IsRedisErr(err); !ok {
			transport++
		}
		o := owners[i]
		if errs[o.doc] == nil {
			errs[o.doc] = &db.Error{Op: o.op, Err: fmt.Errorf("id %s: %w", docs[o.doc].ID, err)}
		}
	}
	if transport == len(results) {
		return nil, &db.Error{Op: db.OpJSONSet, Err: results[0].Error()}
	}

	out := make([]batch.Result, len(docs))
	for i, d := range docs {
		if errs[i] != nil {
			out[i] = batch.NewError(d.ID, errs[i])
			continue
		}
		out[i] = batch.NewOK(d.ID)
	}
	return out, nil
}

func (s *Store) suggestTerm(src []byte) string {
	if s.suggestField == "" || s.flavor != FlavorRedis {
		return ""
	}
	v, err := jsonparser.GetString(src, s.suggestField)
	if err != nil {
		return ""
	}
	return v
}
