package bulk

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

// maxLineSize bounds one NDJSON line.
const maxLineSize = document.MaxSourceSize + 1024

// NewItem encodes v as a batch item. Raw JSON ([]byte, json.RawMessage)
// is taken as is, a document.Value keeps its key order, anything else is
// marshaled with encoding/json.
func NewItem(id string, v any) (batch.Item, error) {
	var src []byte
	switch t := v.(type) {
	case nil:
		return batch.Item{}, fmt.Errorf("%w: document %s is empty", domain.ErrInvalidInput, id)
	case []byte:
		src = t
	case json.RawMessage:
		src = t
	case document.Value:
		b, err := document.Encode(t)
		if err != nil {
			return batch.Item{}, fmt.Errorf("encode document %s: %w", id, err)
		}
		src = b
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return batch.Item{}, fmt.Errorf("encode document %s: %w", id, err)
		}
		src = b
	}
	return batch.Item{ID: id, Source: src}, nil
}

// NDJSON reads newline-delimited JSON objects as batch items. The ID is the
// string or number at idField; documents without one get a random UUID.
// Like bufio.Scanner, iteration stops at the first error, reported by Err.
type NDJSON struct {
	r       io.Reader
	idField string
	err     error
	line    int
}

// NewNDJSON creates a reader over r.
func NewNDJSON(r io.Reader, idField string) *NDJSON {
	return &NDJSON{r: r, idField: idField}
}

// Items yields one item per non-blank line.
func (n *NDJSON) Items() iter.Seq[batch.Item] {
	return func(yield func(batch.Item) bool) {
		sc := bufio.NewScanner(n.r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			n.line++
			line := sc.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			item, err := n.parse(line)
			if err != nil {
				n.err = err
				return
			}
			if !yield(item) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			n.err = fmt.Errorf("read line %d: %w", n.line+1, err)
		}
	}
}

// Err returns the error that stopped iteration, if any.
func (n *NDJSON) Err() error { return n.err }

func (n *NDJSON) parse(line []byte) (batch.Item, error) {
	src := make([]byte, len(line))
	copy(src, line)

	_, vt, _, err := jsonparser.Get(src)
	if err != nil {
		return batch.Item{}, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidInput, n.line, err)
	}
	if vt != jsonparser.Object {
		return batch.Item{}, fmt.Errorf("%w: line %d: expected object, got %s", domain.ErrInvalidInput, n.line, vt)
	}

	id := uuid.NewString()
	if n.idField != "" {
		if raw, t, _, err := jsonparser.Get(src, n.idField); err == nil {
			switch t {
			case jsonparser.String:
				if s, perr := jsonparser.ParseString(raw); perr == nil && s != "" {
					id = s
				}
			case jsonparser.Number:
				id = string(raw)
			}
		}
	}
	return batch.Item{ID: id, Source: src}, nil
}
