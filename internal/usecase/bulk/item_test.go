package bulk

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

func TestNewItem(t *testing.T) {
	doc, err := document.Decode([]byte(`{"z":1,"a":2}`))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"raw bytes", []byte(`{"a":1}`), `{"a":1}`},
		{"raw message", json.RawMessage(`{"b":2}`), `{"b":2}`},
		{"ordered document", doc, `{"z":1,"a":2}`},
		{"go map", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"struct", struct {
			Title string `json:"title"`
		}{"Go"}, `{"title":"Go"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := NewItem("id-1", tt.in)
			require.NoError(t, err)
			assert.Equal(t, "id-1", it.ID)
			assert.Equal(t, tt.want, string(it.Source))
		})
	}

	_, err = NewItem("id-1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = NewItem("id-1", map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestNDJSON_Items(t *testing.T) {
	in := strings.Join([]string{
		`{"id":"a","title":"Go"}`,
		``,
		`  `,
		`{"id":42,"title":"Rust"}`,
		`{"title":"no id"}`,
	}, "\n")

	r := NewNDJSON(strings.NewReader(in), "id")
	got := slices.Collect(r.Items())
	require.NoError(t, r.Err())
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, `{"id":"a","title":"Go"}`, string(got[0].Source))
	assert.Equal(t, "42", got[1].ID)
	_, err := uuid.Parse(got[2].ID)
	assert.NoError(t, err, "missing id must become a UUID")
}

func TestNDJSON_StopsAtInvalidLine(t *testing.T) {
	r := NewNDJSON(strings.NewReader("{\"id\":\"a\"}\n[1,2]\n{\"id\":\"c\"}\n"), "id")
	got := slices.Collect(r.Items())

	assert.Len(t, got, 1)
	require.ErrorIs(t, r.Err(), domain.ErrInvalidInput)
	assert.Contains(t, r.Err().Error(), "line 2")
}

func TestNDJSON_NoIDField(t *testing.T) {
	r := NewNDJSON(strings.NewReader(`{"id":"a"}`), "")
	got := slices.Collect(r.Items())
	require.Len(t, got, 1)
	assert.NotEqual(t, "a", got[0].ID)
}
