package inventory

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

func decode(t *testing.T, src string) document.Value {
	t.Helper()
	v, err := document.Decode([]byte(src))
	require.NoError(t, err)
	return v
}

func TestCollect_AllDepths(t *testing.T) {
	s := Collect(decode(t, `{"a":1,"b":{"c":{"d":2}},"e":"x"}`))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, s.Names())
}

func TestCollect_OnlyFirstListElement(t *testing.T) {
	s := Collect(decode(t, `{"items":[{"sku":"a","qty":1},{"color":"red"}]}`))

	assert.Equal(t, []string{"items", "sku", "qty"}, s.Names())
	assert.False(t, s.Has("color"))
}

func TestCollect_NestedListsAndScalars(t *testing.T) {
	s := Collect(decode(t, `[[{"deep":1}],{"ignored":2}]`))
	assert.Equal(t, []string{"deep"}, s.Names())

	assert.Zero(t, Collect(document.NewScalar("x")).Len())
	assert.Zero(t, Collect(nil).Len())
	assert.Equal(t, []string{"a"}, Collect(decode(t, `{"a":[]}`)).Names())
}

func TestCollectFirst_AndAll(t *testing.T) {
	docs := []document.Value{
		decode(t, `{"title":"a","year":1}`),
		decode(t, `{"title":"b","author":"c"}`),
	}

	first := CollectFirst(slices.Values(docs))
	assert.Equal(t, []string{"title", "year"}, first.Names())

	all := CollectAll(slices.Values(docs))
	assert.Equal(t, []string{"title", "year", "author"}, all.Names())
	assert.Equal(t, []string{"author", "title", "year"}, all.Sorted())
}

func TestCollectFirst_Empty(t *testing.T) {
	assert.Zero(t, CollectFirst(slices.Values([]document.Value(nil))).Len())
}

func TestFieldSet_Merge(t *testing.T) {
	a := NewFieldSet("x", "y")
	a.Merge(NewFieldSet("y", "z"))
	assert.Equal(t, []string{"x", "y", "z"}, a.Names())
	assert.False(t, a.Add("x"))
}

func TestFieldSet_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewFieldSet("title", "author").WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "title\nauthor\n", buf.String())
	assert.Equal(t, int64(buf.Len()), n)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFieldSet_WriteToError(t *testing.T) {
	_, err := NewFieldSet("a").WriteTo(failingWriter{})
	assert.Error(t, err)
}
