package index

import (
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
)

func buildIndex(s schema.Schema) (*db.IndexDefinition, error) {
	b := db.NewIndex(s.Index())
	for _, f := range s.Fields() {
		switch f.FieldType() {
		case schema.Text:
			if f.Weight() > 0 {
				b.TextWeighted(f.Name(), f.Weight())
			} else {
				b.Text(f.Name())
			}
		case schema.Tag:
			b.Tag(f.Name())
		case schema.Numeric:
			b.Numeric(f.Name())
		default:
			return nil, fmt.Errorf("unsupported field type %q for %s", f.FieldType(), f.Name())
		}
		if f.Sortable() {
			b.Sortable()
		}
	}
	return b.Build()
}
