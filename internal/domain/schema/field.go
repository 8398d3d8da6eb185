package schema

import "fmt"

// Type is the indexing type of a field.
type Type string

// Field type constants.
const (
	// Text is a tokenized full-text field.
	Text Type = "text"
	// Tag is an exact-match field.
	Tag     Type = "tag"
	Numeric Type = "numeric"
)

// IsValid checks if the field type is supported.
func (t Type) IsValid() bool {
	return t == Text || t == Tag || t == Numeric
}

var reservedFieldNames = map[string]bool{
	"__source": true, "_all": true, "_id": true, "_score": true,
}

// Field is an immutable value object describing an indexed field.
type Field struct {
	name      string
	fieldType Type
	weight    float64
	sortable  bool
}

// NewField validates and creates a Field.
// Name must be non-empty, max 64 chars, not reserved and free of whitespace.
func NewField(name string, ft Type) (Field, error) {
	if err := validateFieldName(name); err != nil {
		return Field{}, err
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	return Field{name: name, fieldType: ft}, nil
}

func validateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("field name %q too long (max 64)", name)
	}
	if reservedFieldNames[name] {
		return fmt.Errorf("field name %q is reserved", name)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("field name %q must be alphanumeric with _ : -", name)
	}
	return nil
}

// WithWeight returns a copy with a relevance weight. Only text fields carry one.
func (f Field) WithWeight(w float64) Field {
	if f.fieldType == Text && w > 0 {
		f.weight = w
	}
	return f
}

// AsSortable returns a copy that the backend keeps sortable.
func (f Field) AsSortable() Field {
	f.sortable = true
	return f
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the field's indexing type.
func (f Field) FieldType() Type { return f.fieldType }

// Weight returns the relevance weight; 0 means backend default.
func (f Field) Weight() float64 { return f.weight }

// Sortable reports whether results can be sorted by the field.
func (f Field) Sortable() bool { return f.sortable }
