package storage

import "fmt"

// Condition is a single field equality test.
type Condition struct {
	Field string
	Value any
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Value: value}
}

// Where is a conjunction of equality conditions. An empty Where matches everything.
type Where []Condition

// Validate rejects unknown fields and non-scalar values.
func (w Where) Validate() error {
	for _, c := range w {
		if _, ok := (Metadata{}).Field(c.Field); !ok {
			return fmt.Errorf("unknown metadata field %q", c.Field)
		}
		switch c.Value.(type) {
		case string, bool:
		default:
			return fmt.Errorf("unsupported value type %T for field %q", c.Value, c.Field)
		}
	}
	return nil
}

// Matches reports whether m satisfies every condition.
func (w Where) Matches(m Metadata) bool {
	for _, c := range w {
		v, ok := m.Field(c.Field)
		if !ok || v != c.Value {
			return false
		}
	}
	return true
}

// Document renders the predicate in $eq/$and form: a single condition as
// {field: {$eq: v}}, several wrapped in {$and: [...]}. Nil when empty.
func (w Where) Document() map[string]any {
	switch len(w) {
	case 0:
		return nil
	case 1:
		return eqDoc(w[0])
	}
	clauses := make([]any, len(w))
	for i, c := range w {
		clauses[i] = eqDoc(c)
	}
	return map[string]any{"$and": clauses}
}

func eqDoc(c Condition) map[string]any {
	return map[string]any{c.Field: map[string]any{"$eq": c.Value}}
}

// columns maps metadata fields to SQL column names.
var columns = map[string]string{
	FieldEndpoint:     "endpoint",
	FieldMethod:       "method",
	FieldTags:         "tags",
	FieldOperationID:  "operation_id",
	FieldRequiresAuth: "requires_auth",
	FieldContentType:  "content_type",
	FieldSummary:      "summary",
}
