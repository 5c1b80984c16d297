package docstore

import (
	"cmp"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"time"
)

// FieldID addresses the document ID in filters.
const FieldID = "__name__"

// Op is a filter operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
	OpIn            Op = "in"
)

// Filter restricts a query to documents whose field matches Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains matches documents whose array field contains value.
func ArrayContains(field string, value any) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// In matches documents whose field equals one of values.
func In[T any](field string, values []T) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{Field: field, Op: OpIn, Value: vs}
}

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Order sorts query results by a field.
type Order struct {
	Field     string
	Direction Direction
}

// Query selects documents from a collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    []Order
	Limit      int
}

// NewQuery starts a query over collection.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(f Filter) Query {
	q.Filters = append(slices.Clip(q.Filters), f)
	return q
}

// Order returns a copy of q with an additional sort key.
func (q Query) Order(field string, dir Direction) Query {
	q.OrderBy = append(slices.Clip(q.OrderBy), Order{Field: field, Direction: dir})
	return q
}

// WithLimit returns a copy of q limited to n documents. Zero means no limit.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks collection and field names and filter operators.
// SQL backends embed field names in statements, so only identifiers are accepted.
func (q Query) Validate() error {
	if !fieldNameRe.MatchString(q.Collection) {
		return fmt.Errorf("invalid collection %q", q.Collection)
	}
	for _, f := range q.Filters {
		if f.Field != FieldID && !fieldNameRe.MatchString(f.Field) {
			return fmt.Errorf("invalid filter field %q", f.Field)
		}
		switch f.Op {
		case OpEqual, OpArrayContains:
		case OpIn:
			if _, ok := f.Value.([]any); !ok {
				return fmt.Errorf("filter %q: in requires a list value", f.Field)
			}
		default:
			return fmt.Errorf("filter %q: unsupported operator %q", f.Field, f.Op)
		}
	}
	for _, o := range q.OrderBy {
		if !fieldNameRe.MatchString(o.Field) {
			return fmt.Errorf("invalid order field %q", o.Field)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return nil
}

// ValidField reports whether name is usable as a document field name.
func ValidField(name string) bool {
	return fieldNameRe.MatchString(name)
}

// Matches reports whether doc satisfies every filter of q.
func (q Query) Matches(doc Document) bool {
	for _, f := range q.Filters {
		if !f.matches(doc) {
			return false
		}
	}
	return true
}

func (f Filter) matches(doc Document) bool {
	var v any
	if f.Field == FieldID {
		v = doc.ID
	} else {
		var ok bool
		if v, ok = doc.Data[f.Field]; !ok {
			return false
		}
	}

	switch f.Op {
	case OpEqual:
		return ValuesEqual(v, f.Value)
	case OpArrayContains:
		for _, el := range AsSlice(v) {
			if ValuesEqual(el, f.Value) {
				return true
			}
		}
		return false
	case OpIn:
		for _, want := range AsSlice(f.Value) {
			if ValuesEqual(v, want) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Apply filters, sorts and limits docs in memory. Documents without an
// explicit order are sorted by ID.
func (q Query) Apply(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d) {
			out = append(out, d)
		}
	}
	SortDocuments(out, q.OrderBy)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// SortDocuments sorts docs by the given keys, then by ID.
func SortDocuments(docs []Document, order []Order) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		for _, o := range order {
			c := CompareValues(a.Data[o.Field], b.Data[o.Field])
			if o.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// ValuesEqual compares two field values, treating all numeric types and
// timestamp representations as comparable.
func ValuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := AsTime(a); ok {
		if tb, ok := AsTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// CompareValues orders field values. Missing values sort first; values of
// different kinds are ordered by kind.
func CompareValues(a, b any) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case rankNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmp.Compare(fa, fb)
	case rankTime:
		ta, _ := AsTime(a)
		tb, _ := AsTime(b)
		return ta.Compare(tb)
	case rankString:
		return cmp.Compare(a.(string), b.(string))
	default:
		return 0
	}
}

const (
	rankNull = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func kindRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	case string:
		if _, ok := AsTime(v); ok {
			return rankTime
		}
		return rankString
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	return rankOther
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// normalize converts typed slices and maps into their []any / map[string]any
// forms so values round-tripped through different backends compare equal.
func normalize(v any) any {
	switch x := v.(type) {
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = normalize(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, el := range x {
			out[k] = normalize(el)
		}
		return out
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case string:
		if t, ok := AsTime(x); ok {
			return t.UTC().Format(TimeLayout)
		}
		return x
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}
