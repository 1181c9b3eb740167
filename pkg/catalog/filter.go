package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nimburion/catalog/pkg/repository/document"
)

// Operator is a comparison accepted in filter parameters.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// operatorTokens are the nested keys that map to operators. eq is implicit.
var operatorTokens = map[string]Operator{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

var storeOperators = map[Operator]string{
	OpEq:  document.OpEq,
	OpGt:  document.OpGt,
	OpGte: document.OpGte,
	OpLt:  document.OpLt,
	OpLte: document.OpLte,
	OpIn:  document.OpIn,
}

// Criterion is one typed comparison on a field path.
type Criterion struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// FilterSet is the translated filter of one request.
type FilterSet struct {
	Criteria []Criterion
	summary  map[string]interface{}
}

// TranslateFilters walks the parsed parameters field by field and maps each
// nested key to an Operator. Unknown nested keys become an equality on the
// dotted path field.key. Values are coerced to the schema kind of their path.
func TranslateFilters(p Params, schema Schema) (FilterSet, error) {
	fs := FilterSet{summary: map[string]interface{}{}}

	for _, field := range p.Fields() {
		param := p.Filters[field]

		switch len(param.Values) {
		case 0:
		case 1:
			v, err := coerce(schema.Kind(field), param.Values[0])
			if err != nil {
				return FilterSet{}, fieldError(field, err)
			}
			fs.Criteria = append(fs.Criteria, Criterion{Field: field, Operator: OpEq, Value: v})
		default:
			vs, err := coerceAll(schema.Kind(field), param.Values)
			if err != nil {
				return FilterSet{}, fieldError(field, err)
			}
			fs.Criteria = append(fs.Criteria, Criterion{Field: field, Operator: OpIn, Value: vs})
		}

		nestedSummary := map[string]interface{}{}
		for _, key := range sortedKeys(param.Nested) {
			if strings.HasPrefix(key, "$") {
				continue
			}
			raw := param.Nested[key]
			op, known := operatorTokens[key]
			switch {
			case !known:
				path := field + "." + key
				v, err := coerce(schema.Kind(path), raw[0])
				if err != nil {
					return FilterSet{}, fieldError(path, err)
				}
				fs.Criteria = append(fs.Criteria, Criterion{Field: path, Operator: OpEq, Value: v})
				nestedSummary[key] = raw[0]
			case op == OpIn:
				parts := splitList(raw)
				vs, err := coerceAll(schema.Kind(field), parts)
				if err != nil {
					return FilterSet{}, fieldError(field, err)
				}
				fs.Criteria = append(fs.Criteria, Criterion{Field: field, Operator: OpIn, Value: vs})
				nestedSummary[key] = strings.Join(raw, ",")
			default:
				v, err := coerce(schema.Kind(field), raw[0])
				if err != nil {
					return FilterSet{}, fieldError(field, err)
				}
				fs.Criteria = append(fs.Criteria, Criterion{Field: field, Operator: op, Value: v})
				nestedSummary[key] = raw[0]
			}
		}

		switch {
		case len(nestedSummary) > 0:
			if len(param.Values) > 0 {
				nestedSummary[string(OpEq)] = summaryValue(param.Values)
			}
			fs.summary[field] = nestedSummary
		case len(param.Values) > 0:
			fs.summary[field] = summaryValue(param.Values)
		}
	}

	return fs, nil
}

// Summary is the filtering echo sent back to clients, built from raw values.
func (fs FilterSet) Summary() map[string]interface{} {
	if fs.summary == nil {
		return map[string]interface{}{}
	}
	return fs.summary
}

// Predicate builds the store filter. An empty set matches everything.
// Equality and membership criteria on the same field are intersected into a
// single $in, since the store filter holds one operand per operator.
func (fs FilterSet) Predicate() document.Filter {
	grouped := map[string][]Criterion{}
	var order []string
	for _, c := range fs.Criteria {
		if _, seen := grouped[c.Field]; !seen {
			order = append(order, c.Field)
		}
		grouped[c.Field] = append(grouped[c.Field], c)
	}

	pred := document.Filter{}
	for _, field := range order {
		ops := map[string]interface{}{}
		var members []interface{}
		sets := 0
		for _, c := range grouped[field] {
			ops[storeOperators[c.Operator]] = c.Value
			if c.Operator != OpEq && c.Operator != OpIn {
				continue
			}
			values := memberValues(c)
			if sets == 0 {
				members = values
			} else {
				members = intersect(members, values)
			}
			sets++
		}
		if sets > 1 {
			delete(ops, document.OpEq)
			ops[document.OpIn] = members
		}
		if v, ok := ops[document.OpEq]; ok && len(ops) == 1 {
			pred[field] = v
			continue
		}
		pred[field] = ops
	}
	return pred
}

func memberValues(c Criterion) []interface{} {
	if vs, ok := c.Value.([]interface{}); ok && c.Operator == OpIn {
		return vs
	}
	return []interface{}{c.Value}
}

func intersect(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a))
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func coerce(kind FieldKind, raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case KindNumber, KindInteger:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			d, derr := time.Parse(time.DateOnly, raw)
			if derr != nil {
				return nil, fmt.Errorf("%q is not a date", raw)
			}
			t = d
		}
		return t.UTC(), nil
	default:
		return raw, nil
	}
}

func coerceAll(kind FieldKind, raws []string) ([]interface{}, error) {
	out := make([]interface{}, 0, len(raws))
	for _, raw := range raws {
		v, err := coerce(kind, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(raws []string) []string {
	var out []string
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func summaryValue(values []string) interface{} {
	if len(values) == 1 {
		return values[0]
	}
	return append([]string(nil), values...)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%w: filter %s: %v", ErrInvalidInput, field, err)
}
