package document

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Matches reports whether doc satisfies every clause of filter.
// Field paths may be dotted to reach into nested objects. A clause against
// an array field matches when any element matches.
func Matches(doc Document, filter Filter) (bool, error) {
	for path, cond := range filter {
		if strings.HasPrefix(path, "$") {
			return false, fmt.Errorf("%w: %s", ErrUnsupportedOperator, path)
		}
		value, found := Lookup(doc, path)

		ops, isOps := operatorMap(cond)
		if !isOps {
			if !matchEq(value, found, cond) {
				return false, nil
			}
			continue
		}
		for op, operand := range ops {
			ok, err := matchOperator(op, value, found, operand)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// Lookup resolves a dotted path inside doc.
func Lookup(doc Document, path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Document:
		return t, true
	case Filter:
		return t, true
	default:
		return nil, false
	}
}

// operatorMap returns cond as an operator object when all of its keys start with "$".
func operatorMap(cond interface{}) (map[string]interface{}, bool) {
	m, ok := asMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchOperator(op string, value interface{}, found bool, operand interface{}) (bool, error) {
	switch op {
	case OpEq:
		return matchEq(value, found, operand), nil
	case OpNe:
		return !matchEq(value, found, operand), nil
	case OpGt, OpGte, OpLt, OpLte:
		if !found {
			return false, nil
		}
		return anyElement(value, func(v interface{}) bool {
			cmp, ok := compareSameType(v, operand)
			if !ok {
				return false
			}
			switch op {
			case OpGt:
				return cmp > 0
			case OpGte:
				return cmp >= 0
			case OpLt:
				return cmp < 0
			default:
				return cmp <= 0
			}
		}), nil
	case OpIn, OpNin:
		candidates, ok := asSlice(operand)
		if !ok {
			return false, fmt.Errorf("%s needs an array operand", op)
		}
		in := false
		for _, c := range candidates {
			if matchEq(value, found, c) {
				in = true
				break
			}
		}
		if op == OpIn {
			return in, nil
		}
		return !in, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
	}
}

func matchEq(value interface{}, found bool, want interface{}) bool {
	if want == nil {
		return !found || value == nil
	}
	if !found {
		return false
	}
	if valuesEqual(value, want) {
		return true
	}
	if _, isSlice := asSlice(want); isSlice {
		return false
	}
	return anyElement(value, func(v interface{}) bool { return valuesEqual(v, want) })
}

// anyElement applies pred to value, or to each element when value is an array.
func anyElement(value interface{}, pred func(interface{}) bool) bool {
	items, ok := asSlice(value)
	if !ok {
		return pred(value)
	}
	for _, item := range items {
		if pred(item) {
			return true
		}
	}
	return false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func valuesEqual(a, b interface{}) bool {
	if cmp, ok := compareSameType(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareSameType orders two scalars of the same kind. ok is false when the
// values are of different kinds or are not scalars.
func compareSameType(a, b interface{}) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return compareOrdered(af, bf), true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func compareOrdered[T float64 | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ToFloat converts any numeric value to float64.
func ToFloat(v interface{}) (float64, bool) {
	return toFloat(v)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// typeRank orders values of different kinds the way MongoDB sorts them.
func typeRank(v interface{}, found bool) int {
	if !found || v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case map[string]interface{}, Document:
		return 3
	case []interface{}:
		return 4
	case bool:
		return 5
	case time.Time:
		return 6
	default:
		return 7
	}
}

// compareForSort orders any two values, falling back to type rank across kinds.
func compareForSort(a interface{}, aFound bool, b interface{}, bFound bool) int {
	ra, rb := typeRank(a, aFound), typeRank(b, bFound)
	if ra != rb {
		return compareOrdered(ra, rb)
	}
	if cmp, ok := compareSameType(a, b); ok {
		return cmp
	}
	return 0
}
