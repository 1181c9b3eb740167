package catalog

import (
	"net/url"
	"sort"
	"strings"
)

// Reserved query keys. They never reach the filter translator.
const (
	ParamSort   = "sort"
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSelect = "select"
)

var reservedParams = map[string]struct{}{
	ParamSort:   {},
	ParamPage:   {},
	ParamLimit:  {},
	ParamSelect: {},
}

// FilterParam collects every raw value given for one field.
// field=v lands in Values, field[key]=v lands in Nested[key].
type FilterParam struct {
	Values []string
	Nested map[string][]string
}

// Params is a request query split into filter parameters and control keys.
type Params struct {
	Filters map[string]*FilterParam
	Sort    string
	Select  string
	Page    string
	Limit   string
}

// Fields returns the filter field names in sorted order.
func (p Params) Fields() []string {
	fields := make([]string, 0, len(p.Filters))
	for f := range p.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ParseParams splits a raw query. Bracketed keys (price[gte]) are decoded
// into a nested value. Keys whose field part is empty or starts with "$",
// and bracketed forms of reserved keys, are dropped.
func ParseParams(values url.Values) Params {
	p := Params{Filters: map[string]*FilterParam{}}

	for rawKey, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if _, reserved := reservedParams[rawKey]; reserved {
			switch rawKey {
			case ParamSort:
				p.Sort = vals[0]
			case ParamPage:
				p.Page = vals[0]
			case ParamLimit:
				p.Limit = vals[0]
			case ParamSelect:
				p.Select = vals[0]
			}
			continue
		}

		field, nested, bracketed := splitKey(rawKey)
		if field == "" || strings.HasPrefix(field, "$") {
			continue
		}
		if _, reserved := reservedParams[field]; reserved {
			continue
		}

		fp, ok := p.Filters[field]
		if !ok {
			fp = &FilterParam{}
			p.Filters[field] = fp
		}
		// field[]=v is the array form of a bare value.
		if !bracketed || nested == "" {
			fp.Values = append(fp.Values, vals...)
			continue
		}
		if fp.Nested == nil {
			fp.Nested = map[string][]string{}
		}
		fp.Nested[nested] = append(fp.Nested[nested], vals...)
	}

	return p
}

// splitKey decodes "field[key]". Anything else, including deeper nesting,
// is returned unchanged as a literal field name.
func splitKey(raw string) (field, nested string, bracketed bool) {
	open := strings.IndexByte(raw, '[')
	if open <= 0 || !strings.HasSuffix(raw, "]") {
		return raw, "", false
	}
	inner := raw[open+1 : len(raw)-1]
	if strings.ContainsAny(inner, "[]") {
		return raw, "", false
	}
	return raw[:open], inner, true
}
