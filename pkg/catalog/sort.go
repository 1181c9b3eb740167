package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/nimburion/catalog/pkg/repository/document"
)

// Direction is the order of one sort key.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortDirective is one key of an ordered sort.
type SortDirective struct {
	Field     string
	Direction Direction
}

// SortSummary echoes the accepted sort keys. It marshals to a JSON object
// whose keys keep the request order.
type SortSummary []SortDirective

func (s SortSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(string(d.Direction))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SortSpec is the normalized sort of one request.
// Directives is never empty.
type SortSpec struct {
	Directives []SortDirective
	Summary    SortSummary
}

// DefaultSort applies when no requested key survives normalization.
var DefaultSort = SortDirective{Field: "price", Direction: Descending}

// NormalizeSort parses "f1,-f2". Unknown fields are dropped, the first
// occurrence of a repeated field wins, and fallback is used when nothing
// survives. The summary lists only accepted keys.
func NormalizeSort(raw string, schema Schema, fallback SortDirective) SortSpec {
	spec := SortSpec{Summary: SortSummary{}}
	seen := map[string]struct{}{}

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		dir := Ascending
		if strings.HasPrefix(token, "-") {
			dir = Descending
			token = token[1:]
		}
		if token == "" || !schema.Has(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		d := SortDirective{Field: token, Direction: dir}
		spec.Directives = append(spec.Directives, d)
		spec.Summary = append(spec.Summary, d)
	}

	if len(spec.Directives) == 0 {
		spec.Directives = []SortDirective{fallback}
	}
	return spec
}

// StoreSort converts the directives to executor sort keys.
func (s SortSpec) StoreSort() []document.Sort {
	out := make([]document.Sort, 0, len(s.Directives))
	for _, d := range s.Directives {
		order := document.SortAsc
		if d.Direction == Descending {
			order = document.SortDesc
		}
		out = append(out, document.Sort{Field: d.Field, Order: order})
	}
	return out
}
