package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeSort(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		directives  []SortDirective
		summaryJSON string
	}{
		{
			name:        "absent uses default and empty summary",
			raw:         "",
			directives:  []SortDirective{DefaultSort},
			summaryJSON: `{}`,
		},
		{
			name:        "ascending",
			raw:         "price",
			directives:  []SortDirective{{Field: "price", Direction: Ascending}},
			summaryJSON: `{"price":"ascending"}`,
		},
		{
			name: "compound keeps request order",
			raw:  "name,-price",
			directives: []SortDirective{
				{Field: "name", Direction: Ascending},
				{Field: "price", Direction: Descending},
			},
			summaryJSON: `{"name":"ascending","price":"descending"}`,
		},
		{
			name: "first duplicate wins",
			raw:  "-price,price,name",
			directives: []SortDirective{
				{Field: "price", Direction: Descending},
				{Field: "name", Direction: Ascending},
			},
			summaryJSON: `{"price":"descending","name":"ascending"}`,
		},
		{
			name:        "unknown fields dropped",
			raw:         "bogus,-rating",
			directives:  []SortDirective{{Field: "rating", Direction: Descending}},
			summaryJSON: `{"rating":"descending"}`,
		},
		{
			name:        "all rejected falls back",
			raw:         "bogus,-,--price",
			directives:  []SortDirective{DefaultSort},
			summaryJSON: `{}`,
		},
		{
			name:        "whitespace tolerated",
			raw:         " name , -stock ",
			directives:  []SortDirective{{Field: "name", Direction: Ascending}, {Field: "stock", Direction: Descending}},
			summaryJSON: `{"name":"ascending","stock":"descending"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := NormalizeSort(tt.raw, ProductSchema, DefaultSort)
			if !reflect.DeepEqual(spec.Directives, tt.directives) {
				t.Fatalf("directives = %+v, want %+v", spec.Directives, tt.directives)
			}
			got, err := json.Marshal(spec.Summary)
			if err != nil {
				t.Fatalf("marshal summary: %v", err)
			}
			if string(got) != tt.summaryJSON {
				t.Fatalf("summary = %s, want %s", got, tt.summaryJSON)
			}
		})
	}
}

func TestSortSpec_StoreSort(t *testing.T) {
	spec := NormalizeSort("name,-price", ProductSchema, DefaultSort)
	keys := spec.StoreSort()
	if len(keys) != 2 || keys[0].Field != "name" || keys[0].Order != "asc" || keys[1].Order != "desc" {
		t.Fatalf("unexpected store sort %+v", keys)
	}
}
