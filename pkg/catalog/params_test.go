package catalog

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseParams(t *testing.T) {
	q := url.Values{
		"sort":          {"name,-price"},
		"page":          {"2"},
		"limit":         {"4"},
		"select":        {"name,price"},
		"price[gte]":    {"50"},
		"price[lte]":    {"150"},
		"company":       {"ikea", "liddy"},
		"colors[]":      {"red"},
		"$where":        {"1"},
		"[gt]":          {"1"},
		"a[b][c]":       {"x"},
		"sort[weird]":   {"x"},
		"category[$ne]": {"office"},
	}

	p := ParseParams(q)

	if p.Sort != "name,-price" || p.Page != "2" || p.Limit != "4" || p.Select != "name,price" {
		t.Fatalf("control keys not extracted: %+v", p)
	}
	for _, reserved := range []string{"sort", "page", "limit", "select"} {
		if _, ok := p.Filters[reserved]; ok {
			t.Fatalf("reserved key %q leaked into filters", reserved)
		}
	}
	if _, ok := p.Filters["$where"]; ok {
		t.Fatal("operator-like field must be dropped")
	}

	price := p.Filters["price"]
	if price == nil || !reflect.DeepEqual(price.Nested, map[string][]string{"gte": {"50"}, "lte": {"150"}}) {
		t.Fatalf("unexpected price param: %+v", price)
	}
	if got := p.Filters["company"].Values; !reflect.DeepEqual(got, []string{"ikea", "liddy"}) {
		t.Fatalf("repeated values not kept: %v", got)
	}
	if got := p.Filters["colors"].Values; !reflect.DeepEqual(got, []string{"red"}) {
		t.Fatalf("array form should be a bare value: %v", got)
	}
	if _, ok := p.Filters["a[b][c]"]; !ok {
		t.Fatal("deep nesting should pass through as a literal field")
	}
	if _, ok := p.Filters["[gt]"]; !ok {
		t.Fatal("key with empty field part and no match should pass through literally")
	}
	if got := p.Filters["category"].Nested["$ne"]; !reflect.DeepEqual(got, []string{"office"}) {
		t.Fatalf("nested keys are kept for the translator to judge: %v", got)
	}
}

func TestParseParams_FieldsSorted(t *testing.T) {
	p := ParseParams(url.Values{"b": {"1"}, "a": {"1"}, "c[gt]": {"1"}})
	if got := p.Fields(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Fields() = %v", got)
	}
}
