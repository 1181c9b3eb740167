package factory

import (
	"strings"
	"testing"

	ginadapter "github.com/nimburion/catalog/pkg/server/router/gin"
)

func TestNewRouter_ValidTypes(t *testing.T) {
	types := []string{"nethttp", "gin", "gorilla", "", " NETHTTP "}
	for _, typ := range types {
		t.Run(typ, func(t *testing.T) {
			r, err := NewRouter(typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r == nil {
				t.Fatal("expected non-nil router")
			}
		})
	}
}

func TestNewRouter_DefaultIsGin(t *testing.T) {
	r, err := NewRouter("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.(*ginadapter.GinRouter); !ok {
		t.Fatalf("expected gin router, got %T", r)
	}
}

func TestNewRouter_InvalidType(t *testing.T) {
	_, err := NewRouter("chi")
	if err == nil {
		t.Fatal("expected error for invalid type")
	}
	msg := err.Error()
	for _, typ := range []string{"nethttp", "gin", "gorilla"} {
		if !strings.Contains(msg, typ) {
			t.Fatalf("expected error to include %q, got %q", typ, msg)
		}
	}
}
