package router_test

import (
	"strings"
	"testing"

	"github.com/nimburion/catalog/pkg/server/router"
	ginadapter "github.com/nimburion/catalog/pkg/server/router/gin"
	gorillaadapter "github.com/nimburion/catalog/pkg/server/router/gorilla"
	nethttpadapter "github.com/nimburion/catalog/pkg/server/router/nethttp"
)

func TestRouterImplementations_ConformToInterface(t *testing.T) {
	var _ router.Router = nethttpadapter.NewRouter()
	var _ router.Router = ginadapter.NewRouter()
	var _ router.Router = gorillaadapter.NewRouter()
}

func TestChain_FirstMiddlewareRunsOutermost(t *testing.T) {
	var trace []string
	mark := func(name string) router.MiddlewareFunc {
		return func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				trace = append(trace, name+">")
				err := next(c)
				trace = append(trace, "<"+name)
				return err
			}
		}
	}

	h := router.Chain(func(router.Context) error {
		trace = append(trace, "handler")
		return nil
	}, mark("a"), mark("b"))

	if err := h(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := strings.Join(trace, " "), "a> b> handler <b <a"; got != want {
		t.Fatalf("trace = %q, want %q", got, want)
	}
}
