// Package contract holds the behaviour every router adapter must share.
package contract

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nimburion/catalog/pkg/server/router"
)

type product struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// mountCatalog registers the public catalog routes with handlers that echo
// what the adapter handed them.
func mountCatalog(r router.Router) {
	r.GET("/products", func(c router.Context) error {
		return c.String(http.StatusOK, "sort="+c.Query("sort")+" gte="+c.Request().URL.Query().Get("price[gte]"))
	})
	r.POST("/products", func(c router.Context) error {
		var in product
		if err := c.Bind(&in); err != nil {
			return c.String(http.StatusBadRequest, "bind")
		}
		return c.JSON(http.StatusCreated, in)
	})
	r.PUT("/products/:id", func(c router.Context) error {
		var in product
		if err := c.Bind(&in); err != nil {
			return c.String(http.StatusBadRequest, "bind")
		}
		in.ID = c.Param("id")
		return c.JSON(http.StatusCreated, in)
	})
	r.DELETE("/products/:id", func(c router.Context) error {
		if c.Param("company") != "" {
			return errors.New("unregistered param resolved")
		}
		return c.String(http.StatusOK, "deleted "+c.Param("id"))
	})
	r.POST("/users/login", func(c router.Context) error {
		var in struct {
			Email string `json:"email"`
		}
		if err := c.Bind(&in); err != nil {
			return c.String(http.StatusOK, "fail")
		}
		return c.String(http.StatusOK, "login "+in.Email)
	})
}

// TestRouterContract runs the shared router conformance suite.
func TestRouterContract(t *testing.T, createRouter func() router.Router) {
	t.Helper()

	t.Run("catalog_routes", func(t *testing.T) {
		r := createRouter()
		mountCatalog(r)

		tests := []struct {
			name        string
			method      string
			target      string
			body        string
			contentType string
			wantStatus  int
			wantBody    string
			wantType    string
		}{
			{name: "list", method: http.MethodGet, target: "/products?sort=-price&sort=name&price%5Bgte%5D=10", wantStatus: http.StatusOK, wantBody: "sort=-price gte=10", wantType: "text/plain"},
			{name: "list without query", method: http.MethodGet, target: "/products", wantStatus: http.StatusOK, wantBody: "sort= gte="},
			{name: "create", method: http.MethodPost, target: "/products", body: `{"name":"desk"}`, contentType: "application/json; charset=utf-8", wantStatus: http.StatusCreated, wantBody: `{"name":"desk"}`, wantType: "application/json"},
			{name: "create malformed json", method: http.MethodPost, target: "/products", body: "{", contentType: "application/json", wantStatus: http.StatusBadRequest, wantBody: "bind"},
			{name: "create empty body", method: http.MethodPost, target: "/products", contentType: "application/json", wantStatus: http.StatusBadRequest, wantBody: "bind"},
			{name: "create form body", method: http.MethodPost, target: "/products", body: "name=x", contentType: "text/plain", wantStatus: http.StatusBadRequest, wantBody: "bind"},
			{name: "update", method: http.MethodPut, target: "/products/64b7f0", body: `{"name":"lamp"}`, contentType: "application/json", wantStatus: http.StatusCreated, wantBody: `{"id":"64b7f0","name":"lamp"}`},
			{name: "delete", method: http.MethodDelete, target: "/products/p9", wantStatus: http.StatusOK, wantBody: "deleted p9"},
			{name: "login", method: http.MethodPost, target: "/users/login", body: `{"email":"a@b.c"}`, contentType: "application/json", wantStatus: http.StatusOK, wantBody: "login a@b.c"},
			{name: "login without body", method: http.MethodPost, target: "/users/login", wantStatus: http.StatusOK, wantBody: "fail"},
			{name: "unknown route", method: http.MethodGet, target: "/orders", wantStatus: http.StatusNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var body io.Reader
				if tt.body != "" {
					body = strings.NewReader(tt.body)
				}
				res := performRequest(r, tt.method, tt.target, body, tt.contentType)
				if res.Code != tt.wantStatus {
					t.Fatalf("status = %d, want %d (body %q)", res.Code, tt.wantStatus, res.Body.String())
				}
				if tt.wantBody != "" && strings.TrimSpace(res.Body.String()) != tt.wantBody {
					t.Fatalf("body = %q, want %q", res.Body.String(), tt.wantBody)
				}
				if tt.wantType != "" && !strings.Contains(res.Header().Get("Content-Type"), tt.wantType) {
					t.Fatalf("Content-Type = %q, want %s", res.Header().Get("Content-Type"), tt.wantType)
				}
			})
		}
	})

	t.Run("middleware_chain", func(t *testing.T) {
		r := createRouter()
		var order []string
		r.Use(func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				order = append(order, "global")
				c.Set("request_id", "req-1")
				return next(c)
			}
		})
		r.GET("/products", func(c router.Context) error {
			order = append(order, "handler")
			if c.Get("missing") != nil {
				t.Error("missing key must be nil")
			}
			return c.String(http.StatusOK, c.Get("request_id").(string))
		}, func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				order = append(order, "route")
				return next(c)
			}
		})
		called := false
		r.POST("/products", func(c router.Context) error {
			called = true
			return c.String(http.StatusCreated, "never")
		}, func(router.HandlerFunc) router.HandlerFunc {
			return func(router.Context) error { return errors.New("rejected") }
		})

		res := performRequest(r, http.MethodGet, "/products", nil, "")
		if res.Body.String() != "req-1" {
			t.Fatalf("expected value stored by middleware, got %q", res.Body.String())
		}
		if strings.Join(order, ",") != "global,route,handler" {
			t.Fatalf("unexpected middleware order %v", order)
		}

		res = performRequest(r, http.MethodPost, "/products", nil, "")
		if called || res.Code != http.StatusInternalServerError {
			t.Fatalf("failing middleware must stop the chain with 500, got %d called=%v", res.Code, called)
		}
	})

	t.Run("groups", func(t *testing.T) {
		r := createRouter()
		users := r.Group("/users", func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				c.Set("group", "users")
				return next(c)
			}
		})
		users.POST("/signup", func(c router.Context) error {
			return c.String(http.StatusOK, c.Get("group").(string))
		})
		r.Group("/internal").Group("/catalog").GET("/stats", func(c router.Context) error {
			return c.String(http.StatusOK, "nested")
		})

		if res := performRequest(r, http.MethodPost, "/users/signup", nil, ""); res.Body.String() != "users" {
			t.Fatalf("expected group middleware value, got %d %q", res.Code, res.Body.String())
		}
		if res := performRequest(r, http.MethodGet, "/internal/catalog/stats", nil, ""); res.Body.String() != "nested" {
			t.Fatalf("expected nested group route, got %d %q", res.Code, res.Body.String())
		}
	})

	t.Run("handler_errors", func(t *testing.T) {
		r := createRouter()
		r.GET("/products", func(c router.Context) error { return errors.New("store down") })
		r.DELETE("/products/:id", func(c router.Context) error {
			if err := c.String(http.StatusNotFound, "missing"); err != nil {
				return err
			}
			return errors.New("already answered")
		})

		if res := performRequest(r, http.MethodGet, "/products", nil, ""); res.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", res.Code)
		}
		res := performRequest(r, http.MethodDelete, "/products/x", nil, "")
		if res.Code != http.StatusNotFound || res.Body.String() != "missing" {
			t.Fatalf("a written response must survive the error, got %d %q", res.Code, res.Body.String())
		}
	})

	t.Run("response_writer", func(t *testing.T) {
		r := createRouter()
		r.POST("/products", func(c router.Context) error {
			rw := c.Response()
			if rw.Written() {
				t.Error("Written must be false before writes")
			}
			rw.WriteHeader(http.StatusCreated)
			if !rw.Written() || rw.Status() != http.StatusCreated {
				t.Errorf("after WriteHeader: written=%v status=%d", rw.Written(), rw.Status())
			}
			_, err := rw.Write([]byte("created"))
			return err
		})

		res := performRequest(r, http.MethodPost, "/products", nil, "")
		if res.Code != http.StatusCreated || res.Body.String() != "created" {
			t.Fatalf("expected 201 created, got %d %q", res.Code, res.Body.String())
		}
	})

	t.Run("no_route", func(t *testing.T) {
		r := createRouter()
		r.Use(func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				c.Response().Header().Set("X-Chain", "global")
				return next(c)
			}
		})
		r.GET("/products", func(c router.Context) error { return c.String(http.StatusOK, "products") })
		r.NoRoute(func(c router.Context) error {
			return c.String(http.StatusOK, "fallback:"+c.Request().URL.Path)
		})

		res := performRequest(r, http.MethodGet, "/products", nil, "")
		if res.Body.String() != "products" {
			t.Fatalf("expected registered route to win, got %q", res.Body.String())
		}

		res = performRequest(r, http.MethodGet, "/css/site.css", nil, "")
		if res.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", res.Code)
		}
		if res.Body.String() != "fallback:/css/site.css" {
			t.Fatalf("unexpected fallback body %q", res.Body.String())
		}
		if res.Header().Get("X-Chain") != "global" {
			t.Fatal("expected router middleware to wrap the fallback")
		}
	})

	t.Run("options", func(t *testing.T) {
		r := createRouter()
		r.Use(func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				c.Response().Header().Set("Access-Control-Allow-Origin", "*")
				return next(c)
			}
		})
		mountCatalog(r)

		res := performRequest(r, http.MethodOptions, "/products", nil, "")
		if res.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", res.Code)
		}
		if res.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatal("expected router middleware on OPTIONS")
		}
	})
}

func performRequest(r router.Router, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = http.NoBody
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
