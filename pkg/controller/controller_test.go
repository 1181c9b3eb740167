package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimburion/catalog/pkg/server/router"
	"github.com/nimburion/catalog/pkg/server/router/nethttp"
	"github.com/nimburion/catalog/pkg/testutil"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "plain error", err: errors.New("db down"), wantStatus: 500, wantMsg: GenericErrorMessage},
		{name: "not found", err: NewNotFoundError("Product with id 1 was not found", nil), wantStatus: 404, wantMsg: "Product with id 1 was not found"},
		{name: "wrapped not found", err: fmt.Errorf("ctx: %w", NewNotFoundError("gone", nil)), wantStatus: 404, wantMsg: "gone"},
		{name: "server app error hides message", err: &AppError{Status: 503, Message: "pool exhausted"}, wantStatus: 500, wantMsg: GenericErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := MapError(tt.err)
			if status != tt.wantStatus || body.Error != tt.wantMsg || body.Success {
				t.Fatalf("MapError() = %d %+v", status, body)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewNotFoundError("missing", cause)
	if !errors.Is(err, cause) {
		t.Fatal("AppError must unwrap to its cause")
	}
	if err.Error() != "missing: root" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestEnvelopes(t *testing.T) {
	log := &testutil.RecordingLogger{}
	r := nethttp.NewRouter()
	r.GET("/ok", func(c router.Context) error { return Success(c, map[string]int{"n": 1}) })
	r.POST("/new", func(c router.Context) error { return Created(c, "x") })
	r.GET("/fail", func(c router.Context) error { return Error(c, log, errors.New("boom")) })

	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/ok", 200, `{"success":true,"data":{"n":1}}`},
		{http.MethodPost, "/new", 201, `{"success":true,"data":"x"}`},
		{http.MethodGet, "/fail", 500, `{"success":false,"error":"Server Error"}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.status {
			t.Fatalf("%s %s: status %d, want %d", tt.method, tt.path, rec.Code, tt.status)
		}
		var got, want interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		_ = json.Unmarshal([]byte(tt.body), &want)
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("%s %s: body %s, want %s", tt.method, tt.path, rec.Body.String(), tt.body)
		}
	}

	entry, ok := log.Find("request failed")
	if !ok || entry.Level != "error" {
		t.Fatalf("server errors must be logged, got %+v", log.Entries())
	}
}
