package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusConflict, "constraint_violation", map[string]string{"kind": "foreign_key"})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `{"error":"constraint_violation","details":{"kind":"foreign_key"}}`
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name *string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Chair"}`, false},
		{"unknown field", `{"nom":"Chair"}`, true},
		{"malformed", `{"name":`, true},
		{"trailing", `{"name":"a"} {"name":"b"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadRequest) {
				t.Errorf("error should wrap ErrBadRequest: %v", err)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var got uint
	var gotErr error
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/12", nil))
	if gotErr != nil || got != 12 {
		t.Errorf("PathID = %d, %v", got, gotErr)
	}
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/0", nil))
	if !errors.Is(gotErr, ErrBadRequest) {
		t.Errorf("id 0 should be rejected, got %v", gotErr)
	}
}
