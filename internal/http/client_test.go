package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "concert-scanner" {
			t.Errorf("User-Agent = %q", got)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"echo": "` + in["say"] + `"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	var out struct {
		Echo string `json:"echo"`
	}
	err := client.PostJSON(context.Background(), srv.URL, map[string]string{"x-api-key": "secret"}, map[string]string{"say": "hi"}, &out)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if out.Echo != "hi" {
		t.Errorf("Echo = %q, want hi", out.Echo)
	}
}

func TestClient_PostJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "API key not valid", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(0).PostJSON(context.Background(), srv.URL, nil, struct{}{}, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Code != http.StatusUnauthorized {
		t.Errorf("Code = %d", se.Code)
	}
	if !strings.Contains(se.Error(), "API key not valid") {
		t.Errorf("Error() = %q, should include body", se.Error())
	}
}

func TestClient_PostJSONBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	var out map[string]any
	if err := NewClient(0).PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out); err == nil {
		t.Error("expected decode error")
	}
}
