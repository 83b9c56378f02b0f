package dremio

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

func TestLogin_Success(t *testing.T) {
	var gotPath, gotCT string
	var gotBody loginRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost {
			t.Errorf("want POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"token":"abc123"}`))
	}))
	defer srv.Close()

	tok, err := Login(context.Background(), srv.URL, "admin", "secret", 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "abc123" {
		t.Fatalf("want abc123, got %q", tok)
	}
	if gotPath != "/apiv2/login" {
		t.Fatalf("want /apiv2/login, got %q", gotPath)
	}
	if gotCT != "application/json" {
		t.Fatalf("want application/json, got %q", gotCT)
	}
	if gotBody.UserName != "admin" || gotBody.Password != "secret" {
		t.Fatalf("request body mismatch: %+v", gotBody)
	}
}

func TestLogin_TrailingSlashAddr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apiv2/login" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"token":"t"}`))
	}))
	defer srv.Close()

	if _, err := Login(context.Background(), srv.URL+"/", "u", "p", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogin_NonOKStatus(t *testing.T) {
	body := `{"errorMessage":"invalid credentials"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "wrong", 5*time.Second)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want *StatusError, got %T: %v", err, err)
	}
	if se.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", se.Code)
	}
	// The raw body must survive for diagnostics.
	if !strings.Contains(se.Body, "invalid credentials") {
		t.Fatalf("body not preserved: %q", se.Body)
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":""}`))
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "secret", 5*time.Second)
	var xe *ExtractionError
	if !errors.As(err, &xe) {
		t.Fatalf("want *ExtractionError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("want ErrTokenMissing cause, got %v", xe.Cause)
	}
}

func TestLogin_MissingTokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"userName":"admin"}`))
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "secret", 5*time.Second)
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("want ErrTokenMissing, got %v", err)
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "secret", 5*time.Second)
	var xe *ExtractionError
	if !errors.As(err, &xe) {
		t.Fatalf("want *ExtractionError, got %T: %v", err, err)
	}
	// Parse failure is a distinct cause, not the missing-field sentinel.
	if errors.Is(err, ErrTokenMissing) {
		t.Fatal("parse failure must not report ErrTokenMissing")
	}
	if xe.Body != "not-json" {
		t.Fatalf("body not preserved: %q", xe.Body)
	}
}

func TestLogin_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := Login(context.Background(), srv.URL, "admin", "secret", time.Second)
	if err == nil {
		t.Fatal("want transport error, got nil")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Fatalf("transport failure must not be a StatusError: %v", err)
	}
}
