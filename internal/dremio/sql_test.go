package dremio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datalab-ops/dremio-token-operator/internal/retry"
)

func TestSubmitSQL(t *testing.T) {
	var gotStmt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/sql" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req sqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotStmt = req.SQL
		_, _ = w.Write([]byte(`{"id":"job-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", ClientOptions{Retry: testRetry()})
	id, err := c.SubmitSQL(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "job-1" {
		t.Fatalf("want job-1, got %q", id)
	}
	if gotStmt != "SELECT 1" {
		t.Fatalf("statement mismatch: %q", gotStmt)
	}
}

func TestSubmitSQL_RetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"job-2"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", ClientOptions{Retry: retry.Options{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}})
	id, err := c.SubmitSQL(context.Background(), "SELECT 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "job-2" {
		t.Fatalf("want job-2, got %q", id)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("want 2 attempts, got %d", n)
	}
}

func TestSubmitSQL_NoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad sql", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", ClientOptions{Retry: retry.Options{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}})
	if _, err := c.SubmitSQL(context.Background(), "BOGUS"); err == nil {
		t.Fatal("want error, got nil")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("client errors must not be retried, got %d attempts", n)
	}
}

func TestSplitStatements(t *testing.T) {
	script := `
-- seed tables
CREATE TABLE t1 (id INT);

INSERT INTO t1 VALUES (1);
-- trailing comment
INSERT INTO t1
  VALUES (2);
`
	got := SplitStatements(script)
	want := []string{
		"CREATE TABLE t1 (id INT)",
		"INSERT INTO t1 VALUES (1)",
		"INSERT INTO t1\n  VALUES (2)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestSplitStatements_Empty(t *testing.T) {
	if got := SplitStatements("-- nothing here\n;;\n"); got != nil {
		t.Fatalf("want nil, got %q", got)
	}
}
