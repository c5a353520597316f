package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

func TestIndexToolEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/tools":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/tools/points":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "tools")
	tool := domain.Tool{ID: "tool-1", Name: "Alpha", Description: "automation"}
	vector := []float32{0.1, 0.2}

	if err := client.IndexTool(context.Background(), tool, vector); err != nil {
		t.Fatalf("first IndexTool() error = %v", err)
	}
	if err := client.IndexTool(context.Background(), tool, vector); err != nil {
		t.Fatalf("second IndexTool() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestSearchVectorDecodesHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/tools/points/query" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"points":[
			{"id":"p1","score":0.91,"payload":{"tool_id":"tool-1"}},
			{"id":"p2","score":0.75,"payload":{"tool_id":"tool-2"}}
		]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "tools")
	hits, err := client.SearchVector(context.Background(), []float32{0.1}, 10, nil)
	if err != nil {
		t.Fatalf("SearchVector() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ToolID != "tool-1" || hits[0].VectorScore == nil || *hits[0].VectorScore != 0.91 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
}

func TestSearchKeywordEmptyQueryReturnsNoHits(t *testing.T) {
	// No alphanumeric tokens means no sparse vector and no HTTP call.
	client := New("http://unreachable.invalid", "tools")
	hits, err := client.SearchKeyword(context.Background(), "!!! ---", 10, nil)
	if err != nil || hits != nil {
		t.Fatalf("expected nil/nil, got %v/%v", hits, err)
	}
}

func TestSearchVectorAppliesPreferenceFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":{"points":[]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "tools")
	prefs := &domain.Preferences{
		Categories:    []string{"coding"},
		MaxPrice:      25,
		FreeToolsOnly: true,
	}
	if _, err := client.SearchVector(context.Background(), []float32{0.1}, 10, prefs); err != nil {
		t.Fatalf("SearchVector() error = %v", err)
	}

	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("expected filter in request body, got %v", captured)
	}
	must, _ := filter["must"].([]any)
	if len(must) != 3 {
		t.Fatalf("expected 3 filter clauses, got %d", len(must))
	}
}

func TestBuildPreferenceFilterNilCases(t *testing.T) {
	if filter := buildPreferenceFilter(nil); filter != nil {
		t.Fatalf("expected nil filter for nil prefs")
	}
	if filter := buildPreferenceFilter(&domain.Preferences{}); filter != nil {
		t.Fatalf("expected nil filter for empty prefs")
	}
}

func TestStatusErrorIncludesResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "tools")
	_, err := client.SearchVector(context.Background(), []float32{0.1}, 10, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
