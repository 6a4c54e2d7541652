package chainclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHeightParsesTipResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chain/tip" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"height":123456}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	height, err := client.Height(context.Background())
	if err != nil {
		t.Fatalf("Height returned error: %v", err)
	}
	if height != 123456 {
		t.Errorf("expected height 123456, got %d", height)
	}
}

func TestHeightOmitsAPIKeyWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.Header["X-Api-Key"]; present {
			t.Error("expected no api key header on unauthenticated client")
		}
		w.Write([]byte(`{"data":{"height":7}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	height, err := client.Height(context.Background())
	if err != nil {
		t.Fatalf("Height returned error: %v", err)
	}
	if height != 7 {
		t.Errorf("expected height 7, got %d", height)
	}
}

func TestHeightSurfacesNodeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"errors":[{"title":"Node Unavailable","detail":"syncing","status":"503"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	if _, err := client.Height(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}

func TestLocalClockAdvances(t *testing.T) {
	clock := NewLocalClock(500, 10*time.Millisecond)

	first, err := clock.Height(context.Background())
	if err != nil {
		t.Fatalf("Height returned error: %v", err)
	}
	if first < 500 {
		t.Errorf("expected height >= start height, got %d", first)
	}

	time.Sleep(35 * time.Millisecond)
	second, err := clock.Height(context.Background())
	if err != nil {
		t.Fatalf("Height returned error: %v", err)
	}
	if second <= first {
		t.Errorf("expected height to advance, got %d then %d", first, second)
	}
}
