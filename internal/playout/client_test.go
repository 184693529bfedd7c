package playout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, status int) (*Client, *[]url.Values) {
	t.Helper()
	var requests []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query())
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zerolog.Nop()), &requests
}

func TestStop(t *testing.T) {
	c, requests := newTestServer(t, http.StatusOK)

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	q := (*requests)[0]
	if q.Get("action") != "stop" {
		t.Fatalf("action = %q, want stop", q.Get("action"))
	}
	if q.Has("file") {
		t.Fatal("stop must not carry a file parameter")
	}
}

func TestPlayFileAndEnqueue(t *testing.T) {
	c, requests := newTestServer(t, http.StatusOK)

	if err := c.PlayFile(context.Background(), "/audio/adbreak.mp3"); err != nil {
		t.Fatalf("PlayFile: %v", err)
	}
	if err := c.Enqueue(context.Background(), "/audio/adbreak.mp3"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if len(*requests) != 2 {
		t.Fatalf("expected two requests, got %d", len(*requests))
	}
	for i, action := range []string{"play", "enqueue"} {
		q := (*requests)[i]
		if q.Get("action") != action {
			t.Fatalf("request %d action = %q, want %q", i, q.Get("action"), action)
		}
		if q.Get("file") != "/audio/adbreak.mp3" {
			t.Fatalf("request %d file = %q", i, q.Get("file"))
		}
	}
}

func TestNonSuccessStatus(t *testing.T) {
	c, _ := newTestServer(t, http.StatusBadGateway)

	err := c.Stop(context.Background())
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.HasPrefix(err.Error(), "http:") {
		t.Fatalf("error must carry the http prefix: %v", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("error should name the status: %v", err)
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(base, zerolog.Nop())
	err := c.Stop(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !strings.HasPrefix(err.Error(), "http:") {
		t.Fatalf("error must carry the http prefix: %v", err)
	}
}

func TestMissingBaseURL(t *testing.T) {
	c := NewClient("", zerolog.Nop())
	if err := c.Stop(context.Background()); err == nil {
		t.Fatal("expected error without a configured URL")
	}
}
