package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcherSuccess(t *testing.T) {
	starsBody := "H|           1| |00 00 00.22|+01 05 55.1| 9.10|1|H|000.00091185|+01.08901332| 3.54"
	linesBody := "Ori 1 26727 27989"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stars":
			w.Write([]byte(starsBody))
		case "/lines":
			w.Write([]byte(linesBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher(server.URL+"/stars", server.URL+"/lines", discardLogger)

	stars, err := f.FetchStars(context.Background())
	if err != nil {
		t.Fatalf("FetchStars: %v", err)
	}
	if string(stars) != starsBody {
		t.Errorf("FetchStars body = %q, want %q", stars, starsBody)
	}

	lines, err := f.FetchConstellations(context.Background())
	if err != nil {
		t.Fatalf("FetchConstellations: %v", err)
	}
	if string(lines) != linesBody {
		t.Errorf("FetchConstellations body = %q, want %q", lines, linesBody)
	}
}

func TestFetcherNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, server.URL, discardLogger)

	if _, err := f.FetchStars(context.Background()); err == nil {
		t.Error("FetchStars returned nil error for 503 response")
	} else if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q does not mention the status code", err)
	}
}

func TestFetcherContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	f := NewFetcher(server.URL, server.URL, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.FetchStars(ctx); err == nil {
		t.Error("FetchStars returned nil error for cancelled context")
	}
}

func TestFetcherDefaultURLs(t *testing.T) {
	f := NewFetcher("", "", discardLogger)
	if f.starsURL != defaultStarsURL {
		t.Errorf("starsURL = %q, want default", f.starsURL)
	}
	if f.linesURL != defaultLinesURL {
		t.Errorf("linesURL = %q, want default", f.linesURL)
	}
}
