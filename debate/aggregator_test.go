package debate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// testClientConfig keeps the throttle invisible in tests.
func testClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:               url,
		Token:             "tok",
		RequestsPerSecond: 1000,
		Burst:             1000,
	}
}

func TestSearch_RetriesOnceAfter429WithIdenticalPayload(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var payloads [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		payloads = append(payloads, b)
		n := len(payloads)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"1"}]}`)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	posts, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "1" {
		t.Fatalf("posts=%v", posts)
	}
	if len(payloads) != 2 {
		t.Fatalf("requests=%d, want 2", len(payloads))
	}
	if !bytes.Equal(payloads[0], payloads[1]) {
		t.Fatalf("retry payload differs:\n%s\n%s", payloads[0], payloads[1])
	}
	if len(slept) != 1 || slept[0] != 60*time.Second {
		t.Fatalf("slept=%v, want one 60s wait", slept)
	}
}

func TestSearch_RateLimitRetriesExhausted(t *testing.T) {
	t.Parallel()

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL)
	cfg.MaxAttempts = 3
	cfg.RetryBaseDelay = time.Second
	c := NewClient(cfg)
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err=%v, want ErrRateLimited", err)
	}
	if requests != 3 {
		t.Fatalf("requests=%d, want 3", requests)
	}
	// Exponential backoff off the base delay.
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("slept=%v, want [1s 2s]", slept)
	}
}

func TestSearch_NonSuccessStatusIsTyped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err=%v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode=%d, want 500", statusErr.StatusCode)
	}
	if statusErr.Body != "boom" {
		t.Fatalf("Body=%q, want %q", statusErr.Body, "boom")
	}
}

func TestSearch_EmptyResultsIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	posts, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("posts=%v, want none", posts)
	}
}

func TestSearch_TransportErrorIsNotAStatusError(t *testing.T) {
	t.Parallel()

	c := NewClient(testClientConfig("http://127.0.0.1:0"))
	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("transport failure surfaced as StatusError: %v", err)
	}
}

func TestSearch_LegacyDataEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"9","username":"cz","text":"gm","date":"2025-02-07","likes":10}]}`)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	posts, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts=%v, want one", posts)
	}
	want := Post{ID: "9", Author: "cz", Text: "gm", CreatedAt: "2025-02-07", LikeCount: 10}
	if posts[0] != want {
		t.Fatalf("post=%+v, want %+v", posts[0], want)
	}
}

func TestSearchRecentPosts_PayloadShape(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := c.SearchRecentPosts(context.Background(), "alice", now); err != nil {
		t.Fatalf("SearchRecentPosts: %v", err)
	}

	if gotAuth != "tok" {
		t.Fatalf("Authorization=%q, want %q", gotAuth, "tok")
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type=%q", gotContentType)
	}

	var req SearchRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !strings.HasPrefix(req.Query, "from:alice ") {
		t.Fatalf("Query=%q", req.Query)
	}
	if req.Sort != "Top" || req.Lang != "en" {
		t.Fatalf("Sort=%q Lang=%q", req.Sort, req.Lang)
	}
	if req.StartDate != "2025-03-01T11:50:00Z" || req.EndDate != "2025-03-01T12:00:00Z" {
		t.Fatalf("window=%q..%q", req.StartDate, req.EndDate)
	}
	// Original-post searches carry no like floor at all.
	if bytes.Contains(gotBody, []byte("min_likes")) {
		t.Fatalf("payload carries min_likes: %s", gotBody)
	}
}

func TestSearchPopularReplies_ThresholdInPayload(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	parent := Post{ID: "42", LikeCount: 7}
	if _, err := c.SearchPopularReplies(context.Background(), parent, time.Now()); err != nil {
		t.Fatalf("SearchPopularReplies: %v", err)
	}

	var req SearchRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if req.MinLikes != 3 {
		t.Fatalf("MinLikes=%d, want 3", req.MinLikes)
	}
	if !strings.Contains(req.Query, "conversation_id:42 ") || !strings.Contains(req.Query, "min_faves:3 ") {
		t.Fatalf("Query=%q", req.Query)
	}
}

func TestSearchPopularReplies_ParentWithoutID(t *testing.T) {
	t.Parallel()

	c := NewClient(testClientConfig("http://unused"))
	if _, err := c.SearchPopularReplies(context.Background(), Post{LikeCount: 5}, time.Now()); err == nil {
		t.Fatal("expected error for parent without id")
	}
}
