package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/articleflow/internal/parser"
	"github.com/dgallion1/articleflow/internal/pathstore"
	"github.com/dgallion1/articleflow/internal/reflow"
)

type fakeStore struct {
	mu       sync.Mutex
	nodes    map[string]pathstore.NodeRequest
	failPuts int // number of leading PutNode calls that fail with a retryable error
	puts     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nodes: make(map[string]pathstore.NodeRequest)}
}

func (f *fakeStore) PutNode(_ context.Context, key string, req pathstore.NodeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.puts <= f.failPuts {
		return &pathstore.RetryableError{StatusCode: 503, Message: "unavailable"}
	}
	f.nodes[key] = req
	return nil
}

func (f *fakeStore) GetNode(_ context.Context, key string) (*pathstore.NodeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.nodes[key]
	if !ok {
		return nil, nil
	}
	return &pathstore.NodeResponse{Key: key, Value: req.Value}, nil
}

func (f *fakeStore) DeleteNode(_ context.Context, key string, recursive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.nodes {
		if k == key || (recursive && strings.HasPrefix(k, key+"/")) {
			delete(f.nodes, k)
		}
	}
	return nil
}

func (f *fakeStore) ListChildren(_ context.Context, key string, limit int) ([]pathstore.ListChildrenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pathstore.ListChildrenResponse
	for k, v := range f.nodes {
		if strings.HasPrefix(k, key+"/") {
			out = append(out, pathstore.ListChildrenResponse{Key: k, Value: v.Value})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func testWorker(store Store) *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWorker(store, log, reflow.DefaultConfig(), 5, parser.Options{}, NewRenderStats(time.Hour))
	w.backoff = func(int) time.Duration { return time.Millisecond }
	return w
}

func article(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.Repeat("Words fill the paragraph here. ", 6))
	}
	return sb.String()
}

func TestWorker_RenderWithoutStore(t *testing.T) {
	w := testWorker(nil)
	job := NewJob("u1", "", "story.txt", []byte(article(3)))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	r := job.Render()
	if r == nil {
		t.Fatal("expected render")
	}
	if len(r.Slots) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(r.Slots))
	}
	if !strings.HasPrefix(r.Slots[0], "<p>") {
		t.Errorf("expected paragraph in first slot, got %q", r.Slots[0])
	}
	if r.Title != "story" {
		t.Errorf("expected title from filename, got %q", r.Title)
	}
	if snap.Progress.Published {
		t.Error("expected no publish without a store")
	}
	if w.stats.Snapshot().Count != 1 {
		t.Error("expected one latency sample")
	}
}

func TestWorker_PublishesAndSkipsDuplicates(t *testing.T) {
	store := newFakeStore()
	w := testWorker(store)

	first := NewJob("u1", "doc1", "story.txt", []byte(article(2)))
	w.Process(context.Background(), first)
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", first.Snapshot().Status)
	}
	if _, ok := store.nodes[RenderKey("u1", "doc1")]; !ok {
		t.Fatal("expected render node to be published")
	}
	if _, ok := store.nodes[HashKey("u1", first.ContentHash, "doc1")]; !ok {
		t.Fatal("expected hash index node")
	}

	second := NewJob("u1", "doc2", "story.txt", []byte(article(2)))
	w.Process(context.Background(), second)
	if second.Snapshot().Status != StatusDupSkipped {
		t.Fatalf("expected duplicate_skipped, got %q", second.Snapshot().Status)
	}

	forced := NewJob("u1", "doc3", "story.txt", []byte(article(2)))
	forced.Force = true
	w.Process(context.Background(), forced)
	if forced.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected forced job to complete, got %q", forced.Snapshot().Status)
	}
}

func TestWorker_RetriesTransientPublishErrors(t *testing.T) {
	store := newFakeStore()
	store.failPuts = 2
	w := testWorker(store)

	job := NewJob("u1", "doc1", "story.txt", []byte(article(1)))
	w.Process(context.Background(), job)
	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed after retries, got %q", snap.Status)
	}
	if !snap.Progress.Published {
		t.Error("expected published flag")
	}
}

func TestWorker_PublishFailureIsPartial(t *testing.T) {
	store := newFakeStore()
	store.failPuts = MaxRetries
	w := testWorker(store)

	job := NewJob("u1", "doc1", "story.txt", []byte(article(1)))
	w.Process(context.Background(), job)
	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if job.Render() == nil {
		t.Error("expected render to be kept on the job")
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected one error, got %v", snap.Progress.Errors)
	}
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w := testWorker(nil)
	job := NewJob("u1", "", "image.png", []byte("x"))
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusFailed {
		t.Fatalf("expected failed, got %q", job.Snapshot().Status)
	}
}

func TestLastSegment(t *testing.T) {
	cases := map[string]string{
		"articles/users/u1/by_hash/abc/doc1": "doc1",
		"articles.users.u1.by_hash.abc.doc2": "doc2",
		"doc3":                               "doc3",
	}
	for in, want := range cases {
		if got := lastSegment(in); got != want {
			t.Errorf("lastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")
	err := retry(context.Background(), func(int) time.Duration { return 0 }, func(int, error) {}, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls, retries := 0, 0
	err := retry(context.Background(), func(int) time.Duration { return 0 }, func(int, error) { retries++ }, func() error {
		calls++
		return &pathstore.RetryableError{StatusCode: 429, Message: "slow down"}
	})
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if calls != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, calls)
	}
	if retries != MaxRetries-1 {
		t.Errorf("expected %d retries, got %d", MaxRetries-1, retries)
	}
}
