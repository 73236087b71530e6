package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

type mockStore struct {
	lists   map[string][]string
	hashes  map[string]map[string]string
	calls   []string
	listErr error
	hsetErr error
	delErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		lists:  make(map[string][]string),
		hashes: make(map[string]map[string]string),
	}
}

func (m *mockStore) ReplaceList(_ context.Context, key string, values []string) error {
	m.calls = append(m.calls, "list "+key)
	if m.listErr != nil {
		return m.listErr
	}
	m.lists[key] = append([]string(nil), values...)
	return nil
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.calls = append(m.calls, "hset "+key)
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	m.calls = append(m.calls, "del "+key)
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.lists, key)
	delete(m.hashes, key)
	return nil
}

func sampleAssignment() *domsplit.Assignment {
	a := domsplit.NewAssignment()
	a.Add(domsplit.Train, "b.txt")
	a.Add(domsplit.Train, "a.txt")
	a.Add(domsplit.Test, "c.txt")
	return a
}

func TestPublish_WritesListsThenMeta(t *testing.T) {
	s := newMockStore()
	r := New(s, "datasplit:")
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := r.Publish(context.Background(), "r1", sampleAssignment(), Meta{
		Seed:   42,
		Policy: "split-order",
		Ratios: domsplit.DefaultRatios(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCalls := []string{
		"del datasplit:r1:meta",
		"list datasplit:r1:train",
		"list datasplit:r1:val",
		"list datasplit:r1:test",
		"hset datasplit:r1:meta",
	}
	if diff := cmp.Diff(wantCalls, s.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"b.txt", "a.txt"}, s.lists["datasplit:r1:train"]); diff != "" {
		t.Errorf("train list mismatch (-want +got):\n%s", diff)
	}
	if got := s.lists["datasplit:r1:val"]; len(got) != 0 {
		t.Errorf("expected empty val list, got %v", got)
	}

	wantMeta := map[string]string{
		"seed":        "42",
		"policy":      "split-order",
		"ratio_train": "0.7",
		"ratio_val":   "0.15",
		"ratio_test":  "0.15",
		"files":       "3",
		"count_train": "2",
		"count_val":   "0",
		"count_test":  "1",
		"created_at":  "2026-01-02T03:04:05Z",
	}
	if diff := cmp.Diff(wantMeta, s.hashes["datasplit:r1:meta"]); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestPublish_ListErrorStopsBeforeMeta(t *testing.T) {
	s := newMockStore()
	s.listErr = errors.New("boom")
	r := New(s, "p:")

	err := r.Publish(context.Background(), "r1", sampleAssignment(), Meta{})
	if !errors.Is(err, s.listErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(s.calls) != 2 {
		t.Errorf("expected publishing to stop after first list failure, calls: %v", s.calls)
	}
}

func TestPublish_RepublishDropsStaleMetaBeforeLists(t *testing.T) {
	s := newMockStore()
	r := New(s, "p:")
	if err := r.Publish(context.Background(), "r1", sampleAssignment(), Meta{Seed: 1}); err != nil {
		t.Fatal(err)
	}

	s.listErr = errors.New("connection reset")
	if err := r.Publish(context.Background(), "r1", sampleAssignment(), Meta{Seed: 2}); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.hashes["p:r1:meta"]; ok {
		t.Error("meta of the previous publish must not survive a failed republish")
	}
}

func TestPublish_DelErrorStops(t *testing.T) {
	s := newMockStore()
	s.delErr = errors.New("readonly")

	err := New(s, "p:").Publish(context.Background(), "r1", sampleAssignment(), Meta{})
	if !errors.Is(err, s.delErr) {
		t.Fatalf("expected wrapped del error, got %v", err)
	}
	if len(s.calls) != 1 {
		t.Errorf("lists must not be touched after del failure, calls: %v", s.calls)
	}
}

func TestPublish_MetaError(t *testing.T) {
	s := newMockStore()
	s.hsetErr = errors.New("readonly")
	r := New(s, "p:")

	err := r.Publish(context.Background(), "r1", sampleAssignment(), Meta{})
	if !errors.Is(err, s.hsetErr) {
		t.Fatalf("expected wrapped hset error, got %v", err)
	}
}

func TestPublish_RequiresRunID(t *testing.T) {
	s := newMockStore()
	if err := New(s, "p:").Publish(context.Background(), "", sampleAssignment(), Meta{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
	if len(s.calls) != 0 {
		t.Errorf("store must not be touched, calls: %v", s.calls)
	}
}

func TestKeys(t *testing.T) {
	r := New(newMockStore(), "ds:")
	if got := r.SplitKey("x", domsplit.Val); got != "ds:x:val" {
		t.Errorf("SplitKey = %q", got)
	}
	if got := r.MetaKey("x"); got != "ds:x:meta" {
		t.Errorf("MetaKey = %q", got)
	}
}
