package avatars

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seedAvatar(t *testing.T, s *Store, a Avatar) {
	t.Helper()
	if err := s.Create(context.Background(), a); err != nil {
		t.Fatalf("seed avatar %s: %v", a.ID, err)
	}
}

func TestCreateAndGet_DefaultsApplied(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "Avatars")
	s.nowFunc = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	seedAvatar(t, s, Avatar{ID: "av-1", RequestID: "req-1", FilterID: "braga_male_medieval"})

	got, err := s.Get(context.Background(), "av-1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got == nil {
		t.Fatal("expected avatar, got nil")
	}
	if got.Status != StatusPending {
		t.Fatalf("expected default status PENDING, got %q", got.Status)
	}
	if got.CreationDate != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected creation date %q", got.CreationDate)
	}
}

func TestGet_Missing(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "Avatars")

	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing avatar, got %+v", got)
	}
}

func TestBatchGet_PreservesOrderAndSkipsMissing(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "Avatars")

	seedAvatar(t, s, Avatar{ID: "av-a", RequestID: "r"})
	seedAvatar(t, s, Avatar{ID: "av-b", RequestID: "r"})
	seedAvatar(t, s, Avatar{ID: "av-c", RequestID: "r"})

	got, err := s.BatchGet(context.Background(), []string{"av-c", "missing", "av-a"})
	if err != nil {
		t.Fatalf("batch get error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 avatars, got %d", len(got))
	}
	if got[0].ID != "av-c" || got[1].ID != "av-a" {
		t.Fatalf("order not preserved: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestBatchGet_ChunksAtHundredKeys(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "Avatars")

	ids := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("av-%03d", i)
		ids = append(ids, id)
		seedAvatar(t, s, Avatar{ID: id, RequestID: "r"})
	}

	got, err := s.BatchGet(context.Background(), ids)
	if err != nil {
		t.Fatalf("batch get error: %v", err)
	}
	if len(got) != 150 {
		t.Fatalf("expected 150 avatars, got %d", len(got))
	}
	if mock.batchGetCalls != 2 {
		t.Fatalf("expected 2 batch calls for 150 keys, got %d", mock.batchGetCalls)
	}
}

func TestListByRequestID_QueryThenScanFallback(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "Avatars")

	seedAvatar(t, s, Avatar{ID: "av-1", RequestID: "req-9"})
	seedAvatar(t, s, Avatar{ID: "av-2", RequestID: "req-9"})
	seedAvatar(t, s, Avatar{ID: "av-3", RequestID: "other"})

	got, err := s.ListByRequestID(context.Background(), "req-9")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 avatars, got %d", len(got))
	}
	if mock.scanCalls != 0 {
		t.Fatalf("expected no scan while the index works, got %d", mock.scanCalls)
	}

	mock.failQuery = true
	got, err = s.ListByRequestID(context.Background(), "req-9")
	if err != nil {
		t.Fatalf("list with fallback error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 avatars from scan fallback, got %d", len(got))
	}
	if mock.scanCalls != 1 {
		t.Fatalf("expected scan fallback, got %d scan calls", mock.scanCalls)
	}
}

func TestAttachOutput_SetsURLAndReady(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "Avatars")

	seedAvatar(t, s, Avatar{ID: "av-1", RequestID: "r"})

	if err := s.AttachOutput(context.Background(), "av-1", "https://cdn/av-1.jpg"); err != nil {
		t.Fatalf("attach output error: %v", err)
	}

	got, err := s.Get(context.Background(), "av-1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.OutputURL != "https://cdn/av-1.jpg" {
		t.Fatalf("unexpected output url %q", got.OutputURL)
	}
	if got.Status != StatusReady {
		t.Fatalf("expected READY, got %q", got.Status)
	}
}
