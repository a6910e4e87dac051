package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStoreWaitBlocksUntilReplace(t *testing.T) {
	s := NewStore()
	if s.HasData() {
		t.Fatal("new store should have no data")
	}
	if s.Leaves() != nil {
		t.Error("Leaves() before first snapshot should be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}

	done := make(chan []Leaf, 1)
	go func() {
		leaves, _, err := s.Wait(context.Background())
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
		done <- leaves
	}()

	s.Replace(buildTree())

	select {
	case leaves := <-done:
		if len(leaves) != 4 {
			t.Errorf("Wait() returned %d leaves, want 4", len(leaves))
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after Replace")
	}
	if !s.HasData() {
		t.Error("HasData() = false after Replace")
	}
}

func TestStoreMerge(t *testing.T) {
	s := NewStore()
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return clock }

	if _, err := s.Merge(map[string]string{"A": "1"}, numberDecoder{}); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Merge() before Replace error = %v, want ErrNoSnapshot", err)
	}

	s.Replace(buildTree())
	clock = clock.Add(time.Minute)

	res, err := s.Merge(map[string]string{"A": "11", "Z": "1"}, numberDecoder{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 {
		t.Errorf("Updated = %d, want 1", res.Updated)
	}
	if got := *s.Leaves()[0].Numeric; got != 11 {
		t.Errorf("flow = %v, want 11", got)
	}
	if !s.LastUpdated().Equal(clock) {
		t.Errorf("LastUpdated() = %v, want %v", s.LastUpdated(), clock)
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	var calls []int
	s.Subscribe(func(leaves []Leaf, _ time.Time) {
		calls = append(calls, len(leaves))
	})

	s.Replace(buildTree())
	if _, err := s.Merge(map[string]string{"B": "21"}, numberDecoder{}); err != nil {
		t.Fatal(err)
	}

	if len(calls) != 2 || calls[0] != 4 || calls[1] != 4 {
		t.Errorf("listener calls = %v, want [4 4]", calls)
	}
}
