package search

import (
	"testing"
	"time"

	"github.com/mesh-intelligence/curio/pkg/types"
)

func resultOf(n int) []types.Item {
	items := make([]types.Item, n)
	return items
}

func TestDispatch_SmallDatasetRunsInline(t *testing.T) {
	d, err := New(1, WithThreshold(100))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	var delivered []types.Item
	d.Dispatch(50, func() []types.Item { return resultOf(3) }, func(items []types.Item) {
		delivered = items
	})

	// Inline path delivers before Dispatch returns.
	if len(delivered) != 3 {
		t.Errorf("inline dispatch delivered %d items, want 3", len(delivered))
	}
}

func TestDispatchWait_LargeDataset(t *testing.T) {
	d, err := New(2, WithThreshold(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	items := d.DispatchWait(100, func() []types.Item { return resultOf(7) })
	if len(items) != 7 {
		t.Errorf("got %d items, want 7", len(items))
	}
}

func TestDispatch_SupersededResultDropped(t *testing.T) {
	d, err := New(1, WithThreshold(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	release := make(chan struct{})
	firstDelivered := make(chan struct{}, 1)
	secondDelivered := make(chan int, 1)

	// First request blocks inside compute until released, so the second
	// request supersedes it before it can deliver.
	d.Dispatch(100, func() []types.Item {
		<-release
		return resultOf(1)
	}, func(items []types.Item) {
		firstDelivered <- struct{}{}
	})

	// The single worker is occupied, so the second Dispatch is issued
	// from its own goroutine; it registers the newer id before its
	// submit blocks.
	go d.Dispatch(100, func() []types.Item { return resultOf(2) }, func(items []types.Item) {
		secondDelivered <- len(items)
	})

	// Let the second request register, then release the first.
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case n := <-secondDelivered:
		if n != 2 {
			t.Errorf("latest result has %d items, want 2", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("latest request must be delivered")
	}
	select {
	case <-firstDelivered:
		t.Error("superseded request must never deliver")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatchWait_ConcurrentCallersEachGetOwnResult(t *testing.T) {
	d, err := New(2, WithThreshold(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	got := make(chan int, 2)
	for _, n := range []int{3, 5} {
		n := n
		go func() {
			items := d.DispatchWait(100, func() []types.Item { return resultOf(n) })
			got <- len(items)
		}()
	}

	seen := map[int]bool{}
	for i := 0; i < 2; i++ {
		select {
		case n := <-got:
			seen[n] = true
		case <-time.After(2 * time.Second):
			t.Fatal("concurrent DispatchWait did not return")
		}
	}
	if !seen[3] || !seen[5] {
		t.Errorf("results = %v, each caller must get its own result", seen)
	}
}

func TestDispatchWait_UnaffectedByNewerDispatch(t *testing.T) {
	d, err := New(2, WithThreshold(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	got := make(chan int, 1)

	go func() {
		items := d.DispatchWait(100, func() []types.Item {
			close(started)
			<-release
			return resultOf(4)
		})
		got <- len(items)
	}()

	<-started
	// A newer shared-consumer request arrives while the wait is in
	// flight; the waiting caller still gets its full result.
	d.Dispatch(5, func() []types.Item { return resultOf(0) }, func([]types.Item) {})
	close(release)

	select {
	case n := <-got:
		if n != 4 {
			t.Errorf("got %d items, want 4", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DispatchWait did not return")
	}
}

func TestClose_Idempotent(t *testing.T) {
	d, err := New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Close()
	d.Close()
}
