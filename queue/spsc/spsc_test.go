package spsc

import (
	"sync"
	"testing"
)

func TestEnqueueDequeueOrder(t *testing.T) {
	q := New[int](4)

	for _, v := range []int{10, 11, 12} {
		if !q.Enqueue(v) {
			t.Fatalf("Enqueue(%d) failed unexpectedly", v)
		}
	}
	if q.Enqueue(13) {
		t.Fatal("Enqueue on full queue should fail")
	}
	if !q.Full() {
		t.Fatal("Full() should report true")
	}

	for _, want := range []int{10, 11, 12} {
		got, ok := q.Dequeue()
		if !ok || got != want {
			t.Fatalf("Dequeue = %d,%v want %d,true", got, ok, want)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue on empty queue should fail")
	}
	if !q.Empty() {
		t.Fatal("Empty() should report true")
	}
	if q.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", q.Size())
	}
}

func TestCapIsSizeMinusOne(t *testing.T) {
	q := New[int](8)
	if q.Cap() != 7 {
		t.Fatalf("Cap() = %d, want 7", q.Cap())
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	q := New[int](4)
	q.Enqueue(42)
	v, ok := q.Peek()
	if !ok || v != 42 {
		t.Fatalf("Peek = %d,%v want 42,true", v, ok)
	}
	if q.Size() != 1 {
		t.Fatalf("Size after Peek = %d, want 1", q.Size())
	}
}

func TestConcurrentProducerConsumerPreservesOrder(t *testing.T) {
	const n = 100_000
	q := New[int](256)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !q.Enqueue(i) {
			}
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(got) < n {
			if v, ok := q.Dequeue(); ok {
				got = append(got, v)
			}
		}
	}()

	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("out-of-order delivery at position %d: got %d, want %d", i, v, i)
		}
	}
}
