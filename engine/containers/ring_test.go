package containers

import (
	"errors"
	"testing"
)

func TestRingPushOverwritesOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", r.Len())
	}
	got := r.Values()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("values = %v, want %v", got, want)
		}
	}
}

func TestRingPopEmpty(t *testing.T) {
	r := NewRing[float32](2)
	if _, err := r.Pop(); !errors.Is(err, ErrRingEmpty) {
		t.Fatalf("expected ErrRingEmpty, got %v", err)
	}
	r.Push(1.5)
	v, err := r.Pop()
	if err != nil || v != 1.5 {
		t.Fatalf("pop = %v, %v", v, err)
	}
	if !r.IsEmpty() {
		t.Fatal("ring should be empty")
	}
}
