package handles

import (
	"sync"
	"testing"
)

func TestRegisterLookupUnregister(t *testing.T) {
	type payload struct{ n int }
	before := Count()

	p := &payload{n: 42}
	id := Register(p)
	if id == 0 {
		t.Fatal("Register returned zero handle")
	}

	got, ok := Lookup(id).(*payload)
	if !ok || got != p {
		t.Fatalf("Lookup(%d) = %v, want %v", id, Lookup(id), p)
	}

	Unregister(id)
	if Lookup(id) != nil {
		t.Error("handle still resolvable after Unregister")
	}
	if Count() != before {
		t.Errorf("Count = %d, want %d", Count(), before)
	}
}

func TestUniqueHandles(t *testing.T) {
	a := Register("a")
	b := Register("b")
	defer Unregister(a)
	defer Unregister(b)

	if a == b {
		t.Error("two registrations returned the same handle")
	}
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := Register(n)
			if got := Lookup(id); got != n {
				t.Errorf("Lookup = %v, want %v", got, n)
			}
			Unregister(id)
		}(i)
	}
	wg.Wait()
}
