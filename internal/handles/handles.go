// Package handles maps Go objects to integer handles that can be stored in
// C memory. Go pointers must not be written into memory the C side owns, so
// callback opaque pointers carry a handle instead and the callback looks the
// object back up on entry.
package handles

import (
	"sync"
)

var (
	mu      sync.RWMutex
	handles = make(map[uintptr]any)
	nextID  uintptr = 1
)

// Register stores v and returns a handle that is safe to hand to C code as
// an opaque pointer. The object stays reachable until Unregister.
func Register(v any) uintptr {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	handles[id] = v
	return id
}

// Lookup returns the object registered under id, or nil.
func Lookup(id uintptr) any {
	mu.RLock()
	defer mu.RUnlock()
	return handles[id]
}

// Unregister drops the handle so the object can be collected.
func Unregister(id uintptr) {
	mu.Lock()
	defer mu.Unlock()
	delete(handles, id)
}

// Count reports the number of live handles. Tests use it to catch leaks.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(handles)
}
