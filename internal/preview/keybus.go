// Package preview implements the attachment preview overlay: a cyclic image
// carousel driven by keyboard bindings that exist only while it is open.
package preview

import (
	"fmt"
	"sync"
)

// Keypress is a single key event, e.g. "left", "h" or "esc".
type Keypress string

func (k Keypress) String() string { return string(k) }

// Handler consumes a key and reports whether it handled it.
type Handler func(k fmt.Stringer) bool

// KeyBus fans key events out to the currently registered handlers. It stands
// in for the process-wide keyboard listener of a UI host.
type KeyBus struct {
	mu       sync.Mutex
	next     int
	handlers map[int]Handler
	order    []int
}

// NewKeyBus returns an empty bus.
func NewKeyBus() *KeyBus {
	return &KeyBus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns the function that removes it again.
// Calling the returned function more than once is harmless.
func (b *KeyBus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Dispatch delivers k to the handlers, newest first, until one handles it.
func (b *KeyBus) Dispatch(k fmt.Stringer) bool {
	b.mu.Lock()
	hs := make([]Handler, 0, len(b.order))
	for i := len(b.order) - 1; i >= 0; i-- {
		hs = append(hs, b.handlers[b.order[i]])
	}
	b.mu.Unlock()

	for _, h := range hs {
		if h(k) {
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (b *KeyBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
