package effect

import (
	"sync"
	"sync/atomic"

	"github.com/wavepath/dawcore/pkg/audio"
)

// Chain is an ordered sequence of effects. Structural operations (add,
// remove, insert, move) are serialised under an exclusive lock and each
// builds a brand new backing slice rather than mutating the one Process
// may be iterating, then atomically publishes it with a pointer store;
// Process and Reset load that pointer once and iterate the slice they got,
// never touching the lock. This is spec's own design note: the control
// side prepares the new graph, then swaps the pointer with an atomic
// store, the render worker never blocking on a structural change.
type Chain struct {
	mu      sync.Mutex // serialises structural ops against each other only
	effects atomic.Pointer[[]Effect]
}

// NewChain creates an empty effect chain.
func NewChain() *Chain {
	c := &Chain{}
	empty := []Effect{}
	c.effects.Store(&empty)
	return c
}

// snapshot returns the slice currently published for Process/Reset/At/Len
// to read; callers must not mutate it.
func (c *Chain) snapshot() []Effect {
	return *c.effects.Load()
}

// Add appends effect to the end of the chain.
func (c *Chain) Add(e Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	next := make([]Effect, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = e
	c.effects.Store(&next)
}

// Remove deletes the effect at index, shifting later effects down.
func (c *Chain) Remove(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	if index < 0 || index >= len(cur) {
		return
	}
	next := make([]Effect, 0, len(cur)-1)
	next = append(next, cur[:index]...)
	next = append(next, cur[index+1:]...)
	c.effects.Store(&next)
}

// Insert places effect at index, shifting later effects up.
func (c *Chain) Insert(index int, e Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	if index < 0 || index > len(cur) {
		index = len(cur)
	}
	next := make([]Effect, 0, len(cur)+1)
	next = append(next, cur[:index]...)
	next = append(next, e)
	next = append(next, cur[index:]...)
	c.effects.Store(&next)
}

// Move relocates the effect at from to index to.
func (c *Chain) Move(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	if from < 0 || from >= len(cur) || to < 0 || to >= len(cur) {
		return
	}
	e := cur[from]
	withoutFrom := make([]Effect, 0, len(cur)-1)
	withoutFrom = append(withoutFrom, cur[:from]...)
	withoutFrom = append(withoutFrom, cur[from+1:]...)
	next := make([]Effect, 0, len(cur))
	next = append(next, withoutFrom[:to]...)
	next = append(next, e)
	next = append(next, withoutFrom[to:]...)
	c.effects.Store(&next)
}

// Len returns the current effect count.
func (c *Chain) Len() int {
	return len(c.snapshot())
}

// At returns the effect at index, for structural inspection from the
// control side only.
func (c *Chain) At(index int) Effect {
	return c.snapshot()[index]
}

// Process loads the currently published effect sequence and runs every
// enabled effect, in order, over buf. No lock is held during DSP.
func (c *Chain) Process(buf *audio.Buffer, sampleRate float64) {
	for _, e := range c.snapshot() {
		if e.Enabled() {
			e.Process(buf, sampleRate)
		}
	}
}

// Reset resets every effect's persistent state.
func (c *Chain) Reset() {
	for _, e := range c.snapshot() {
		e.Reset()
	}
}
