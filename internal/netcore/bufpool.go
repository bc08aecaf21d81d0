package netcore

import "sync"

// BytePool recycles the []byte payload buffers a Receive worker hands off on
// the inbound queue, so a busy listener isn't allocating and discarding a
// fresh slice for every DataIncoming message. The game engine's tick loop
// returns each payload with Put once it has finished reading it.
type BytePool struct {
	pool sync.Pool
}

// NewBytePool creates a buffer pool with the given default capacity for
// freshly allocated slices.
func NewBytePool(defaultCap int) *BytePool {
	p := &BytePool{}
	p.pool.New = func() any {
		return make([]byte, 0, defaultCap)
	}
	return p
}

// Get returns a slice of length size, preferably recycled from the pool.
// Oversized requests bypass the pool entirely rather than growing a pooled
// slice, since a payload that large is unlikely to be reused at that size.
func (p *BytePool) Get(size int) []byte {
	b := p.pool.Get().([]byte)
	if cap(b) < size {
		p.pool.Put(b)
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put returns a buffer previously obtained from Get back to the pool once
// the caller is done reading it. The caller must not touch b afterward.
func (p *BytePool) Put(b []byte) {
	if b == nil {
		return
	}
	p.pool.Put(b[:0])
}
