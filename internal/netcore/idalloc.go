package netcore

import "errors"

// ConnectionID is a 32-bit, process-unique, monotonically allocated
// identifier for an accepted TCP connection. Zero is reserved as invalid.
type ConnectionID uint32

// InvalidConnectionID is the reserved zero value.
const InvalidConnectionID ConnectionID = 0

// ErrConnectionIDSpaceExhausted is returned by the allocator once every
// value up to 2^32-1 has been handed out. The caller must treat this as a
// fatal admission error for the connection being admitted: close the
// socket, create no further state.
var ErrConnectionIDSpaceExhausted = errors.New("netcore: connection id space exhausted")

// connIDAllocator is a process-wide monotone counter starting at 1. It is
// not safe for unsynchronized concurrent use by design: callers must hold
// the new-socket queue lock while calling allocate, which also serializes
// the counter updates done alongside.
type connIDAllocator struct {
	next      ConnectionID
	exhausted bool
}

func newConnIDAllocator() *connIDAllocator {
	return &connIDAllocator{next: 1}
}

// allocate returns the current counter value and post-increments it. The
// value 2^32-1 is still a valid, allocatable id; only the admission attempt
// that would follow it (which has no id left to hand out) fails with
// ErrConnectionIDSpaceExhausted, and every call after that fails the same
// way: that connection's socket is closed and no event is emitted for it.
func (a *connIDAllocator) allocate() (ConnectionID, error) {
	if a.exhausted {
		return InvalidConnectionID, ErrConnectionIDSpaceExhausted
	}
	id := a.next
	if id == ^ConnectionID(0) {
		a.exhausted = true
		return id, nil
	}
	a.next = id + 1
	return id, nil
}
