package netcore

import "sync/atomic"

// SocketRecord owns one OS socket handle plus the connection's identity and
// cumulative byte counters. Exactly one worker holds mutating
// access to a given record at any instant: it is created by an Accept
// worker, handed to a Receive worker via the new-socket queue, and finally
// destroyed by the Send/cleanup worker (or, on an admission-time drop,
// closed immediately with no record ever created).
type SocketRecord struct {
	FD     int
	ConnID ConnectionID
	Family Family

	rxBytes atomic.Int64
	txBytes atomic.Int64
}

// NewSocketRecord builds a record for an already-accepted, already-configured
// socket handle.
func NewSocketRecord(fd int, cid ConnectionID, fam Family) *SocketRecord {
	return &SocketRecord{FD: fd, ConnID: cid, Family: fam}
}

// AddRX atomically accumulates bytes received on this socket.
func (r *SocketRecord) AddRX(n int) { r.rxBytes.Add(int64(n)) }

// AddTX atomically accumulates bytes sent on this socket.
func (r *SocketRecord) AddTX(n int) { r.txBytes.Add(int64(n)) }

// RXBytes returns the cumulative received byte count.
func (r *SocketRecord) RXBytes() int64 { return r.rxBytes.Load() }

// TXBytes returns the cumulative sent byte count.
func (r *SocketRecord) TXBytes() int64 { return r.txBytes.Load() }
