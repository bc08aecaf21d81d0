package netcore

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jandersson-mud/jmudgo/internal/constants"
)

// ListenAddress describes one Accept worker's binding: a name (for logging),
// an address family, and an optional host/port. An empty Host means "bind
// to the unspecified address for this family".
type ListenAddress struct {
	Name   string
	Family Family
	Host   string
	Port   int
}

// Config configures NetworkEngine.Initialize.
type Config struct {
	Listeners   []ListenAddress
	PollingMode PollingMode
	StrictBind  bool
	Logger      *slog.Logger
}

// NetworkEngine is the explicitly-constructed facade that owns the listening
// sockets, the worker pools, the cross-thread queues, and the process-wide
// counters. Unlike the C original this is not a singleton: callers construct
// one value and pass it to every worker and to the GameEngine.
type NetworkEngine struct {
	log *slog.Logger
	api *sockAPI

	pollingMode         PollingMode
	maxConnectionsTotal int

	InboundQueue      *Stack[*NetworkMessage]
	outboundQueue     *Stack[*NetworkMessage]
	newSocketQueue    *Stack[*SocketRecord]
	removeSocketQueue *Stack[*SocketRecord]

	idAlloc *connIDAllocator

	bufPool *BytePool

	usersTotal   atomic.Int64
	usersCurrent atomic.Int64
	usersPeak    atomic.Int64
	rxBytes      atomic.Int64
	txBytes      atomic.Int64

	shuttingDown atomic.Bool
	terminating  atomic.Bool

	workersMu      sync.Mutex
	acceptWorkers  []*AcceptWorker
	receiveWorkers []*ReceiveWorker
	sendWorkers    []*SendWorker

	recordsMu       sync.Mutex
	recordsByConnID map[ConnectionID]*SocketRecord

	wg sync.WaitGroup
}

// New constructs an empty NetworkEngine. Call Initialize to spawn workers.
func New(log *slog.Logger) *NetworkEngine {
	if log == nil {
		log = slog.Default()
	}
	return &NetworkEngine{
		log:               log,
		api:               newSockAPI(log),
		InboundQueue:      NewStack[*NetworkMessage](),
		outboundQueue:     NewStack[*NetworkMessage](),
		newSocketQueue:    NewStack[*SocketRecord](),
		removeSocketQueue: NewStack[*SocketRecord](),
		idAlloc:           newConnIDAllocator(),
		bufPool:           NewBytePool(SizeMaxBufferSize),
		recordsByConnID:   make(map[ConnectionID]*SocketRecord),
	}
}

// lookupRecordByConnID finds a still-live SocketRecord by ConnectionID, used
// by the Send worker to resolve an outbound message's destination.
func (e *NetworkEngine) lookupRecordByConnID(cid ConnectionID) *SocketRecord {
	e.recordsMu.Lock()
	defer e.recordsMu.Unlock()
	return e.recordsByConnID[cid]
}

// forgetRecord removes a SocketRecord from the lookup table once its socket
// has been closed by the Send/cleanup worker.
func (e *NetworkEngine) forgetRecord(cid ConnectionID) {
	e.recordsMu.Lock()
	delete(e.recordsByConnID, cid)
	e.recordsMu.Unlock()
}

// Initialize derives MaxConnectionsTotal, binds and spawns one Accept
// worker per listener, spawns the first Receive worker and the Send/cleanup
// worker. Failure to spawn any required worker aborts initialization and
// calls Close.
func (e *NetworkEngine) Initialize(cfg Config) error {
	e.pollingMode = cfg.PollingMode
	e.maxConnectionsTotal = deriveMaxConnectionsTotal(cfg.PollingMode)
	e.log.Info("network engine initializing",
		"polling_mode", cfg.PollingMode, "max_connections", e.maxConnectionsTotal)

	for _, l := range cfg.Listeners {
		w, err := newAcceptWorker(e, l, cfg.StrictBind)
		if err != nil {
			e.log.Error("accept worker setup failed", "listener", l.Name, "err", err)
			e.Close()
			return fmt.Errorf("netcore: initializing listener %q: %w", l.Name, err)
		}
		e.workersMu.Lock()
		e.acceptWorkers = append(e.acceptWorkers, w)
		e.workersMu.Unlock()
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			w.run()
		}()
	}
	if len(e.acceptWorkers) == 0 {
		e.Close()
		return fmt.Errorf("netcore: no accept workers could be started")
	}

	if err := e.spawnReceiveWorker(); err != nil {
		e.Close()
		return fmt.Errorf("netcore: starting receive worker: %w", err)
	}

	sw := newSendWorker(e)
	e.workersMu.Lock()
	e.sendWorkers = append(e.sendWorkers, sw)
	e.workersMu.Unlock()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		sw.run()
	}()

	e.log.Info("network engine initialized",
		"accept_workers", len(e.acceptWorkers), "receive_workers", len(e.receiveWorkers))
	return nil
}

// spawnReceiveWorker is called at Initialize time and again by a Receive
// worker's auto-scale check.
func (e *NetworkEngine) spawnReceiveWorker() error {
	rw := newReceiveWorker(e, e.pollingMode)
	if err := rw.setup(); err != nil {
		return err
	}
	e.workersMu.Lock()
	e.receiveWorkers = append(e.receiveWorkers, rw)
	n := len(e.receiveWorkers)
	e.workersMu.Unlock()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		rw.run()
	}()
	e.log.Info("receive worker spawned", "total_receive_workers", n)
	return nil
}

func (e *NetworkEngine) receiveWorkerCount() int {
	e.workersMu.Lock()
	defer e.workersMu.Unlock()
	return len(e.receiveWorkers)
}

// Close performs a two-phase shutdown: shutdown=true stops Accept/Receive
// workers, a grace window lets them observe it and push any late
// disconnections, then terminate=true stops the Send/cleanup workers once
// queues are drained.
func (e *NetworkEngine) Close() {
	if e.shuttingDown.Swap(true) {
		return // already shutting down
	}
	e.log.Info("network engine shutting down (phase 1)")
	time.Sleep(2 * time.Second)

	e.terminating.Store(true)
	e.log.Info("network engine terminating (phase 2)")
	time.Sleep(4 * time.Second)

	e.wg.Wait()
	e.log.Info("network engine closed",
		"users_total", e.usersTotal.Load(),
		"users_current", e.usersCurrent.Load(),
		"rx_bytes", e.rxBytes.Load(),
		"tx_bytes", e.txBytes.Load())
}

func (e *NetworkEngine) isShuttingDown() bool { return e.shuttingDown.Load() }
func (e *NetworkEngine) isTerminating() bool  { return e.terminating.Load() }

// AddNewConnection admits a freshly accepted, already-configured socket
// handle: allocates a ConnectionID and updates the user counters under the
// new-socket queue's lock, then builds a SocketRecord, emits a
// NewConnection inbound message, and only after that pushes the record onto
// the new-socket queue, so no event for the connection can precede its
// NewConnection. At most one queue lock is held at any moment. Returns nil
// and closes the handle itself if admission fails (overflow); the caller
// must not touch the handle again either way.
func (e *NetworkEngine) AddNewConnection(fd int, fam Family) *SocketRecord {
	e.newSocketQueue.Lock()
	cid, err := e.idAlloc.allocate()
	if err != nil {
		e.newSocketQueue.Unlock()
		e.log.Error("connection id space exhausted, dropping connection", "fd", fd)
		e.api.close(fd)
		return nil
	}
	total := e.usersTotal.Add(1)
	current := e.usersCurrent.Add(1)
	for {
		peak := e.usersPeak.Load()
		if current <= peak || e.usersPeak.CompareAndSwap(peak, current) {
			break
		}
	}
	e.newSocketQueue.Unlock()

	rec := NewSocketRecord(fd, cid, fam)
	e.recordsMu.Lock()
	e.recordsByConnID[cid] = rec
	e.recordsMu.Unlock()
	e.InboundQueue.Push(NewEmptyMessage(NewConnection, cid, time.Now()))
	e.newSocketQueue.Push(rec)

	e.log.Debug("connection admitted", "cid", cid, "fd", fd, "family", fam,
		"users_total", total, "users_current", current)
	return rec
}

// DisconnectConnection is called by a Receive worker after it has already
// unregistered the record from its own readiness structure. It emits the
// Disconnection inbound message and hands the record to the remove-socket
// queue: the Send/cleanup worker, not this call, owns closing the handle
// and is authoritative for when it actually goes away.
func (e *NetworkEngine) DisconnectConnection(rec *SocketRecord) {
	e.InboundQueue.Push(NewEmptyMessage(Disconnection, rec.ConnID, time.Now()))
	e.removeSocketQueue.Push(rec)
	e.usersCurrent.Add(-1)
	e.log.Debug("connection disconnected", "cid", rec.ConnID, "fd", rec.FD)
}

// QueueSendMessage enqueues an outbound message for the Send worker to
// transmit. m.Kind must be DataOutgoing.
func (e *NetworkEngine) QueueSendMessage(m *NetworkMessage) {
	if m.Kind != DataOutgoing {
		e.log.Error("queue-send-message: wrong message kind", "kind", m.Kind)
		return
	}
	e.outboundQueue.Push(m)
}

func (e *NetworkEngine) addRX(n int) { e.rxBytes.Add(int64(n)) }
func (e *NetworkEngine) addTX(n int) { e.txBytes.Add(int64(n)) }

// ReleaseBuffer returns a DataIncoming payload to the buffer pool once its
// consumer is done reading it. Callers must not touch b afterward.
func (e *NetworkEngine) ReleaseBuffer(b []byte) { e.bufPool.Put(b) }

// GetNumConnections returns the current live connection count.
func (e *NetworkEngine) GetNumConnections() int64 { return e.usersCurrent.Load() }

// GetPeakConnections returns the highest concurrent connection count seen.
func (e *NetworkEngine) GetPeakConnections() int64 { return e.usersPeak.Load() }

// GetTotalConnections returns the lifetime count of admitted connections.
func (e *NetworkEngine) GetTotalConnections() int64 { return e.usersTotal.Load() }

// GetMaxConnectionsTotal returns the admission soft cap derived at Initialize.
func (e *NetworkEngine) GetMaxConnectionsTotal() int { return e.maxConnectionsTotal }

// GetBytesRecv returns cumulative bytes received across all sockets.
func (e *NetworkEngine) GetBytesRecv() int64 { return e.rxBytes.Load() }

// GetBytesSend returns cumulative bytes sent across all sockets.
func (e *NetworkEngine) GetBytesSend() int64 { return e.txBytes.Load() }

// SizeMaxBufferSize is the 32 KiB cap on a DataIncoming message's payload,
// re-exported from constants.MaxPayloadSize so the rest of netcore can keep
// its original names.
const SizeMaxBufferSize = constants.MaxPayloadSize

// SizeRecvTempBuffer is the 64 KiB scratch buffer a Receive worker reads
// into before copying (and truncating) into a pooled message payload.
const SizeRecvTempBuffer = constants.RecvScratchSize
