package netcore

import (
	"time"

	"golang.org/x/sys/unix"
)

// ReceiveWorker owns up to MaxSocketsPerThread SocketRecords and multiplexes
// reads across them using either epoll or select readiness polling.
// Auto-scaling spawns sibling workers once aggregate load crosses
// SocketsPerThreadHigh.
type ReceiveWorker struct {
	engine *NetworkEngine
	mode   PollingMode

	sockets map[int]*SocketRecord

	epfd int // epoll mode only
	nfds int // select mode only: highest fd + 1

	recvBuf []byte
}

func newReceiveWorker(e *NetworkEngine, mode PollingMode) *ReceiveWorker {
	return &ReceiveWorker{
		engine:  e,
		mode:    mode,
		sockets: make(map[int]*SocketRecord, MaxSocketsPerThread),
		recvBuf: make([]byte, SizeRecvTempBuffer),
	}
}

// setup creates the readiness primitive. Called once, before run.
func (w *ReceiveWorker) setup() error {
	if w.mode == PollEpoll {
		epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
		if err != nil {
			return err
		}
		w.epfd = epfd
	}
	return nil
}

// run is the Receive worker's loop.
func (w *ReceiveWorker) run() {
	e := w.engine
	e.log.Info("receive worker starting", "mode", w.mode)

	for !e.isShuttingDown() {
		w.fetchNewConnections()

		if len(w.sockets) == 0 {
			time.Sleep(time.Second)
			continue
		}

		ready, errFatal := w.pollReady()
		if errFatal {
			e.log.Error("receive worker terminating on fatal poll error")
			break
		}
		for _, rec := range ready {
			w.handleReady(rec)
		}
	}

	w.shutdownAllOwned()
	e.log.Info("receive worker terminating")
}

// fetchNewConnections drains the new-socket queue into this worker while it
// has spare capacity, registering each record with the readiness structure.
// After draining, it checks the auto-scale threshold.
func (w *ReceiveWorker) fetchNewConnections() {
	e := w.engine
	if e.newSocketQueue.Empty() || len(w.sockets) >= MaxSocketsPerThread {
		return
	}

	e.newSocketQueue.Lock()
	var drained []*SocketRecord
	for !e.newSocketQueue.EmptyLocked() && len(w.sockets)+len(drained) < MaxSocketsPerThread {
		drained = append(drained, e.newSocketQueue.PopLocked())
	}
	e.newSocketQueue.Unlock()

	for _, rec := range drained {
		if err := w.register(rec); err != nil {
			e.log.Error("failed to register socket with readiness structure", "fd", rec.FD, "err", err)
			e.api.close(rec.FD)
			continue
		}
		w.sockets[rec.FD] = rec
	}

	if len(drained) == 0 {
		return
	}

	if int(e.GetNumConnections()) > e.receiveWorkerCount()*SocketsPerThreadHigh {
		if err := e.spawnReceiveWorker(); err != nil {
			e.log.Error("auto-scale: failed to spawn sibling receive worker", "err", err)
		}
	}
}

func (w *ReceiveWorker) register(rec *SocketRecord) error {
	if w.mode == PollEpoll {
		ev := &unix.EpollEvent{
			Events: unix.EPOLLIN | unix.EPOLLPRI | unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLRDHUP,
			Fd:     int32(rec.FD),
		}
		return unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, rec.FD, ev)
	}
	if rec.FD+1 > w.nfds {
		w.nfds = rec.FD + 1
	}
	return nil
}

func (w *ReceiveWorker) unregister(fd int) {
	if w.mode == PollEpoll {
		_ = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	delete(w.sockets, fd)
}

type readyKind int

const (
	readyForRead readyKind = iota
	readyForDisconnect
)

type readyEvent struct {
	rec  *SocketRecord
	kind readyKind
}

// pollReady waits for readiness with a 500ms timeout and returns the ready
// sockets annotated with why. The bool result is true only on an
// unrecoverable error that should terminate the worker.
func (w *ReceiveWorker) pollReady() ([]readyEvent, bool) {
	if w.mode == PollEpoll {
		return w.pollEpoll()
	}
	return w.pollSelect()
}

func (w *ReceiveWorker) pollEpoll() ([]readyEvent, bool) {
	var buf [MaxSocketsPerThread]unix.EpollEvent
	n, err := unix.EpollWait(w.epfd, buf[:], 500)
	if err != nil {
		if err == unix.EINTR {
			return nil, false
		}
		return nil, true
	}
	events := make([]readyEvent, 0, n)
	for i := 0; i < n; i++ {
		fd := int(buf[i].Fd)
		rec, ok := w.sockets[fd]
		if !ok {
			continue
		}
		if buf[i].Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			events = append(events, readyEvent{rec: rec, kind: readyForDisconnect})
			continue
		}
		if buf[i].Events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
			events = append(events, readyEvent{rec: rec, kind: readyForRead})
		}
	}
	return events, false
}

func (w *ReceiveWorker) pollSelect() ([]readyEvent, bool) {
	var set unix.FdSet
	for fd := range w.sockets {
		fdSetAdd(&set, fd)
	}
	tv := unix.NsecToTimeval(500 * int64(time.Millisecond))
	n, err := unix.Select(w.nfds, &set, nil, nil, &tv)
	if err != nil {
		if err == unix.EBADF {
			w.purgeSelectSet()
			return nil, false
		}
		if err == unix.EINTR {
			return nil, false
		}
		return nil, true
	}
	if n == 0 {
		return nil, false
	}
	events := make([]readyEvent, 0, n)
	for fd, rec := range w.sockets {
		if fdSetIsSet(&set, fd) {
			events = append(events, readyEvent{rec: rec, kind: readyForRead})
		}
	}
	return events, false
}

// purgeSelectSet drops any socket whose fd is no longer valid, rebuilding
// the select set from the survivors. This is how a select-mode worker
// recovers from EBADF, which carries no information about which fd was bad.
func (w *ReceiveWorker) purgeSelectSet() {
	for fd, rec := range w.sockets {
		if !fdIsValid(fd) {
			w.engine.log.Debug("purging bad fd from select set", "fd", fd)
			delete(w.sockets, fd)
			w.engine.DisconnectConnection(rec)
		}
	}
	w.nfds = 0
	for fd := range w.sockets {
		if fd+1 > w.nfds {
			w.nfds = fd + 1
		}
	}
}

func fdIsValid(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func (w *ReceiveWorker) handleReady(ev readyEvent) {
	if ev.kind == readyForDisconnect {
		w.disconnect(ev.rec)
		return
	}
	w.readSocket(ev.rec)
}

func (w *ReceiveWorker) readSocket(rec *SocketRecord) {
	e := w.engine
	n := e.api.recv(rec.FD, w.recvBuf)
	switch {
	case n > 0:
		payloadLen := n
		if payloadLen > SizeMaxBufferSize {
			payloadLen = SizeMaxBufferSize
		}
		payload := e.bufPool.Get(payloadLen)
		copy(payload, w.recvBuf[:payloadLen])
		rec.AddRX(n)
		e.addRX(n)
		e.InboundQueue.Push(NewPayloadMessage(DataIncoming, rec.ConnID, time.Now(), payload))
	case n == 0:
		// Transient per the socket wrapper convention: leave registered.
	default:
		w.disconnect(rec)
	}
}

func (w *ReceiveWorker) disconnect(rec *SocketRecord) {
	w.unregister(rec.FD)
	w.engine.DisconnectConnection(rec)
}

// shutdownAllOwned disconnects every socket still owned by this worker when
// the engine is shutting down.
func (w *ReceiveWorker) shutdownAllOwned() {
	for fd, rec := range w.sockets {
		w.unregister(fd)
		w.engine.DisconnectConnection(rec)
	}
}

func fdSetAdd(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdSetIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
