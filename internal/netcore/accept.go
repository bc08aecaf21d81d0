package netcore

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// acceptPollTimeoutMillis bounds how long run's wait-for-readability poll
// blocks before re-checking the shutdown flag. accept() itself is left
// genuinely blocking (the listening socket is never set non-blocking) so a
// connection is never missed between a poll and the accept call; the poll
// only stands in for the self-pipe/event-fd original_source/jMUD's
// NetworkEngineAccept.cpp never had, giving the worker a way to notice
// shutdown without an indefinite accept() hang.
const acceptPollTimeoutMillis = 1000

// AcceptWorker owns one listening socket and produces SocketRecords. One
// instance runs per (name, bind-address, port, family).
type AcceptWorker struct {
	name   string
	fd     int
	family Family
	engine *NetworkEngine
}

// newAcceptWorker runs setup_server_socket (create + reuse-address + linger
// + bind + listen). If setup fails the worker is not constructed.
func newAcceptWorker(e *NetworkEngine, addr ListenAddress, strictBind bool) (*AcceptWorker, error) {
	api := e.api

	if addr.Port == 0 {
		return nil, fmt.Errorf("listener %q: port 0 is not allowed", addr.Name)
	}

	fd := api.create(addr.Family)
	if fd < 0 {
		return nil, fmt.Errorf("create socket: family=%s", addr.Family)
	}
	if !api.setReuseAddress(fd) {
		api.close(fd)
		return nil, fmt.Errorf("set reuse-address: family=%s", addr.Family)
	}
	if !api.setLinger(fd) {
		api.close(fd)
		return nil, fmt.Errorf("set linger: family=%s", addr.Family)
	}
	if addr.Family == FamilyIPv6 {
		api.setIPv6Only(fd)
	}

	if !api.bind(fd, addr.Family, addr.Host, addr.Port) {
		if strictBind || addr.Host == "" {
			api.close(fd)
			return nil, fmt.Errorf("bind %s:%d (family=%s)", addr.Host, addr.Port, addr.Family)
		}
		// Strict bind disabled: retry bound to the unspecified address.
		e.log.Warn("bind failed, retrying on unspecified address",
			"listener", addr.Name, "host", addr.Host, "port", addr.Port)
		if !api.bind(fd, addr.Family, "", addr.Port) {
			api.close(fd)
			return nil, fmt.Errorf("bind %s:%d on unspecified address (family=%s)", addr.Host, addr.Port, addr.Family)
		}
	}
	if !api.listen(fd, unix.SOMAXCONN) {
		api.close(fd)
		return nil, fmt.Errorf("listen: family=%s", addr.Family)
	}

	if addr.Port < 1024 && addr.Port != 0 {
		e.log.Warn("binding to a reserved port", "listener", addr.Name, "port", addr.Port)
	}

	e.log.Info("accept worker listening", "listener", addr.Name,
		"host", addr.Host, "port", addr.Port, "family", addr.Family)
	return &AcceptWorker{name: addr.Name, fd: fd, family: addr.Family, engine: e}, nil
}

// run is the Accept worker's loop: wait for the listening socket to become
// readable (with a timeout, so the shutdown flag is re-checked regularly),
// then call the genuinely blocking accept. Because the listening socket is
// never made non-blocking, accept only ever runs once poll has already
// confirmed a connection is waiting, so it returns immediately rather than
// suspending for an unbounded time.
func (w *AcceptWorker) run() {
	e := w.engine
	e.log.Info("accept worker starting", "name", w.name)

	for !e.isShuttingDown() {
		ready, err := w.waitReadable()
		if err != nil {
			e.log.Error("accept worker terminating on fatal poll error", "name", w.name, "err", err)
			e.api.close(w.fd)
			return
		}
		if !ready {
			continue // poll timeout: re-check the shutdown flag
		}

		fd, _, err := unix.Accept(w.fd)
		if err != nil {
			switch classifyAcceptError(err) {
			case acceptErrTransient:
				continue
			case acceptErrFatal:
				e.log.Error("accept worker terminating on fatal error", "name", w.name, "err", err)
				e.api.close(w.fd)
				return
			default:
				e.log.Debug("accept() error, continuing", "name", w.name, "err", err)
				continue
			}
		}

		if e.GetNumConnections() >= int64(e.GetMaxConnectionsTotal()) {
			e.log.Info("max connection limit reached, dropping connection", "name", w.name)
			e.api.close(fd)
			continue
		}
		if e.pollingMode == PollSelect && fd >= fdSetSize {
			e.log.Info("fd exceeds FD_SETSIZE under select polling, dropping connection", "name", w.name, "fd", fd)
			e.api.close(fd)
			continue
		}

		e.api.setNonBlocking(fd)
		e.api.setLinger(fd)
		e.api.setKeepAlive(fd)
		e.api.setTimestamp(fd)

		e.log.Debug("socket accepted", "name", w.name, "fd", fd)
		e.AddNewConnection(fd, w.family)
	}

	e.log.Info("accept worker terminating", "name", w.name)
}

// waitReadable polls the listening socket for up to acceptPollTimeoutMillis,
// returning (true, nil) once a connection is waiting, (false, nil) on a
// plain timeout, and (false, err) only for an error serious enough to stop
// the worker (EINTR is retried, not treated as fatal).
func (w *AcceptWorker) waitReadable() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, acceptPollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return false, err
		}
		return n > 0, nil
	}
}

type acceptErrClass int

const (
	acceptErrTransientOrOther acceptErrClass = iota
	acceptErrTransient
	acceptErrFatal
)

// classifyAcceptError reproduces the exact errno switch from
// original_source/jMUD/src/server/network/NetworkEngineAccept.cpp.
func classifyAcceptError(err error) acceptErrClass {
	errno, ok := err.(unix.Errno)
	if !ok {
		return acceptErrTransientOrOther
	}
	switch errno {
	// EAGAIN and EWOULDBLOCK share the same value on Linux; only one may
	// appear in a switch case list.
	case unix.EAGAIN, unix.EINTR,
		unix.EMFILE, unix.ENFILE,
		unix.ENETDOWN, unix.EPROTO, unix.ENOPROTOOPT, unix.EHOSTDOWN,
		unix.ENONET, unix.EHOSTUNREACH, unix.EOPNOTSUPP, unix.ENETUNREACH:
		return acceptErrTransient
	case unix.EBADF, unix.EFAULT, unix.EINVAL, unix.ENOTSOCK:
		return acceptErrFatal
	default:
		return acceptErrTransientOrOther
	}
}
