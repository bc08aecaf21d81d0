package netcore

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Family selects the address family a listening or connected socket uses.
type Family int

const (
	FamilyIPv4 Family = unix.AF_INET
	FamilyIPv6 Family = unix.AF_INET6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// sockAPI is the thin, namespaced wrapper over the host's raw socket API.
// Operations log their failures; create, bind, listen and close also log
// success at debug level. send/recv distinguish
// transient (0) from fatal (-1) results by sign, and
// additionally fold a zero-byte recv (orderly peer close) into the fatal
// case, matching the C original's convention exactly
// (original_source/jMUD/src/server/network/NetworkEngineAccept.cpp and
// NetworkEngineRecv.cpp).
type sockAPI struct {
	log *slog.Logger
}

func newSockAPI(log *slog.Logger) *sockAPI {
	return &sockAPI{log: log}
}

// create allocates a non-blocking-capable stream socket for the given
// family. Returns the raw fd or -1 on failure.
func (s *sockAPI) create(fam Family) int {
	fd, err := unix.Socket(int(fam), unix.SOCK_STREAM, 0)
	if err != nil {
		s.log.Error("socket create failed", "family", fam, "err", err)
		return -1
	}
	s.log.Debug("socket created", "fd", fd, "family", fam)
	return fd
}

// bind binds fd to host:port for the given family. If host is empty, binds
// to the unspecified (any) address. Returns false on failure.
func (s *sockAPI) bind(fd int, fam Family, host string, port int) bool {
	switch fam {
	case FamilyIPv4:
		var addr [4]byte
		if host != "" {
			ip, err := parseIPv4(host)
			if err != nil {
				s.log.Error("bind: invalid ipv4 address", "host", host, "err", err)
				return false
			}
			addr = ip
		}
		sa := &unix.SockaddrInet4{Port: port, Addr: addr}
		if err := unix.Bind(fd, sa); err != nil {
			s.log.Error("bind failed", "fd", fd, "host", host, "port", port, "err", err)
			return false
		}
	case FamilyIPv6:
		var addr [16]byte
		if host != "" {
			ip, err := parseIPv6(host)
			if err != nil {
				s.log.Error("bind: invalid ipv6 address", "host", host, "err", err)
				return false
			}
			addr = ip
		}
		sa := &unix.SockaddrInet6{Port: port, Addr: addr}
		if err := unix.Bind(fd, sa); err != nil {
			s.log.Error("bind failed", "fd", fd, "host", host, "port", port, "err", err)
			return false
		}
	default:
		s.log.Error("bind: unknown family", "family", fam)
		return false
	}
	s.log.Debug("socket bound", "fd", fd, "host", host, "port", port, "family", fam)
	return true
}

// listen marks fd as a passive listening socket with the given backlog
// (conventionally unix.SOMAXCONN).
func (s *sockAPI) listen(fd, backlog int) bool {
	if err := unix.Listen(fd, backlog); err != nil {
		s.log.Error("listen failed", "fd", fd, "backlog", backlog, "err", err)
		return false
	}
	s.log.Debug("socket listening", "fd", fd, "backlog", backlog)
	return true
}

func (s *sockAPI) setNonBlocking(fd int) bool {
	if err := unix.SetNonblock(fd, true); err != nil {
		s.log.Error("set-non-blocking failed", "fd", fd, "err", err)
		return false
	}
	return true
}

func (s *sockAPI) setReuseAddress(fd int) bool {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		s.log.Error("set-reuse-address failed", "fd", fd, "err", err)
		return false
	}
	return true
}

// setLinger sets SO_LINGER(0,0), i.e. lingering off: close() returns
// immediately and the kernel delivers any unsent data in the background.
func (s *sockAPI) setLinger(fd int) bool {
	l := unix.Linger{Onoff: 0, Linger: 0}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &l); err != nil {
		s.log.Error("set-linger failed", "fd", fd, "err", err)
		return false
	}
	return true
}

// setIPv6Only restricts an IPv6 listener to IPv6-only traffic. Only
// meaningful for AF_INET6 sockets.
func (s *sockAPI) setIPv6Only(fd int) bool {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
		s.log.Error("set-ipv6-only failed", "fd", fd, "err", err)
		return false
	}
	return true
}

func (s *sockAPI) setKeepAlive(fd int) bool {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		s.log.Error("set-keepalive failed", "fd", fd, "err", err)
		return false
	}
	return true
}

// setTimestamp requests SO_TIMESTAMP so recv can report when data arrived.
// Best-effort: not every kernel exposes this, failure is logged but not
// fatal to the caller.
func (s *sockAPI) setTimestamp(fd int) bool {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMP, 1); err != nil {
		s.log.Debug("set-timestamp unsupported", "fd", fd, "err", err)
		return false
	}
	return true
}

func (s *sockAPI) setNoDelay(fd int) bool {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		s.log.Error("set-nodelay failed", "fd", fd, "err", err)
		return false
	}
	return true
}

// send writes buf to fd. Returns the number of bytes written on success
// (>=0, possibly fewer than len(buf)), 0 if
// the error is transient (EAGAIN/EWOULDBLOCK/EINTR; caller should retry
// later), or -1 on a fatal error the caller must treat as a disconnect.
func (s *sockAPI) send(fd int, buf []byte) int {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if isTransientIOError(err) {
			return 0
		}
		s.log.Debug("send failed", "fd", fd, "err", err)
		return -1
	}
	return n
}

// recv reads into buf from fd. Same sign convention as send, plus an
// orderly zero-byte read (peer half-closed) is mapped to -1.
func (s *sockAPI) recv(fd int, buf []byte) int {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if isTransientIOError(err) {
			return 0
		}
		s.log.Debug("recv failed", "fd", fd, "err", err)
		return -1
	}
	if n == 0 {
		return -1
	}
	return n
}

func (s *sockAPI) close(fd int) {
	if err := unix.Close(fd); err != nil {
		s.log.Debug("close failed", "fd", fd, "err", err)
		return
	}
	s.log.Debug("socket closed", "fd", fd)
}

func isTransientIOError(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}

func parseIPv4(host string) ([4]byte, error) {
	var out [4]byte
	var a, b, c, d int
	n, err := fmt.Sscanf(host, "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return out, fmt.Errorf("netcore: invalid ipv4 address %q", host)
	}
	if a < 0 || a > 255 || b < 0 || b > 255 || c < 0 || c > 255 || d < 0 || d > 255 {
		return out, fmt.Errorf("netcore: invalid ipv4 address %q", host)
	}
	out[0], out[1], out[2], out[3] = byte(a), byte(b), byte(c), byte(d)
	return out, nil
}

// parseIPv6 accepts only the two literals this server's defaults use, "::1"
// and "::"; every other form, including a full 8-group address, is
// rejected. It is not a general RFC 4291 parser.
func parseIPv6(host string) ([16]byte, error) {
	var out [16]byte
	switch host {
	case "::1":
		out[15] = 1
		return out, nil
	case "::":
		return out, nil
	}
	return out, fmt.Errorf("netcore: unsupported ipv6 literal %q", host)
}
