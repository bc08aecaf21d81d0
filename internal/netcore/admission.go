package netcore

import "golang.org/x/sys/unix"

// PollingMode selects the readiness-multiplexing primitive a Receive
// worker uses. Both are implemented; select exists specifically to exercise
// the FD_SETSIZE admission-control edge case that epoll has no equivalent
// for.
type PollingMode int

const (
	PollEpoll PollingMode = iota
	PollSelect
)

// fdSetSize mirrors glibc's FD_SETSIZE, the admission-control boundary
// select-mode rules reference. Go's runtime does not expose select(2)
// directly, but the constant still bounds the fd values that mode can
// safely poll.
const fdSetSize = 1024

// MaxSocketsPerThread is the hard per-Receive-worker ownership cap.
const MaxSocketsPerThread = 512

// SocketsPerThreadHigh is the auto-scale threshold: MaxSocketsPerThread-10.
const SocketsPerThreadHigh = MaxSocketsPerThread - 10

// deriveMaxConnectionsTotal computes the soft admission cap at
// initialize-time: FD_SETSIZE-32 for select mode (a fixed value, since
// FD_SETSIZE is a compile-time constant, not something that needs a
// floor), or open-files-limit-32 for epoll mode, where the host's rlimit
// is dynamic and small enough to need clamping up to a floor of
// FD_SETSIZE-8.
func deriveMaxConnectionsTotal(mode PollingMode) int {
	if mode == PollSelect {
		return fdSetSize - 32
	}

	floor := fdSetSize - 8
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return floor
	}
	cap := int(rlim.Cur) - 32
	return max(cap, floor)
}
