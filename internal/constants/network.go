// Package constants centralizes the cross-package protocol and tuning
// values shared between cmd/jmudserver and its internal packages, the way
// udisondev-la2go/internal/constants centralizes L2 protocol constants
// shared between its gameserver/login/crypto packages.
package constants

// Default Network Constants
//
// These equal the out-of-the-box values DefaultEngineConfig (internal/config)
// sets (it writes them as literals rather than reading this package),
// surfaced here so any package that needs "the default" without
// pulling in the config package's YAML machinery (e.g. a test building a
// netcore.Config by hand) has one place to read it from.
const (
	// DefaultPort is the conventional jMUD listen port.
	DefaultPort = 4000

	// DefaultMaxSocketsPerThread is the per-Receive-worker socket cap
	// (original_source/jMUD's MAX_SOCKETS_PER_THREAD).
	DefaultMaxSocketsPerThread = 512

	// DefaultCycleLengthMillis is the GameEngine's fixed tick cadence.
	DefaultCycleLengthMillis = 250
)

// Buffer Size Constants
const (
	// MaxPayloadSize is the largest DataIncoming/DataOutgoing payload a
	// NetworkMessage carries; longer reads are truncated at the socket
	// layer before a message is ever constructed.
	MaxPayloadSize = 32 * 1024

	// RecvScratchSize is the temporary buffer a Receive worker reads into
	// before copying (and truncating) into a pooled MaxPayloadSize buffer.
	RecvScratchSize = 64 * 1024
)

// ConnectionID Constants
const (
	// InvalidConnectionID marks "no connection", matching
	// original_source/jMUD's reserved id 0.
	InvalidConnectionID = 0

	// MaxConnectionID is the last valid ConnectionID before the allocator
	// space is exhausted (2^32 - 1).
	MaxConnectionID = 1<<32 - 1
)
