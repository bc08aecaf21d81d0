// Package gameengine implements the single-threaded, fixed-cadence tick
// loop that drains the NetworkEngine's inbound queue and mutates the
// DataEngine.
package gameengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jandersson-mud/jmudgo/internal/dataengine"
	"github.com/jandersson-mud/jmudgo/internal/netcore"
)

// CycleLength is the target duration of one tick.
const CycleLength = 250 * time.Millisecond

// DefaultCycleCount is the original's compile-time test run length: 120
// cycles at 250ms each is 30 seconds, matching its `(1000/250)*30` test
// default exactly (original_source/jMUD/src/server/GameEngine.cpp). New
// does not apply it; an Engine's CycleCount starts at zero.
const DefaultCycleCount = 120

// Engine is the explicitly-constructed GameEngine: no singleton.
// booted/running form its two-state lifecycle.
type Engine struct {
	log     *slog.Logger
	network *netcore.NetworkEngine
	data    *dataengine.DataEngine

	booted  bool
	running bool

	// CycleCount, when > 0, bounds Run to that many ticks (e.g.
	// DefaultCycleCount). Zero, the value New leaves it at, means run until
	// Shutdown is called or the context is cancelled.
	CycleCount int

	cycleNum int64
}

// New constructs an Engine bound to the given NetworkEngine and DataEngine.
// Neither is a singleton: both are passed explicitly.
func New(log *slog.Logger, network *netcore.NetworkEngine, data *dataengine.DataEngine) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log, network: network, data: data}
}

// Initialize moves booted to true. Calling it twice is an error.
func (e *Engine) Initialize() error {
	if e.booted {
		return errAlreadyBooted
	}
	e.booted = true
	e.log.Info("game engine initialized")
	return nil
}

var errAlreadyBooted = engineError("game engine already initialized")

type engineError string

func (e engineError) Error() string { return string(e) }

// Run requires booted=true, running=false, and runs the fixed-cadence loop
// until ctx is cancelled, Shutdown is called, or CycleCount ticks have
// elapsed (whichever first). Returns early (doing nothing) if the
// precondition isn't met, mirroring the original's guarded early return.
func (e *Engine) Run(ctx context.Context) error {
	if !e.booted || e.running {
		return nil
	}
	e.running = true
	e.log.Info("game engine running", "cycle_length", CycleLength, "cycle_count", e.CycleCount)

	ticker := time.NewTicker(CycleLength)
	defer ticker.Stop()

	for {
		if !e.running {
			break
		}
		if e.CycleCount > 0 && e.cycleNum >= int64(e.CycleCount) {
			break
		}

		select {
		case <-ctx.Done():
			e.running = false
		case <-ticker.C:
			e.cycleNum++
			e.update()
		}
		if !e.running {
			break
		}
	}

	return e.Shutdown(nil)
}

// update drains the inbound queue under its lock and handles each message
// by kind, the way original_source/jMUD/src/server/GameEngine.cpp's
// update() does.
func (e *Engine) update() {
	if e.network.InboundQueue.Empty() {
		return
	}

	e.network.InboundQueue.Lock()
	msgs := e.network.InboundQueue.DrainLocked()
	e.network.InboundQueue.Unlock()

	// DrainLocked returns newest first; handle oldest first so a
	// connection's NewConnection is seen before its Disconnection.
	for i := len(msgs) - 1; i >= 0; i-- {
		e.handle(msgs[i])
	}
}

func (e *Engine) handle(m *netcore.NetworkMessage) {
	switch m.Kind {
	case netcore.NewConnection:
		if _, ok := e.data.AddPlayer(m.ConnID); !ok {
			e.log.Error("AddPlayer failed: connection id already has a player", "cid", m.ConnID)
		}
	case netcore.Disconnection:
		if !e.data.RemPlayer(m.ConnID) {
			e.log.Error("RemPlayer failed: no player for connection id", "cid", m.ConnID)
		}
	case netcore.DataIncoming:
		if len(m.Payload) == 0 {
			e.log.Error("DataIncoming with zero length payload", "cid", m.ConnID)
		}
		// A command interpreter is out of scope; the handler is
		// intentionally a stub beyond the length assertion. The payload
		// buffer came from the network engine's pool and must go back once
		// we're done looking at it.
		e.network.ReleaseBuffer(m.Payload)
	case netcore.DataOutgoing:
		e.log.Error("DataOutgoing arrived on inbound queue: invariant violation", "cid", m.ConnID)
	case netcore.DnsLookup:
		// Accepted and discarded by the core.
	default:
		e.log.Error("unknown message kind on inbound queue", "kind", m.Kind)
	}
}

// Shutdown clears booted and running, closes the NetworkEngine, and returns
// err unchanged.
func (e *Engine) Shutdown(err error) error {
	e.running = false
	e.booted = false
	e.network.Close()
	e.log.Info("game engine shut down", "cycles_run", e.cycleNum)
	return err
}

// Booted reports whether Initialize has been called without a matching
// Shutdown.
func (e *Engine) Booted() bool { return e.booted }

// Running reports whether Run's loop is currently active.
func (e *Engine) Running() bool { return e.running }

// CyclesRun returns the number of ticks completed so far.
func (e *Engine) CyclesRun() int64 { return e.cycleNum }
