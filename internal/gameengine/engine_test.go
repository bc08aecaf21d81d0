package gameengine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jandersson-mud/jmudgo/internal/dataengine"
	"github.com/jandersson-mud/jmudgo/internal/netcore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestEngine_RunRequiresBooted(t *testing.T) {
	net := netcore.New(discardLogger())
	data := dataengine.New(1)
	e := New(discardLogger(), net, data)

	err := e.Run(context.Background())
	assert.NoError(t, err)
	assert.False(t, e.Running(), "Run must no-op when not booted")
}

func TestEngine_UpdateDrainsNewConnectionAndDisconnection(t *testing.T) {
	net := netcore.New(discardLogger())
	data := dataengine.New(1)
	e := New(discardLogger(), net, data)
	require.NoError(t, e.Initialize())

	net.InboundQueue.Push(netcore.NewEmptyMessage(netcore.NewConnection, 1, time.Now()))
	e.update()
	assert.Equal(t, 1, data.GetNumPlayers())

	net.InboundQueue.Push(netcore.NewEmptyMessage(netcore.Disconnection, 1, time.Now()))
	e.update()
	assert.Equal(t, 0, data.GetNumPlayers())
}

func TestEngine_UpdateIgnoresDnsLookupAndFlagsDataOutgoing(t *testing.T) {
	net := netcore.New(discardLogger())
	data := dataengine.New(1)
	e := New(discardLogger(), net, data)
	require.NoError(t, e.Initialize())

	net.InboundQueue.Push(netcore.NewPayloadMessage(netcore.DnsLookup, 1, time.Now(), []byte("host.example")))
	net.InboundQueue.Push(netcore.NewPayloadMessage(netcore.DataOutgoing, 1, time.Now(), []byte("oops")))

	assert.NotPanics(t, func() { e.update() })
	assert.Equal(t, 0, data.GetNumPlayers())
}

func TestEngine_RunHonorsCycleCount(t *testing.T) {
	net := netcore.New(discardLogger())
	data := dataengine.New(1)
	e := New(discardLogger(), net, data)
	e.CycleCount = 2
	require.NoError(t, e.Initialize())

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return within the expected cycle budget")
	}
	assert.Equal(t, int64(2), e.CyclesRun())
	assert.False(t, e.Booted())
}
