package netcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMaxConnectionsTotal_SelectMode(t *testing.T) {
	got := deriveMaxConnectionsTotal(PollSelect)
	assert.Equal(t, fdSetSize-32, got)
}

func TestDeriveMaxConnectionsTotal_EpollModeNeverBelowFloor(t *testing.T) {
	got := deriveMaxConnectionsTotal(PollEpoll)
	assert.GreaterOrEqual(t, got, fdSetSize-8)
}

func TestSocketsPerThreadHigh(t *testing.T) {
	assert.Equal(t, MaxSocketsPerThread-10, SocketsPerThreadHigh)
}
