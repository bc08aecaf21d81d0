package dataengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jandersson-mud/jmudgo/internal/netcore"
)

func TestAddPlayer_AssignsFreshObjectIDOnce(t *testing.T) {
	d := New(1)

	p1, ok := d.AddPlayer(netcore.ConnectionID(1))
	require.True(t, ok)
	assert.Equal(t, ObjectID(1), p1.ObjectID)

	p2, ok := d.AddPlayer(netcore.ConnectionID(2))
	require.True(t, ok)
	assert.Equal(t, ObjectID(2), p2.ObjectID)
	assert.NotEqual(t, p1.ObjectID, p2.ObjectID)
}

func TestAddPlayer_RejectsDuplicateConnID(t *testing.T) {
	d := New(1)

	_, ok := d.AddPlayer(netcore.ConnectionID(5))
	require.True(t, ok)

	_, ok = d.AddPlayer(netcore.ConnectionID(5))
	assert.False(t, ok, "at most one Player per live ConnectionId")
}

func TestRemPlayer_RemovesAndReportsMissing(t *testing.T) {
	d := New(1)
	d.AddPlayer(netcore.ConnectionID(7))

	assert.True(t, d.RemPlayer(netcore.ConnectionID(7)))
	assert.False(t, d.RemPlayer(netcore.ConnectionID(7)))
	assert.Equal(t, 0, d.GetNumPlayers())
}

func TestFindByConnIDAndObjectID(t *testing.T) {
	d := New(3)
	p, _ := d.AddPlayer(netcore.ConnectionID(42))

	found, ok := d.FindByConnID(netcore.ConnectionID(42))
	require.True(t, ok)
	assert.Equal(t, p, found)
	assert.Equal(t, 3, found.RoomVNum)

	foundByObj, ok := d.FindByObjectID(p.ObjectID)
	require.True(t, ok)
	assert.Equal(t, p, foundByObj)

	_, ok = d.FindByConnID(netcore.ConnectionID(999))
	assert.False(t, ok)
}
