package netcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNetworkMessage_ValidByKind(t *testing.T) {
	now := time.Now()

	assert.True(t, NewEmptyMessage(NewConnection, 1, now).Valid())
	assert.True(t, NewEmptyMessage(Disconnection, 1, now).Valid())
	assert.False(t, (&NetworkMessage{Kind: NewConnection, Payload: []byte("x")}).Valid())

	assert.True(t, NewPayloadMessage(DataIncoming, 1, now, []byte("hi")).Valid())
	assert.False(t, (&NetworkMessage{Kind: DataIncoming}).Valid())
	assert.False(t, (&NetworkMessage{Kind: DataOutgoing}).Valid())
	assert.False(t, (&NetworkMessage{Kind: DnsLookup}).Valid())
}
