// Package dataengine maintains the in-memory roster of Players that the
// GameEngine tick loop creates and removes as connections come and go.
package dataengine

import "github.com/jandersson-mud/jmudgo/internal/netcore"

// ObjectID is a 64-bit identifier for a Player, independent of transport
// identity. Zero is reserved as invalid.
type ObjectID uint64

// InvalidObjectID is the reserved zero value.
const InvalidObjectID ObjectID = 0

// Player is the DataEngine's record of a connected participant. ObjectId is
// set exactly once at creation; ConnectionId is the current transport
// binding.
type Player struct {
	ObjectID ObjectID
	ConnID   netcore.ConnectionID

	// Status and State are opaque to the core; a command interpreter or
	// world simulation layer is the intended consumer and is out of scope
	// here.
	Status int
	State  int

	// RoomVNum is the zone-relative room number the player currently
	// occupies. Grounded on original_source/jMUD's WorldEngine/GameEngine
	// player placement; kept here purely as placement state, not a command
	// interpreter.
	RoomVNum int
}
