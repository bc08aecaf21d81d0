package dataengine

import (
	"sync"

	"github.com/jandersson-mud/jmudgo/internal/netcore"
)

// DataEngine maintains the list of Players plus the ObjectId counter. At
// most one Player may exist per live ConnectionId.
type DataEngine struct {
	mu          sync.Mutex
	players     []*Player
	nextObjID   ObjectID
	startVNum   int
}

// New constructs an empty DataEngine. startingRoomVNum is assigned to every
// freshly created Player (see internal/world for how that vnum is
// resolved).
func New(startingRoomVNum int) *DataEngine {
	return &DataEngine{nextObjID: 1, startVNum: startingRoomVNum}
}

// AddPlayer creates a new Player bound to cid with a freshly allocated
// ObjectId. Fails if a live Player already has this ConnectionId.
func (d *DataEngine) AddPlayer(cid netcore.ConnectionID) (*Player, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.players {
		if p.ConnID == cid {
			return nil, false
		}
	}

	p := &Player{ObjectID: d.nextObjID, ConnID: cid, RoomVNum: d.startVNum}
	d.nextObjID++
	d.players = append(d.players, p)
	return p, true
}

// RemPlayer removes the first Player matching cid. Returns false if none
// exists.
func (d *DataEngine) RemPlayer(cid netcore.ConnectionID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, p := range d.players {
		if p.ConnID == cid {
			d.players = append(d.players[:i], d.players[i+1:]...)
			return true
		}
	}
	return false
}

// GetNumPlayers returns the current live Player count.
func (d *DataEngine) GetNumPlayers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.players)
}

// FindByConnID performs a linear lookup by ConnectionId, as the original
// does.
func (d *DataEngine) FindByConnID(cid netcore.ConnectionID) (*Player, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.players {
		if p.ConnID == cid {
			return p, true
		}
	}
	return nil, false
}

// FindByObjectID performs a linear lookup by ObjectId.
func (d *DataEngine) FindByObjectID(oid ObjectID) (*Player, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.players {
		if p.ObjectID == oid {
			return p, true
		}
	}
	return nil, false
}
