// Package netcore implements the network-to-gameloop pipeline: connection
// identifier allocation, the cross-thread queues, the raw socket wrapper,
// and the Accept/Receive/Send worker subsystems tied together by the
// NetworkEngine facade.
package netcore

import "time"

// MessageKind tags the event carried by a NetworkMessage.
type MessageKind int

const (
	// NewConnection announces a freshly admitted connection. No payload.
	NewConnection MessageKind = iota
	// Disconnection announces that a connection has gone away. No payload.
	Disconnection
	// DataIncoming carries bytes read from a connection.
	DataIncoming
	// DataOutgoing carries bytes queued for transmission to a connection.
	DataOutgoing
	// DnsLookup carries a resolved peer name. Accepted and discarded by the
	// core; no consumer currently acts on it.
	DnsLookup
)

func (k MessageKind) String() string {
	switch k {
	case NewConnection:
		return "NewConnection"
	case Disconnection:
		return "Disconnection"
	case DataIncoming:
		return "DataIncoming"
	case DataOutgoing:
		return "DataOutgoing"
	case DnsLookup:
		return "DnsLookup"
	default:
		return "Unknown"
	}
}

// NetworkMessage is the tagged event type moved across the cross-thread
// queues. NewConnection and Disconnection carry no payload; DataIncoming,
// DataOutgoing and DnsLookup must carry a non-empty payload.
type NetworkMessage struct {
	ConnID    ConnectionID
	Kind      MessageKind
	Timestamp time.Time
	Payload   []byte
}

// Valid reports whether the message satisfies the payload-length invariant
// for its kind: NewConnection/Disconnection carry no payload,
// DataIncoming/DataOutgoing/DnsLookup must carry at least one byte.
func (m *NetworkMessage) Valid() bool {
	switch m.Kind {
	case NewConnection, Disconnection:
		return len(m.Payload) == 0
	case DataIncoming, DataOutgoing, DnsLookup:
		return len(m.Payload) > 0
	default:
		return false
	}
}

// NewEmptyMessage builds a NewConnection/Disconnection-shaped message.
func NewEmptyMessage(kind MessageKind, cid ConnectionID, at time.Time) *NetworkMessage {
	return &NetworkMessage{ConnID: cid, Kind: kind, Timestamp: at}
}

// NewPayloadMessage builds a DataIncoming/DataOutgoing/DnsLookup-shaped
// message. Payload ownership transfers to the message.
func NewPayloadMessage(kind MessageKind, cid ConnectionID, at time.Time, payload []byte) *NetworkMessage {
	return &NetworkMessage{ConnID: cid, Kind: kind, Timestamp: at, Payload: payload}
}
