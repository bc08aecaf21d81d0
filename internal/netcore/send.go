package netcore

import "time"

// SendWorker drains the outbound message queue (transmitting DataOutgoing
// payloads) and the remove-socket queue (closing handles and destroying
// records) until the engine's terminate flag is set — the second phase of
// shutdown.
type SendWorker struct {
	engine *NetworkEngine
}

func newSendWorker(e *NetworkEngine) *SendWorker {
	return &SendWorker{engine: e}
}

func (w *SendWorker) run() {
	e := w.engine
	e.log.Info("send/cleanup worker starting")

	for !e.isTerminating() {
		w.drainOutbound()
		w.drainRemoveQueue()
		time.Sleep(750 * time.Millisecond)
	}

	// Final drain once terminating, so late-queued work isn't lost.
	w.drainOutbound()
	w.drainRemoveQueue()
	e.log.Info("send/cleanup worker terminating")
}

// drainOutbound matches each DataOutgoing message back to its SocketRecord
// and transmits it; a transient (0) send result is re-enqueued for the next
// pass, a fatal (-1) result disconnects the connection.
func (w *SendWorker) drainOutbound() {
	e := w.engine
	if e.outboundQueue.Empty() {
		return
	}
	e.outboundQueue.Lock()
	msgs := e.outboundQueue.DrainLocked()
	e.outboundQueue.Unlock()

	for _, m := range msgs {
		if m.Kind != DataOutgoing {
			e.log.Error("outbound queue: unexpected message kind", "kind", m.Kind)
			continue
		}
		rec := e.lookupRecordByConnID(m.ConnID)
		if rec == nil {
			// Connection already gone; drop the message silently.
			continue
		}
		n := e.api.send(rec.FD, m.Payload)
		switch {
		case n > 0:
			rec.AddTX(n)
			e.addTX(n)
		case n == 0:
			e.outboundQueue.Push(m)
		default:
			e.DisconnectConnection(rec)
		}
	}
}

func (w *SendWorker) drainRemoveQueue() {
	e := w.engine
	if e.removeSocketQueue.Empty() {
		return
	}
	e.removeSocketQueue.Lock()
	recs := e.removeSocketQueue.DrainLocked()
	e.removeSocketQueue.Unlock()

	for _, rec := range recs {
		e.log.Info("closing connection", "cid", rec.ConnID, "fd", rec.FD,
			"rx_bytes", rec.RXBytes(), "tx_bytes", rec.TXBytes())
		e.api.close(rec.FD)
		e.forgetRecord(rec.ConnID)
	}
}
