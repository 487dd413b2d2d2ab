package rtplib

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtplib/rtp"
)

// sequenceLoop is the dedicated sequencing worker. It repeatedly selects
// the packet matching the expected sequence number from the receive queue,
// waiting on the receive condvar while the number is missing and the queue
// still has room. Once the queue is full and the number is still missing,
// the number is declared lost and the counter advances.
//
// The expected sequence counter is a uint16; wraparound at 2^16 is the
// natural integer overflow.
func (l *Listener) sequenceLoop(done chan struct{}) {
	defer close(done)

	logrus.WithFields(logrus.Fields{
		"function": "Listener.sequenceLoop",
	}).Debug("Sequencing worker running")

	for {
		pkt, refPT, ok := l.takeExpected()
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function": "Listener.sequenceLoop",
			}).Debug("Sequencing worker exiting")
			return
		}
		l.emit(pkt, refPT)
	}
}

// takeExpected blocks until the packet with the expected sequence number
// is available, removes it, advances the counter, and returns it together
// with the reference payload type. Losses declared along the way are
// emitted with the receive lock released. Returns ok=false on shutdown.
func (l *Listener) takeExpected() (*rtp.Packet, uint8, bool) {
	l.recvMu.Lock()
	for l.running {
		if !l.bootstrapped {
			l.recvCond.Wait()
			continue
		}

		if el := l.recvQueue.Get(l.expectedSeq); el != nil {
			pkt := el.Value.(*rtp.Packet)
			l.recvQueue.Remove(l.expectedSeq)
			l.expectedSeq++
			refPT := l.refPayloadType
			l.recvMu.Unlock()
			return pkt, refPT, true
		}

		if l.recvQueue.Len() >= l.opts.MaxBuffered {
			// Queue pressure: give up on this number.
			lost := l.expectedSeq
			l.expectedSeq++
			l.recvMu.Unlock()

			l.stats.lost.Inc(1)
			logrus.WithFields(logrus.Fields{
				"function": "Listener.takeExpected",
				"sequence": lost,
			}).Debug("Declaring packet lost")
			l.events.emitPacketLoss(lost)

			l.recvMu.Lock()
			continue
		}

		l.recvCond.Wait()
	}
	l.recvMu.Unlock()
	return nil, 0, false
}

// emit runs payload-type verification, pushes the packet onto the
// sequenced FIFO, and fires the packet events. Callbacks run with no lock
// held; sequenced events fire before the raw receive events for the same
// packet, and marker events directly after their packet event.
func (l *Listener) emit(pkt *rtp.Packet, refPT uint8) {
	if l.opts.VerifyPayloadType && pkt.PayloadType != refPT {
		l.stats.invalidPackets.Inc(1)
		logrus.WithFields(logrus.Fields{
			"function":     "Listener.emit",
			"sequence":     pkt.SequenceNumber,
			"payload_type": pkt.PayloadType,
			"reference":    refPT,
		}).Debug("Dropping packet with unexpected payload type")
		l.events.emitInvalidPacket(pkt)
		return
	}

	l.seqMu.Lock()
	if pkt.Marker {
		l.markerCount++
	}
	l.seqQueue = append(l.seqQueue, pkt)
	l.seqMu.Unlock()

	l.stats.sequenced.Inc(1)
	l.stats.payloadBytes.Mark(int64(pkt.PayloadLength))
	if pkt.Marker {
		l.stats.markers.Inc(1)
	}

	l.events.emitSequencedPacket(pkt)
	if pkt.Marker {
		l.events.emitSequencedMarker(pkt)
	}
	l.events.emitPacketReceived(pkt)
	if pkt.Marker {
		l.events.emitMarkerReceived(pkt)
	}

	l.signalStreams()
}

// signalStreams wakes every registered stream after a sequenced enqueue.
func (l *Listener) signalStreams() {
	l.streamsMu.Lock()
	for s := range l.streams {
		s.signal()
	}
	l.streamsMu.Unlock()
}
