package rtplib

import (
	"sync"

	"github.com/opd-ai/rtplib/rtp"
	"github.com/opd-ai/rtplib/transport"
)

// PacketCallback receives a parsed RTP packet.
type PacketCallback func(pkt *rtp.Packet)

// LossCallback receives the sequence number of a packet declared lost.
type LossCallback func(seq uint16)

// DatagramCallback receives a raw datagram that failed to parse.
type DatagramCallback func(d *transport.Datagram)

// eventSet holds the registered callbacks per event kind. Callbacks are
// invoked sequentially on the emitting goroutine and never under an engine
// lock, so a handler may call back into the consumer API.
type eventSet struct {
	mu sync.RWMutex

	invalidData     []DatagramCallback
	invalidPacket   []PacketCallback
	packetReceived  []PacketCallback
	markerReceived  []PacketCallback
	sequencedPacket []PacketCallback
	sequencedMarker []PacketCallback
	packetLoss      []LossCallback
}

// OnInvalidData registers a callback for datagrams that fail RTP header
// parsing. The datagram is otherwise discarded.
func (l *Listener) OnInvalidData(cb DatagramCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.invalidData = append(l.events.invalidData, cb)
}

// OnInvalidPacket registers a callback for packets dropped by payload-type
// verification.
func (l *Listener) OnInvalidPacket(cb PacketCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.invalidPacket = append(l.events.invalidPacket, cb)
}

// OnPacketReceived registers a callback fired once per accepted packet. It
// is fired by the sequencing worker right after the OnSequencedPacket
// callbacks for the same packet, so packets arrive in sequence order, and
// packets dropped by payload-type verification are not reported.
func (l *Listener) OnPacketReceived(cb PacketCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.packetReceived = append(l.events.packetReceived, cb)
}

// OnMarkerReceived registers a callback fired for accepted packets that
// carry the marker bit, after the corresponding OnPacketReceived.
func (l *Listener) OnMarkerReceived(cb PacketCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.markerReceived = append(l.events.markerReceived, cb)
}

// OnSequencedPacket registers a callback fired once per packet as it is
// placed into sequence order. Sequence numbers are strictly increasing
// modulo 2^16, with gaps where losses were declared.
func (l *Listener) OnSequencedPacket(cb PacketCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.sequencedPacket = append(l.events.sequencedPacket, cb)
}

// OnSequencedMarker registers a callback fired for sequenced packets that
// carry the marker bit, after the corresponding OnSequencedPacket.
func (l *Listener) OnSequencedMarker(cb PacketCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.sequencedMarker = append(l.events.sequencedMarker, cb)
}

// OnPacketLoss registers a callback fired with each sequence number the
// engine gives up on.
func (l *Listener) OnPacketLoss(cb LossCallback) {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	l.events.packetLoss = append(l.events.packetLoss, cb)
}

func (e *eventSet) emitInvalidData(d *transport.Datagram) {
	e.mu.RLock()
	cbs := e.invalidData
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(d)
	}
}

func (e *eventSet) emitInvalidPacket(pkt *rtp.Packet) {
	e.mu.RLock()
	cbs := e.invalidPacket
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(pkt)
	}
}

func (e *eventSet) emitPacketReceived(pkt *rtp.Packet) {
	e.mu.RLock()
	cbs := e.packetReceived
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(pkt)
	}
}

func (e *eventSet) emitMarkerReceived(pkt *rtp.Packet) {
	e.mu.RLock()
	cbs := e.markerReceived
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(pkt)
	}
}

func (e *eventSet) emitSequencedPacket(pkt *rtp.Packet) {
	e.mu.RLock()
	cbs := e.sequencedPacket
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(pkt)
	}
}

func (e *eventSet) emitSequencedMarker(pkt *rtp.Packet) {
	e.mu.RLock()
	cbs := e.sequencedMarker
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(pkt)
	}
}

func (e *eventSet) emitPacketLoss(seq uint16) {
	e.mu.RLock()
	cbs := e.packetLoss
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(seq)
	}
}
