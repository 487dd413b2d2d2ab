package rtplib

import (
	"github.com/samber/lo"

	"github.com/opd-ai/rtplib/rtp"
)

// NextPayload removes the earliest sequenced packet and returns its
// payload as a freshly allocated buffer owned by the caller, or nil when
// the sequenced queue is empty.
func (l *Listener) NextPayload() []byte {
	l.seqMu.Lock()
	defer l.seqMu.Unlock()

	if len(l.seqQueue) == 0 {
		return nil
	}

	pkt := l.seqQueue[0]
	l.seqQueue = l.seqQueue[1:]
	if pkt.Marker && l.markerCount > 0 {
		l.markerCount--
	}

	out := make([]byte, pkt.PayloadLength)
	copy(out, pkt.Payload())
	return out
}

// NextFrame removes and returns the next complete frame: the ordered
// concatenation of payloads from the front of the sequenced queue up to
// and including the first marker packet. Returns nil while no marker has
// been sequenced yet.
//
// The returned buffer is freshly allocated and owned by the caller.
func (l *Listener) NextFrame() []byte {
	l.seqMu.Lock()
	defer l.seqMu.Unlock()

	if l.markerCount == 0 {
		return nil
	}

	end := -1
	for i, pkt := range l.seqQueue {
		if pkt.Marker {
			end = i
			break
		}
	}
	if end < 0 {
		return nil
	}

	parts := l.seqQueue[:end+1]
	frame := make([]byte, 0, lo.SumBy(parts, func(p *rtp.Packet) int {
		return p.PayloadLength
	}))
	for _, pkt := range parts {
		frame = append(frame, pkt.Payload()...)
	}

	l.seqQueue = l.seqQueue[end+1:]
	l.markerCount--

	return frame
}

// MarkerCount returns the number of complete frames currently held in the
// sequenced queue.
func (l *Listener) MarkerCount() int {
	l.seqMu.Lock()
	defer l.seqMu.Unlock()
	return l.markerCount
}

// Buffered returns the number of packets currently in the sequenced queue.
func (l *Listener) Buffered() int {
	l.seqMu.Lock()
	defer l.seqMu.Unlock()
	return len(l.seqQueue)
}
