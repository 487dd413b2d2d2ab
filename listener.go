package rtplib

import (
	"fmt"
	"net"
	"sync"

	"github.com/huandu/skiplist"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtplib/rtp"
	"github.com/opd-ai/rtplib/transport"
)

// Listener receives an RTP stream over UDP, reorders packets by sequence
// number, and exposes marker-delimited frames.
//
// Internally the listener is a two-stage pipeline. The datagram source
// parses and pushes packets into an unordered receive queue; a dedicated
// sequencing goroutine moves them into a sequenced FIFO in strict
// sequence-number order, declaring a loss whenever queue pressure forces it
// past a missing number. The consumer API (NextPayload, NextFrame, Stream)
// drains the sequenced FIFO.
type Listener struct {
	opts   Options
	source *transport.UDPSource

	// Receive side. recvMu guards everything below it; recvCond is
	// signalled on every enqueue and on shutdown.
	recvMu         sync.Mutex
	recvCond       *sync.Cond
	recvQueue      *skiplist.SkipList // sequence number -> *rtp.Packet
	running        bool
	bootstrapped   bool
	expectedSeq    uint16
	refPayloadType uint8
	workerDone     chan struct{}

	// Sequencing side. seqMu guards the FIFO and the marker count. Held
	// only for queue manipulation, never across callbacks.
	seqMu       sync.Mutex
	seqQueue    []*rtp.Packet
	markerCount int

	// Streams registered for sequenced-enqueue wakeups.
	streamsMu sync.Mutex
	streams   map[*Stream]struct{}

	events    eventSet
	stats     *listenerStats
	closeOnce sync.Once
}

// NewListener binds a UDP endpoint and prepares a listener. Receiving does
// not begin until StartListening. A nil opts uses defaults.
func NewListener(laddr *net.UDPAddr, opts *Options) (*Listener, error) {
	if laddr == nil {
		return nil, fmt.Errorf("%w: nil local address", ErrInvalidArgument)
	}

	var o Options
	if opts != nil {
		o = *opts
	} else {
		o = *NewOptions()
	}
	o.normalize()

	source, err := transport.Bind(laddr, transport.Config{
		BufferSize:    o.BufferSize,
		ReceiveBuffer: o.ReceiveBuffer,
	})
	if err != nil {
		return nil, err
	}

	l := &Listener{
		opts:      o,
		source:    source,
		recvQueue: skiplist.New(skiplist.Uint16),
		streams:   make(map[*Stream]struct{}),
		stats:     newListenerStats(),
	}
	l.recvCond = sync.NewCond(&l.recvMu)

	logrus.WithFields(logrus.Fields{
		"function":            "NewListener",
		"local_addr":          laddr.String(),
		"max_buffered":        o.MaxBuffered,
		"verify_payload_type": o.VerifyPayloadType,
	}).Info("Listener created")

	return l, nil
}

// Source returns the underlying datagram source, for socket-level
// configuration such as TTL or broadcast.
func (l *Listener) Source() *transport.UDPSource {
	return l.source
}

// StartListening starts the datagram source and the sequencing worker.
// Returns ErrAlreadyStarted when already running.
func (l *Listener) StartListening() error {
	l.recvMu.Lock()
	if l.running {
		l.recvMu.Unlock()
		return ErrAlreadyStarted
	}
	l.running = true
	l.workerDone = make(chan struct{})
	done := l.workerDone
	l.recvMu.Unlock()

	if err := l.source.Start(l.handleDatagram); err != nil {
		l.recvMu.Lock()
		l.running = false
		l.recvMu.Unlock()
		return fmt.Errorf("start source: %w", err)
	}

	go l.sequenceLoop(done)

	logrus.WithFields(logrus.Fields{
		"function": "Listener.StartListening",
	}).Info("Listener started")

	return nil
}

// StopListening stops the datagram source, interrupts the sequencing
// worker, and waits for it to exit. Returns ErrNotStarted when the
// listener is not running; stopping twice is an error.
func (l *Listener) StopListening() error {
	l.recvMu.Lock()
	if !l.running {
		l.recvMu.Unlock()
		return ErrNotStarted
	}
	l.running = false
	done := l.workerDone
	l.recvCond.Broadcast()
	l.recvMu.Unlock()

	err := l.source.Stop()
	<-done

	logrus.WithFields(logrus.Fields{
		"function": "Listener.StopListening",
	}).Info("Listener stopped")

	if err != nil {
		return fmt.Errorf("stop source: %w", err)
	}
	return nil
}

// JoinMulticast joins a multicast group on the bound socket. The listener
// must be started. An optional TTL applies to outgoing multicast traffic.
func (l *Listener) JoinMulticast(group net.IP, ttl ...int) error {
	if err := l.source.JoinMulticast(group, ttl...); err != nil {
		switch err {
		case transport.ErrNotStarted:
			return ErrNotStarted
		case transport.ErrAddressFamilyMismatch, transport.ErrInvalidAddress:
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return err
	}
	return nil
}

// DropMulticast leaves a previously joined multicast group.
func (l *Listener) DropMulticast(group net.IP) error {
	if err := l.source.DropMulticast(group); err != nil {
		switch err {
		case transport.ErrNotStarted:
			return ErrNotStarted
		case transport.ErrAddressFamilyMismatch, transport.ErrInvalidAddress:
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return err
	}
	return nil
}

// Close releases the listener: stops it if running, unblocks and closes
// all streams, and clears the sequenced queue. Close is idempotent.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		if err := l.StopListening(); err != nil && err != ErrNotStarted {
			logrus.WithFields(logrus.Fields{
				"function": "Listener.Close",
				"error":    err.Error(),
			}).Warn("Stop during close failed")
		}

		l.streamsMu.Lock()
		streams := make([]*Stream, 0, len(l.streams))
		for s := range l.streams {
			streams = append(streams, s)
		}
		l.streamsMu.Unlock()
		for _, s := range streams {
			s.Close()
		}

		l.seqMu.Lock()
		l.seqQueue = nil
		l.markerCount = 0
		l.seqMu.Unlock()

		logrus.WithFields(logrus.Fields{
			"function": "Listener.Close",
		}).Info("Listener closed")
	})
	return nil
}

// handleDatagram is the source callback: parse, then enqueue on the
// receive side. Runs on the source's receive goroutine; it must not touch
// the sequencing-side lock.
func (l *Listener) handleDatagram(_ *transport.UDPSource, d *transport.Datagram) {
	pkt, err := rtp.Parse(d)
	if err != nil {
		l.stats.invalidData.Inc(1)
		logrus.WithFields(logrus.Fields{
			"function": "Listener.handleDatagram",
			"size":     d.Size(),
			"remote":   d.RemoteAddr().String(),
			"error":    err.Error(),
		}).Debug("Dropping unparseable datagram")
		l.events.emitInvalidData(d)
		return
	}

	l.recvMu.Lock()
	if !l.running {
		l.recvMu.Unlock()
		return
	}
	if !l.bootstrapped {
		// The first arrived packet anchors the sequence counter and the
		// reference payload type.
		l.bootstrapped = true
		l.expectedSeq = pkt.SequenceNumber
		l.refPayloadType = pkt.PayloadType
	}
	if l.recvQueue.Get(pkt.SequenceNumber) != nil {
		l.recvMu.Unlock()
		l.stats.duplicates.Inc(1)
		logrus.WithFields(logrus.Fields{
			"function": "Listener.handleDatagram",
			"sequence": pkt.SequenceNumber,
		}).Debug("Dropping duplicate sequence number")
		return
	}
	l.recvQueue.Set(pkt.SequenceNumber, pkt)
	l.stats.received.Inc(1)
	l.recvCond.Signal()
	l.recvMu.Unlock()
}
