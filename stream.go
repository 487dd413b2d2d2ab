package rtplib

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Stream is a continuous, read-only byte view over a listener's
// reassembled frames. Reads are exact: Read blocks until the requested
// number of bytes is available, with no partial results and no timeout.
//
// The stream keeps an internal buffer of pulled frames and a read
// position. With AutoFlush enabled (the default) the consumed prefix is
// discarded whenever the buffer grows past the flush threshold; Flush does
// the same on demand. The stream cannot seek or write.
type Stream struct {
	listener *Listener

	mu        sync.Mutex
	cond      *sync.Cond
	data      []byte
	readPos   int
	autoFlush bool
	threshold int
	closed    bool
}

// Stream creates a readable byte view over the listener's frames and
// registers it for wakeups on every sequenced packet.
func (l *Listener) Stream() *Stream {
	s := &Stream{
		listener:  l,
		autoFlush: l.opts.AutoFlush,
		threshold: l.opts.AutoFlushThreshold,
	}
	s.cond = sync.NewCond(&s.mu)

	l.streamsMu.Lock()
	l.streams[s] = struct{}{}
	l.streamsMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Listener.Stream",
		"auto_flush": s.autoFlush,
		"threshold":  s.threshold,
	}).Debug("Stream created")

	return s
}

// Read fills p completely with reassembled stream bytes, pulling frames
// from the listener as they become available. It blocks until len(p)
// bytes can be delivered, and returns ErrStreamClosed if the stream is
// closed before or while waiting.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStreamClosed
	}

	if s.autoFlush && len(s.data) > s.threshold {
		s.flushLocked()
	}

	for len(s.data)-s.readPos < len(p) {
		if s.closed {
			return 0, ErrStreamClosed
		}
		if frame := s.listener.NextFrame(); frame != nil {
			s.data = append(s.data, frame...)
			continue
		}
		s.cond.Wait()
	}

	n := copy(p, s.data[s.readPos:s.readPos+len(p)])
	s.readPos += n
	return n, nil
}

// Flush discards the already-read prefix of the internal buffer.
func (s *Stream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Stream) flushLocked() {
	if s.readPos == 0 {
		return
	}
	remaining := len(s.data) - s.readPos
	buf := make([]byte, remaining)
	copy(buf, s.data[s.readPos:])
	s.data = buf
	s.readPos = 0
}

// Buffered returns the number of unread bytes currently held.
func (s *Stream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) - s.readPos
}

// Close detaches the stream from the listener and unblocks pending reads
// with ErrStreamClosed. Close is idempotent.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.listener.streamsMu.Lock()
	delete(s.listener.streams, s)
	s.listener.streamsMu.Unlock()

	return nil
}

// Seek is not supported; the stream has no meaningful position.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrNotSupported
}

// Write is not supported; the stream is read-only.
func (s *Stream) Write(p []byte) (int, error) {
	return 0, ErrNotSupported
}

// Length is not supported; the stream is unbounded.
func (s *Stream) Length() (int64, error) {
	return 0, ErrNotSupported
}

// Position is not supported; see Seek.
func (s *Stream) Position() (int64, error) {
	return 0, ErrNotSupported
}

// signal wakes a blocked reader after a sequenced enqueue.
func (s *Stream) signal() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}
