package rtplib

import "errors"

// Sentinel errors for listener and stream operations. These enable
// reliable classification with errors.Is().

// Control-path errors surfaced to the caller.
var (
	// ErrAlreadyStarted indicates StartListening on a running listener.
	ErrAlreadyStarted = errors.New("listener already started")

	// ErrNotStarted indicates StopListening on a stopped listener, or a
	// multicast join before StartListening.
	ErrNotStarted = errors.New("listener not started")

	// ErrInvalidArgument indicates a malformed URI, endpoint, or multicast
	// address.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed names use of a listener after Close. No Listener method
	// returns it; methods called after Close do not check for a closed
	// listener.
	ErrClosed = errors.New("listener closed")
)

// Stream errors.
var (
	// ErrNotSupported indicates an operation the stream cannot perform:
	// seeking, writing, or querying length or position.
	ErrNotSupported = errors.New("operation not supported")

	// ErrStreamClosed indicates a read on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)
