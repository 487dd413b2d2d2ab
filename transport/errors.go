package transport

import "errors"

// Common errors for the datagram source.
var (
	// ErrAlreadyStarted indicates Start was called on a receiving source.
	ErrAlreadyStarted = errors.New("source already started")

	// ErrNotStarted indicates an operation that requires a receiving source
	// (Stop, JoinMulticast, DropMulticast), or a socket accessor used after
	// Stop has closed the socket.
	ErrNotStarted = errors.New("source not started")

	// ErrAddressFamilyMismatch indicates a multicast address whose family
	// does not match the bound endpoint.
	ErrAddressFamilyMismatch = errors.New("address family mismatch")

	// ErrInvalidAddress indicates a nil or otherwise unusable address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNilCallback indicates Start was called without a datagram callback.
	ErrNilCallback = errors.New("nil datagram callback")
)
