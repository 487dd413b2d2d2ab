package rtplib

import "github.com/opd-ai/rtplib/transport"

// Defaults for listener configuration.
const (
	// DefaultMaxBuffered bounds the receive queue; once full, the next
	// missing sequence number is declared lost.
	DefaultMaxBuffered = 25

	// DefaultAutoFlushThreshold is the stream buffer size that triggers an
	// automatic flush of the already-read prefix.
	DefaultAutoFlushThreshold = transport.DefaultBufferSize * 1024 * 15
)

// Options configures a Listener.
type Options struct {
	// VerifyPayloadType drops packets whose payload type differs from the
	// first-seen payload type of the stream.
	VerifyPayloadType bool

	// MaxBuffered is the receive queue bound. When the queue holds this
	// many packets and the expected sequence number is still missing, the
	// missing packet is declared lost and the engine advances.
	MaxBuffered int

	// BufferSize is the per-datagram receive buffer size.
	BufferSize int

	// ReceiveBuffer is the kernel receive buffer size requested at bind.
	ReceiveBuffer int

	// AutoFlush lets streams discard their consumed prefix automatically
	// once the internal buffer grows past AutoFlushThreshold.
	AutoFlush bool

	// AutoFlushThreshold is the stream buffer size that triggers an
	// automatic flush.
	AutoFlushThreshold int
}

// NewOptions returns the default listener configuration.
func NewOptions() *Options {
	return &Options{
		VerifyPayloadType:  true,
		MaxBuffered:        DefaultMaxBuffered,
		BufferSize:         transport.DefaultBufferSize,
		ReceiveBuffer:      transport.DefaultReceiveBuffer,
		AutoFlush:          true,
		AutoFlushThreshold: DefaultAutoFlushThreshold,
	}
}

// normalize fills zero or negative numeric fields with defaults. The
// boolean fields VerifyPayloadType and AutoFlush are left as given.
func (o *Options) normalize() {
	if o.MaxBuffered <= 0 {
		o.MaxBuffered = DefaultMaxBuffered
	}
	if o.BufferSize <= 0 {
		o.BufferSize = transport.DefaultBufferSize
	}
	if o.ReceiveBuffer <= 0 {
		o.ReceiveBuffer = transport.DefaultReceiveBuffer
	}
	if o.AutoFlushThreshold <= 0 {
		o.AutoFlushThreshold = DefaultAutoFlushThreshold
	}
}
