package rtplib

import (
	metrics "github.com/rcrowley/go-metrics"
)

// listenerStats aggregates per-listener counters in a private go-metrics
// registry.
type listenerStats struct {
	registry metrics.Registry

	received       metrics.Counter
	sequenced      metrics.Counter
	lost           metrics.Counter
	invalidData    metrics.Counter
	invalidPackets metrics.Counter
	duplicates     metrics.Counter
	markers        metrics.Counter
	payloadBytes   metrics.Meter
}

func newListenerStats() *listenerStats {
	r := metrics.NewRegistry()
	return &listenerStats{
		registry:       r,
		received:       metrics.NewRegisteredCounter("rtp.packets.received", r),
		sequenced:      metrics.NewRegisteredCounter("rtp.packets.sequenced", r),
		lost:           metrics.NewRegisteredCounter("rtp.packets.lost", r),
		invalidData:    metrics.NewRegisteredCounter("rtp.datagrams.invalid", r),
		invalidPackets: metrics.NewRegisteredCounter("rtp.packets.invalid", r),
		duplicates:     metrics.NewRegisteredCounter("rtp.packets.duplicate", r),
		markers:        metrics.NewRegisteredCounter("rtp.markers.sequenced", r),
		payloadBytes:   metrics.NewRegisteredMeter("rtp.payload.bytes", r),
	}
}

// Stats is a point-in-time snapshot of a listener's counters.
type Stats struct {
	// Received counts datagrams that parsed as RTP and entered the
	// receive queue.
	Received int64

	// Sequenced counts packets emitted in sequence order.
	Sequenced int64

	// Lost counts sequence numbers declared lost under queue pressure.
	Lost int64

	// InvalidData counts datagrams that failed header parsing.
	InvalidData int64

	// InvalidPackets counts packets dropped by payload-type verification.
	InvalidPackets int64

	// Duplicates counts packets dropped because their sequence number was
	// already queued.
	Duplicates int64

	// Markers counts sequenced packets carrying the marker bit.
	Markers int64

	// PayloadBytes totals the payload bytes of sequenced packets.
	PayloadBytes int64
}

// Stats returns a snapshot of the listener's counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Received:       l.stats.received.Count(),
		Sequenced:      l.stats.sequenced.Count(),
		Lost:           l.stats.lost.Count(),
		InvalidData:    l.stats.invalidData.Count(),
		InvalidPackets: l.stats.invalidPackets.Count(),
		Duplicates:     l.stats.duplicates.Count(),
		Markers:        l.stats.markers.Count(),
		PayloadBytes:   l.stats.payloadBytes.Count(),
	}
}

// MetricsRegistry exposes the listener's private go-metrics registry, for
// wiring into an external reporter.
func (l *Listener) MetricsRegistry() metrics.Registry {
	return l.stats.registry
}
