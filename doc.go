// Package rtplib receives RTP-over-UDP streams and reassembles
// application-level frames.
//
// A Listener binds a UDP endpoint (typically a multicast group), parses
// each datagram as an RTP packet, reorders packets by their 16-bit sequence
// number, and cuts frames at RTP marker boundaries. Frames are consumed
// either as discrete byte slices or through a continuous blocking byte
// stream.
//
// # Getting Started
//
// Open a listener from a URI and pull frames:
//
//	listener, err := rtplib.Open("udp://@239.0.0.1:5004", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close()
//
//	listener.OnPacketLoss(func(seq uint16) {
//	    log.Printf("lost packet %d", seq)
//	})
//
//	for {
//	    if frame := listener.NextFrame(); frame != nil {
//	        process(frame)
//	        continue
//	    }
//	    time.Sleep(5 * time.Millisecond)
//	}
//
// Or read the reassembled stream as bytes:
//
//	stream := listener.Stream()
//	buf := make([]byte, 4096)
//	if _, err := stream.Read(buf); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
// Datagrams flow through a two-stage pipeline: the transport package
// delivers raw datagrams, the rtp package parses them, and the listener's
// sequencing worker moves packets from an unordered receive queue into a
// sequenced FIFO, declaring losses when queue pressure forces it past a
// missing sequence number. The consumer API drains the sequenced FIFO.
//
// Ordering is strictly by sequence number with modulo-2^16 wraparound; RTP
// timestamps are carried but never interpreted. Header extensions, RTCP,
// and SRTP are not supported.
package rtplib
