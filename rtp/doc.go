// Package rtp parses RTP datagrams into packets with a zero-copy payload
// view.
//
// This package decodes the RFC 3550 fixed header using the pion/rtp library
// and applies the validation the sequencing engine relies on: version 2
// only, no header extension. The payload is never copied; a parsed Packet
// keeps offset and length into the original datagram buffer.
//
// Example:
//
//	pkt, err := rtp.Parse(datagram)
//	if err != nil {
//	    // malformed header, drop the datagram
//	    return
//	}
//	fmt.Printf("seq=%d marker=%v payload=%d bytes\n",
//	    pkt.SequenceNumber, pkt.Marker, pkt.PayloadLength)
package rtp
