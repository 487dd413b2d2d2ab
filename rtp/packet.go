package rtp

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtplib/transport"
)

// ErrInvalidHeader indicates a datagram whose first bytes are not a usable
// RTP fixed header: truncated, wrong version, or carrying a header
// extension.
var ErrInvalidHeader = errors.New("invalid RTP header")

// rtpVersion is the only protocol version accepted.
const rtpVersion = 2

// fixedHeaderSize is the RTP header size before the CSRC list.
const fixedHeaderSize = 12

// Packet is a parsed RTP packet. Header fields are decoded copies; the
// payload stays in the original datagram buffer and is addressed by
// PayloadOffset and PayloadLength.
//
// Invariants: Version == 2, Extension == false,
// PayloadOffset == 12 + 4*CSRCCount,
// PayloadOffset + PayloadLength == datagram size.
type Packet struct {
	Version     uint8
	Padding     bool
	Extension   bool
	CSRCCount   uint8
	Marker      bool
	PayloadType uint8

	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32

	PayloadOffset int
	PayloadLength int

	datagram *transport.Datagram
}

// Parse decodes the first bytes of a datagram as an RTP fixed header.
//
// The returned packet references the datagram buffer; the datagram must
// stay untouched for the packet's lifetime. Fails with ErrInvalidHeader on
// truncation, version != 2, or a set extension bit.
func Parse(d *transport.Datagram) (*Packet, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil datagram", ErrInvalidHeader)
	}

	var header rtp.Header
	n, err := header.Unmarshal(d.Bytes())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Parse",
			"size":     d.Size(),
			"error":    err.Error(),
		}).Debug("RTP header decode failed")
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if header.Version != rtpVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidHeader, header.Version)
	}
	if header.Extension {
		return nil, fmt.Errorf("%w: header extension present", ErrInvalidHeader)
	}

	return &Packet{
		Version:        header.Version,
		Padding:        header.Padding,
		Extension:      header.Extension,
		CSRCCount:      uint8(len(header.CSRC)),
		Marker:         header.Marker,
		PayloadType:    header.PayloadType,
		SequenceNumber: header.SequenceNumber,
		Timestamp:      header.Timestamp,
		SSRC:           header.SSRC,
		CSRC:           header.CSRC,
		PayloadOffset:  n,
		PayloadLength:  d.Size() - n,
		datagram:       d,
	}, nil
}

// Payload returns the packet payload as a view into the original datagram
// buffer. Padding bytes, when the padding bit is set, are included
// verbatim.
func (p *Packet) Payload() []byte {
	return p.datagram.Bytes()[p.PayloadOffset : p.PayloadOffset+p.PayloadLength]
}

// Datagram returns the datagram this packet was parsed from.
func (p *Packet) Datagram() *transport.Datagram {
	return p.datagram
}

// String implements fmt.Stringer for log output.
func (p *Packet) String() string {
	return fmt.Sprintf("rtp seq=%d ts=%d ssrc=%08x pt=%d marker=%v len=%d",
		p.SequenceNumber, p.Timestamp, p.SSRC, p.PayloadType, p.Marker, p.PayloadLength)
}
