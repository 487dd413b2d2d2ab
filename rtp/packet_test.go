package rtp

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/rtplib/transport"
)

func testRemote() *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}
}

// buildHeader assembles a raw RTP fixed header followed by payload.
func buildHeader(firstByte, secondByte byte, seq uint16, csrc []uint32, payload []byte) []byte {
	buf := make([]byte, 12+4*len(csrc)+len(payload))
	buf[0] = firstByte
	buf[1] = secondByte
	binary.BigEndian.PutUint16(buf[2:4], seq)
	binary.BigEndian.PutUint32(buf[4:8], 0x00010203)
	binary.BigEndian.PutUint32(buf[8:12], 0xCAFEBABE)
	for i, c := range csrc {
		binary.BigEndian.PutUint32(buf[12+4*i:16+4*i], c)
	}
	copy(buf[12+4*len(csrc):], payload)
	return buf
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectError bool
		check       func(t *testing.T, pkt *Packet)
	}{
		{
			name: "marker and payload type",
			data: buildHeader(0x80, 0xE0, 0x1234, nil, []byte{0xDE, 0xAD}),
			check: func(t *testing.T, pkt *Packet) {
				assert.Equal(t, uint8(2), pkt.Version)
				assert.True(t, pkt.Marker)
				assert.Equal(t, uint8(0x60), pkt.PayloadType)
				assert.Equal(t, uint16(0x1234), pkt.SequenceNumber)
				assert.Equal(t, uint32(0x00010203), pkt.Timestamp)
				assert.Equal(t, uint32(0xCAFEBABE), pkt.SSRC)
				assert.Equal(t, 12, pkt.PayloadOffset)
				assert.Equal(t, 2, pkt.PayloadLength)
			},
		},
		{
			name: "no marker",
			data: buildHeader(0x80, 0x60, 7, nil, []byte("abc")),
			check: func(t *testing.T, pkt *Packet) {
				assert.False(t, pkt.Marker)
				assert.Equal(t, uint8(0x60), pkt.PayloadType)
				assert.Equal(t, 3, pkt.PayloadLength)
			},
		},
		{
			name: "csrc list shifts payload offset",
			data: buildHeader(0x82, 0x60, 42, []uint32{0x11111111, 0x22222222}, []byte("xyz")),
			check: func(t *testing.T, pkt *Packet) {
				assert.Equal(t, uint8(2), pkt.CSRCCount)
				assert.Equal(t, []uint32{0x11111111, 0x22222222}, pkt.CSRC)
				assert.Equal(t, 20, pkt.PayloadOffset)
				assert.Equal(t, 3, pkt.PayloadLength)
				assert.Equal(t, []byte("xyz"), pkt.Payload())
			},
		},
		{
			name: "padding bit carried, not consumed",
			data: buildHeader(0xA0, 0x60, 1, nil, []byte{1, 2, 3, 0, 0, 2}),
			check: func(t *testing.T, pkt *Packet) {
				assert.True(t, pkt.Padding)
				assert.Equal(t, []byte{1, 2, 3, 0, 0, 2}, pkt.Payload())
			},
		},
		{
			name: "empty payload",
			data: buildHeader(0x80, 0x60, 9, nil, nil),
			check: func(t *testing.T, pkt *Packet) {
				assert.Equal(t, 0, pkt.PayloadLength)
				assert.Empty(t, pkt.Payload())
			},
		},
		{
			name:        "version 3 rejected",
			data:        buildHeader(0xC0, 0x60, 1, nil, []byte("abc")),
			expectError: true,
		},
		{
			name:        "version 1 rejected",
			data:        buildHeader(0x40, 0x60, 1, nil, []byte("abc")),
			expectError: true,
		},
		{
			name:        "extension bit rejected",
			data:        buildHeader(0x90, 0x60, 1, nil, []byte{0xBE, 0xDE, 0x00, 0x01, 0, 0, 0, 0}),
			expectError: true,
		},
		{
			name:        "truncated header rejected",
			data:        []byte{0x80, 0x60, 0x00, 0x01, 0x00, 0x00},
			expectError: true,
		},
		{
			name:        "empty datagram rejected",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "csrc count past end rejected",
			data:        buildHeader(0x8F, 0x60, 1, nil, nil),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := transport.NewDatagram(tt.data, len(tt.data), testRemote())
			pkt, err := Parse(d)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidHeader)
				return
			}
			require.NoError(t, err)
			tt.check(t, pkt)
		})
	}
}

func TestParseNilDatagram(t *testing.T) {
	pkt, err := Parse(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHeader)
	assert.Nil(t, pkt)
}

// The payload must be a view into the datagram buffer, not a copy.
func TestPayloadIsZeroCopy(t *testing.T) {
	data := buildHeader(0x80, 0x60, 5, nil, []byte("hello"))
	d := transport.NewDatagram(data, len(data), testRemote())

	pkt, err := Parse(d)
	require.NoError(t, err)

	payload := pkt.Payload()
	require.Equal(t, []byte("hello"), payload)
	assert.Equal(t, d.Bytes()[pkt.PayloadOffset:pkt.PayloadOffset+pkt.PayloadLength], payload)

	// Same backing array: mutating the datagram shows through the view.
	data[12] = 'H'
	assert.Equal(t, []byte("Hello"), pkt.Payload())
}

func TestInvariants(t *testing.T) {
	data := buildHeader(0x81, 0x60, 77, []uint32{0xAABBCCDD}, []byte("payload"))
	d := transport.NewDatagram(data, len(data), testRemote())

	pkt, err := Parse(d)
	require.NoError(t, err)

	assert.Equal(t, 12+4*int(pkt.CSRCCount), pkt.PayloadOffset)
	assert.Equal(t, d.Size(), pkt.PayloadOffset+pkt.PayloadLength)
	assert.Same(t, d, pkt.Datagram())
}
