package rtplib

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUDPURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantBind    string
		wantJoin    string
		wantPort    int
		expectError bool
	}{
		{
			name:     "empty authority defaults everything",
			uri:      "udp://",
			wantBind: "0.0.0.0",
			wantJoin: "0.0.0.0",
			wantPort: 1234,
		},
		{
			name:     "join only",
			uri:      "udp://239.0.0.1:5000",
			wantBind: "0.0.0.0",
			wantJoin: "239.0.0.1",
			wantPort: 5000,
		},
		{
			name:     "explicit empty bind",
			uri:      "udp://@239.0.0.1:5000",
			wantBind: "0.0.0.0",
			wantJoin: "239.0.0.1",
			wantPort: 5000,
		},
		{
			name:     "bind and join",
			uri:      "udp://192.168.1.5@239.0.0.1:5000",
			wantBind: "192.168.1.5",
			wantJoin: "239.0.0.1",
			wantPort: 5000,
		},
		{
			name:     "default port",
			uri:      "udp://239.0.0.1",
			wantBind: "0.0.0.0",
			wantJoin: "239.0.0.1",
			wantPort: 1234,
		},
		{
			name:     "port only",
			uri:      "udp://:4000",
			wantBind: "0.0.0.0",
			wantJoin: "0.0.0.0",
			wantPort: 4000,
		},
		{
			name:        "wrong scheme",
			uri:         "tcp://239.0.0.1:5000",
			expectError: true,
		},
		{
			name:        "unparseable bind address",
			uri:         "udp://nonsense@239.0.0.1:5000",
			expectError: true,
		},
		{
			name:        "unparseable join address",
			uri:         "udp://-not-an-ip-",
			expectError: true,
		},
		{
			name:        "port out of range",
			uri:         "udp://239.0.0.1:99999",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bind, join, port, err := parseUDPURI(tt.uri)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBind, bind.String())
			assert.Equal(t, tt.wantJoin, join.String())
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestIsMulticast(t *testing.T) {
	assert.False(t, isMulticast(net.IPv4(223, 255, 255, 255)))
	assert.True(t, isMulticast(net.IPv4(224, 0, 0, 1)))
	assert.True(t, isMulticast(net.IPv4(239, 255, 255, 255)))
	assert.False(t, isMulticast(net.IPv4(240, 0, 0, 1)))
	assert.False(t, isMulticast(net.IPv4zero))
	assert.False(t, isMulticast(net.ParseIP("ff02::1")))
}

func TestOpenStartsListener(t *testing.T) {
	// Port 0 picks a free port; the join address is unspecified, so no
	// group membership is attempted.
	l, err := Open("udp://127.0.0.1@:0", nil)
	require.NoError(t, err)
	defer l.Close()

	require.NotNil(t, l.Source().LocalAddr())
	assert.True(t, l.Source().LocalAddr().IP.IsLoopback())

	// Already started by Open.
	assert.ErrorIs(t, l.StartListening(), ErrAlreadyStarted)
}

func TestOpenRejectsBadURI(t *testing.T) {
	l, err := Open("rtsp://239.0.0.1:5000", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, l)
}
