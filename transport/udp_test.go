package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func bindLoopback(t *testing.T) *UDPSource {
	t.Helper()
	laddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
	src, err := Bind(laddr, DefaultConfig())
	require.NoError(t, err)
	return src
}

func TestBindInvalidAddress(t *testing.T) {
	src, err := Bind(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Nil(t, src)
}

func TestReceiveDelivery(t *testing.T) {
	src := bindLoopback(t)

	received := make(chan *Datagram, 4)
	require.NoError(t, src.Start(func(_ *UDPSource, d *Datagram) {
		received <- d
	}))
	defer src.Stop()

	conn, err := net.DialUDP("udp4", nil, src.LocalAddr())
	require.NoError(t, err)
	defer conn.Close()

	payload := []byte("hello, multicast world")
	_, err = conn.Write(payload)
	require.NoError(t, err)

	select {
	case d := <-received:
		assert.Equal(t, payload, d.Bytes())
		assert.Equal(t, len(payload), d.Size())
		assert.Equal(t, DefaultBufferSize, d.Capacity())
		require.NotNil(t, d.RemoteAddr())
		assert.True(t, d.RemoteAddr().IP.IsLoopback())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := bindLoopback(t)
	cb := func(_ *UDPSource, _ *Datagram) {}

	require.NoError(t, src.Start(cb))
	assert.True(t, src.Started())

	// A second start is rejected.
	assert.ErrorIs(t, src.Start(cb), ErrAlreadyStarted)

	require.NoError(t, src.Stop())
	assert.False(t, src.Started())
	assert.Nil(t, src.LocalAddr())

	// Stopping again is an error.
	assert.ErrorIs(t, src.Stop(), ErrNotStarted)

	// Start after stop re-opens the socket.
	require.NoError(t, src.Start(cb))
	assert.NotNil(t, src.LocalAddr())
	require.NoError(t, src.Stop())
}

func TestStartNilCallback(t *testing.T) {
	src := bindLoopback(t)
	defer src.Stop()

	assert.ErrorIs(t, src.Start(nil), ErrNilCallback)
	require.NoError(t, src.Start(func(_ *UDPSource, _ *Datagram) {}))
}

func TestMulticastRequiresStart(t *testing.T) {
	src := bindLoopback(t)

	group := net.IPv4(239, 255, 0, 1)
	assert.ErrorIs(t, src.JoinMulticast(group), ErrNotStarted)
	assert.ErrorIs(t, src.DropMulticast(group), ErrNotStarted)

	require.NoError(t, src.Start(func(_ *UDPSource, _ *Datagram) {}))
	defer src.Stop()

	// IPv6 group on an IPv4-bound socket.
	assert.ErrorIs(t, src.JoinMulticast(net.ParseIP("ff02::1")), ErrAddressFamilyMismatch)
	assert.ErrorIs(t, src.JoinMulticast(nil), ErrInvalidAddress)
}

func TestSocketAccessors(t *testing.T) {
	src := bindLoopback(t)
	defer func() {
		if src.Started() {
			src.Stop()
		}
	}()

	ttl, err := src.TTL()
	require.NoError(t, err)
	assert.Greater(t, ttl, 0)

	require.NoError(t, src.SetTTL(32))
	ttl, err = src.TTL()
	require.NoError(t, err)
	assert.Equal(t, 32, ttl)

	require.NoError(t, src.SetBroadcast(true))
	on, err := src.Broadcast()
	require.NoError(t, err)
	assert.True(t, on)

	size, err := src.ReadBuffer()
	require.NoError(t, err)
	assert.Greater(t, size, 0)

	require.NoError(t, src.SetReadBuffer(64*1024))
}

func TestAccessorsAfterStop(t *testing.T) {
	src := bindLoopback(t)
	require.NoError(t, src.Start(func(_ *UDPSource, _ *Datagram) {}))
	require.NoError(t, src.Stop())

	_, err := src.TTL()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = src.Broadcast()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = src.ReadBuffer()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, src.SetReadBuffer(1024), ErrNotStarted)
}

func TestConfigDefaults(t *testing.T) {
	laddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
	src, err := Bind(laddr, Config{})
	require.NoError(t, err)

	received := make(chan *Datagram, 1)
	require.NoError(t, src.Start(func(_ *UDPSource, d *Datagram) {
		received <- d
	}))
	defer src.Stop()

	conn, err := net.DialUDP("udp4", nil, src.LocalAddr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{1})
	require.NoError(t, err)

	select {
	case d := <-received:
		assert.Equal(t, DefaultBufferSize, d.Capacity())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}
