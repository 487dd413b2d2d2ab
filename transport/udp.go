package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// Default buffer sizing. BufferSize fits a standard MTU-sized payload; the
// kernel receive buffer is large enough to ride out consumer stalls.
const (
	DefaultBufferSize    = 1400
	DefaultReceiveBuffer = 1400 * 1024
)

// Config carries the socket buffer configuration for a UDPSource.
type Config struct {
	// BufferSize is the size of the per-datagram receive buffer.
	BufferSize int

	// ReceiveBuffer is the kernel receive buffer size requested at bind.
	ReceiveBuffer int
}

// DefaultConfig returns the default source configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:    DefaultBufferSize,
		ReceiveBuffer: DefaultReceiveBuffer,
	}
}

// DatagramCallback is invoked once per received datagram.
type DatagramCallback func(src *UDPSource, d *Datagram)

// UDPSource binds a UDP endpoint, optionally joins multicast groups, and
// delivers raw datagrams to a callback from a dedicated receive goroutine.
//
// A source alternates between bound and receiving: Bind opens the socket,
// Start begins the receive loop, Stop ends the loop and closes the socket.
// A stopped source may be started again; the socket is re-opened.
type UDPSource struct {
	mu       sync.Mutex
	laddr    *net.UDPAddr
	network  string
	config   Config
	conn     *net.UDPConn
	pconn    *ipv4.PacketConn
	started  bool
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// Bind opens a UDP socket with SO_REUSEADDR set and binds it to laddr.
// Receiving does not begin until Start is called.
//
// Parameters:
//   - laddr: local endpoint to bind; a nil or unspecified IP binds all
//     interfaces
//   - config: buffer configuration; zero fields take defaults
//
// Returns:
//   - *UDPSource: the bound source
//   - error: any error that occurred while opening the socket
func Bind(laddr *net.UDPAddr, config Config) (*UDPSource, error) {
	if laddr == nil {
		return nil, ErrInvalidAddress
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.ReceiveBuffer <= 0 {
		config.ReceiveBuffer = DefaultReceiveBuffer
	}

	network := "udp4"
	if laddr.IP != nil && laddr.IP.To4() == nil {
		network = "udp6"
	}

	s := &UDPSource{
		laddr:   laddr,
		network: network,
		config:  config,
	}
	if err := s.open(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":       "Bind",
		"local_addr":     s.conn.LocalAddr().String(),
		"buffer_size":    config.BufferSize,
		"receive_buffer": config.ReceiveBuffer,
	}).Info("UDP source bound")

	return s, nil
}

// open creates and configures the socket. Callers hold s.mu or own s
// exclusively.
func (s *UDPSource) open() error {
	lc := net.ListenConfig{Control: reuseAddrControl}
	c, err := lc.ListenPacket(context.Background(), s.network, s.laddr.String())
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.laddr, err)
	}
	conn := c.(*net.UDPConn)

	if err := conn.SetReadBuffer(s.config.ReceiveBuffer); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "UDPSource.open",
			"error":    err.Error(),
		}).Warn("Failed to set kernel receive buffer")
	}

	s.conn = conn
	if s.network == "udp4" {
		s.pconn = ipv4.NewPacketConn(conn)
	}
	return nil
}

// Start begins the asynchronous receive loop. Each received datagram is
// delivered exactly once to callback with its filled size and remote
// endpoint. Returns ErrAlreadyStarted if the source is already receiving.
func (s *UDPSource) Start(callback DatagramCallback) error {
	if callback == nil {
		return ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.conn == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.started = true

	go s.receiveLoop(ctx, s.conn, callback, s.loopDone)

	logrus.WithFields(logrus.Fields{
		"function":   "UDPSource.Start",
		"local_addr": s.conn.LocalAddr().String(),
	}).Info("UDP source receiving")

	return nil
}

// receiveLoop reads datagrams until the socket fails or the source is
// stopped. Receive errors are not retried; the loop terminates and the
// consumer is expected to tear down and re-create the source.
func (s *UDPSource) receiveLoop(ctx context.Context, conn *net.UDPConn, callback DatagramCallback, done chan struct{}) {
	defer close(done)

	for {
		buf := make([]byte, s.config.BufferSize)
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				logrus.WithFields(logrus.Fields{
					"function": "UDPSource.receiveLoop",
				}).Debug("Receive loop stopped")
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "UDPSource.receiveLoop",
				"error":    err.Error(),
			}).Warn("Receive error, terminating loop")
			return
		}

		callback(s, NewDatagram(buf, n, raddr))
	}
}

// Stop ends the receive loop and closes the socket. A subsequent Start
// re-opens the socket. Returns ErrNotStarted if the source is not
// receiving.
func (s *UDPSource) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	cancel := s.cancel
	conn := s.conn
	done := s.loopDone
	s.cancel = nil
	s.conn = nil
	s.pconn = nil
	s.mu.Unlock()

	cancel()
	err := conn.Close()
	<-done

	logrus.WithFields(logrus.Fields{
		"function": "UDPSource.Stop",
	}).Info("UDP source stopped")

	if err != nil {
		return fmt.Errorf("close socket: %w", err)
	}
	return nil
}

// JoinMulticast joins the given multicast group on the bound socket. An
// optional TTL applies to outgoing multicast traffic. The source must be
// started and the group's address family must match the bound endpoint.
func (s *UDPSource) JoinMulticast(group net.IP, ttl ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if group == nil {
		return ErrInvalidAddress
	}
	if s.pconn == nil || group.To4() == nil {
		return ErrAddressFamilyMismatch
	}

	if err := s.pconn.JoinGroup(nil, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("join group %s: %w", group, err)
	}
	if len(ttl) > 0 {
		if err := s.pconn.SetMulticastTTL(ttl[0]); err != nil {
			return fmt.Errorf("set multicast ttl: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "UDPSource.JoinMulticast",
		"group":    group.String(),
	}).Info("Joined multicast group")

	return nil
}

// DropMulticast leaves a previously joined multicast group.
func (s *UDPSource) DropMulticast(group net.IP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if group == nil {
		return ErrInvalidAddress
	}
	if s.pconn == nil || group.To4() == nil {
		return ErrAddressFamilyMismatch
	}

	if err := s.pconn.LeaveGroup(nil, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("leave group %s: %w", group, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "UDPSource.DropMulticast",
		"group":    group.String(),
	}).Info("Left multicast group")

	return nil
}

// TTL returns the unicast time-to-live of the bound socket.
func (s *UDPSource) TTL() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pconn == nil {
		return 0, ErrNotStarted
	}
	return s.pconn.TTL()
}

// SetTTL sets the unicast time-to-live of the bound socket.
func (s *UDPSource) SetTTL(ttl int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pconn == nil {
		return ErrNotStarted
	}
	return s.pconn.SetTTL(ttl)
}

// Broadcast reports whether sending to broadcast addresses is enabled.
func (s *UDPSource) Broadcast() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return false, ErrNotStarted
	}
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return false, err
	}
	return getBroadcast(rc)
}

// SetBroadcast enables or disables sending to broadcast addresses.
func (s *UDPSource) SetBroadcast(enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotStarted
	}
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	return setBroadcast(rc, enable)
}

// ReadBuffer returns the kernel receive buffer size of the bound socket.
// On Linux the kernel reports double the requested value.
func (s *UDPSource) ReadBuffer() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, ErrNotStarted
	}
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	return getReadBuffer(rc)
}

// SetReadBuffer sets the kernel receive buffer size of the bound socket.
func (s *UDPSource) SetReadBuffer(bytes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotStarted
	}
	return s.conn.SetReadBuffer(bytes)
}

// LocalAddr returns the local address the source is bound to, or nil when
// the socket is closed.
func (s *UDPSource) LocalAddr() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Started reports whether the receive loop is running.
func (s *UDPSource) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
