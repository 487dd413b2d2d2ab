package rtplib

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DefaultPort is used when a udp:// URI does not name a port.
const DefaultPort = 1234

// Open creates and starts a Listener from a URI of the form
//
//	udp://[BIND_IP]@[JOIN_IP][:PORT]
//
// A missing BIND_IP binds all interfaces, a missing JOIN_IP joins nothing,
// and a missing PORT defaults to 1234. When JOIN_IP falls in the multicast
// range 224.0.0.0/4, the group is joined after the listener starts.
//
// Fails with ErrInvalidArgument on a scheme other than udp or on
// unparseable addresses. A nil opts uses defaults.
func Open(uri string, opts *Options) (*Listener, error) {
	bind, join, port, err := parseUDPURI(uri)
	if err != nil {
		return nil, err
	}

	l, err := NewListener(&net.UDPAddr{IP: bind, Port: port}, opts)
	if err != nil {
		return nil, err
	}
	if err := l.StartListening(); err != nil {
		l.Close()
		return nil, err
	}

	if isMulticast(join) {
		if err := l.JoinMulticast(join); err != nil {
			l.Close()
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Open",
		"uri":      uri,
		"bind":     bind.String(),
		"join":     join.String(),
		"port":     port,
	}).Info("Listener opened from URI")

	return l, nil
}

// parseUDPURI splits udp://[bind]@[join][:port] into its parts, filling
// defaults for the missing ones.
func parseUDPURI(uri string) (bind, join net.IP, port int, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if u.Scheme != "udp" {
		return nil, nil, 0, fmt.Errorf("%w: scheme %q, want udp", ErrInvalidArgument, u.Scheme)
	}

	bind = net.IPv4zero
	if u.User != nil && u.User.Username() != "" {
		bind = net.ParseIP(u.User.Username())
		if bind == nil {
			return nil, nil, 0, fmt.Errorf("%w: bind address %q", ErrInvalidArgument, u.User.Username())
		}
	}

	join = net.IPv4zero
	if host := u.Hostname(); host != "" {
		join = net.ParseIP(host)
		if join == nil {
			return nil, nil, 0, fmt.Errorf("%w: join address %q", ErrInvalidArgument, host)
		}
	}

	port = DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 0 || port > 65535 {
			return nil, nil, 0, fmt.Errorf("%w: port %q", ErrInvalidArgument, p)
		}
	}

	return bind, join, port, nil
}

// isMulticast reports whether ip's first octet falls in 224.0.0.0/4.
func isMulticast(ip net.IP) bool {
	v4 := ip.To4()
	return v4 != nil && v4[0]&0xF0 == 0xE0
}
