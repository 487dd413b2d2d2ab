// Package transport implements the UDP datagram source for RTP reception.
//
// This package handles socket lifecycle, multicast group membership, and
// delivery of raw datagrams to a callback. It knows nothing about RTP;
// header parsing happens upstream in the rtp package.
//
// Example:
//
//	laddr := &net.UDPAddr{IP: net.IPv4zero, Port: 5004}
//	source, err := transport.Bind(laddr, transport.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = source.Start(func(src *transport.UDPSource, d *transport.Datagram) {
//	    fmt.Printf("%d bytes from %s\n", d.Size(), d.RemoteAddr())
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer source.Stop()
//
//	// Join a multicast group once receiving.
//	if err := source.JoinMulticast(net.IPv4(239, 0, 0, 1)); err != nil {
//	    log.Fatal(err)
//	}
package transport
