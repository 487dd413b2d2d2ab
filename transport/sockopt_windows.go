//go:build windows

package transport

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return serr
}

func setBroadcast(c syscall.RawConn, enable bool) error {
	val := 0
	if enable {
		val = 1
	}
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, val)
	}); err != nil {
		return err
	}
	return serr
}

func getBroadcast(c syscall.RawConn) (bool, error) {
	var (
		val  int
		serr error
	)
	if err := c.Control(func(fd uintptr) {
		val, serr = windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST)
	}); err != nil {
		return false, err
	}
	return val != 0, serr
}

func getReadBuffer(c syscall.RawConn) (int, error) {
	var (
		val  int
		serr error
	)
	if err := c.Control(func(fd uintptr) {
		val, serr = windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF)
	}); err != nil {
		return 0, err
	}
	return val, serr
}
