//go:build linux

package rfcomm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

type linuxSocket struct {
	fd int

	mu      sync.Mutex
	timeout time.Duration
}

func newNativeSocket() (NativeSocket, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, err
	}
	return &linuxSocket{fd: fd}, nil
}

func sockaddr(addr Address) (*unix.SockaddrRFCOMM, error) {
	if addr.Channel < 0 || addr.Channel > 30 {
		return nil, fmt.Errorf("invalid rfcomm channel %d", addr.Channel)
	}
	b, err := bdaddr(addr.Addr)
	if err != nil {
		return nil, err
	}
	return &unix.SockaddrRFCOMM{Addr: b, Channel: uint8(addr.Channel)}, nil
}

func (s *linuxSocket) Bind(addr Address) error {
	sa, err := sockaddr(addr)
	if err != nil {
		return err
	}
	return unix.Bind(s.fd, sa)
}

func (s *linuxSocket) Listen(backlog int) error {
	return unix.Listen(s.fd, backlog)
}

func (s *linuxSocket) Accept() (NativeSocket, Address, error) {
	nfd, sa, err := unix.Accept(s.fd)
	if err != nil {
		return nil, Address{}, err
	}
	peer := Address{}
	if rc, ok := sa.(*unix.SockaddrRFCOMM); ok {
		peer = Address{Addr: formatBDAddr(rc.Addr), Channel: int(rc.Channel)}
	}
	return &linuxSocket{fd: nfd}, peer, nil
}

func (s *linuxSocket) Connect(addr Address) error {
	sa, err := sockaddr(addr)
	if err != nil {
		return err
	}
	return unix.Connect(s.fd, sa)
}

func (s *linuxSocket) Send(data []byte) (int, error) {
	return unix.Write(s.fd, data)
}

func (s *linuxSocket) Recv(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := unix.Read(s.fd, buf)
	if err != nil {
		return nil, err
	}
	return buf[:read], nil
}

// Close shuts the connection down first so a Recv blocked on another
// goroutine returns; closing the fd alone does not wake it.
func (s *linuxSocket) Close() error {
	if err := unix.Shutdown(s.fd, unix.SHUT_RDWR); err != nil && !errors.Is(err, unix.ENOTCONN) {
		return errors.Join(err, unix.Close(s.fd))
	}
	return unix.Close(s.fd)
}

func (s *linuxSocket) SockName() (Address, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return Address{}, err
	}
	rc, ok := sa.(*unix.SockaddrRFCOMM)
	if !ok {
		return Address{}, fmt.Errorf("unexpected socket address type %T", sa)
	}
	return Address{Addr: formatBDAddr(rc.Addr), Channel: int(rc.Channel)}, nil
}

func (s *linuxSocket) SetTimeout(timeout time.Duration) error {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return err
	}
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		return err
	}

	s.mu.Lock()
	s.timeout = timeout
	s.mu.Unlock()
	return nil
}

func (s *linuxSocket) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

func (s *linuxSocket) SetBlocking(blocking bool) error {
	return unix.SetNonblock(s.fd, !blocking)
}

func (s *linuxSocket) Fileno() int {
	return s.fd
}
