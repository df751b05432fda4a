// Package rfcomm wraps native Bluetooth RFCOMM sockets.
//
// Socket forwards every call to a NativeSocket untouched; it only adds the
// protocol check and logging.
package rfcomm

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Protocol is a Bluetooth socket protocol number.
type Protocol int

// Socket protocols
const (
	L2CAP  Protocol = 0
	RFCOMM Protocol = 3
)

func (p Protocol) String() string {
	switch p {
	case L2CAP:
		return "L2CAP"
	case RFCOMM:
		return "RFCOMM"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrUnsupported         = errors.New("rfcomm sockets are not supported on this platform")
)

// Address is a device address plus an RFCOMM channel.
// An empty Addr binds to any local adapter.
type Address struct {
	Addr    string
	Channel int
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d", a.Addr, a.Channel)
}

// NativeSocket is the platform socket a Socket forwards to.
type NativeSocket interface {
	Bind(addr Address) error
	Listen(backlog int) error
	Accept() (NativeSocket, Address, error)
	Connect(addr Address) error
	Send(data []byte) (int, error)
	Recv(n int) ([]byte, error)
	Close() error
	SockName() (Address, error)
	SetTimeout(timeout time.Duration) error
	Timeout() time.Duration
	SetBlocking(blocking bool) error
	Fileno() int
}

// NativeFactory opens the platform socket (can be overridden in tests)
var NativeFactory = func() (NativeSocket, error) {
	return newNativeSocket()
}

// Socket is an RFCOMM socket.
type Socket struct {
	native NativeSocket
	logger *logrus.Logger
}

// NewSocket opens a socket for proto. Only RFCOMM is supported.
func NewSocket(proto Protocol, logger *logrus.Logger) (*Socket, error) {
	if proto != RFCOMM {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, proto)
	}
	if logger == nil {
		logger = logrus.New()
	}

	native, err := NativeFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s socket: %w", proto, err)
	}
	return &Socket{native: native, logger: logger}, nil
}

func (s *Socket) Bind(addr Address) error {
	return s.native.Bind(addr)
}

func (s *Socket) Listen(backlog int) error {
	return s.native.Listen(backlog)
}

// Accept waits for an incoming connection and returns it with the peer address.
func (s *Socket) Accept() (*Socket, Address, error) {
	conn, peer, err := s.native.Accept()
	if err != nil {
		return nil, Address{}, err
	}
	s.logger.WithField("peer", peer.String()).Debug("Accepted RFCOMM connection")
	return &Socket{native: conn, logger: s.logger}, peer, nil
}

func (s *Socket) Connect(addr Address) error {
	s.logger.WithFields(logrus.Fields{
		"address": addr.Addr,
		"channel": addr.Channel,
	}).Debug("Connecting RFCOMM socket...")
	return s.native.Connect(addr)
}

func (s *Socket) Send(data []byte) (int, error) {
	return s.native.Send(data)
}

func (s *Socket) Recv(n int) ([]byte, error) {
	return s.native.Recv(n)
}

func (s *Socket) Close() error {
	return s.native.Close()
}

func (s *Socket) SockName() (Address, error) {
	return s.native.SockName()
}

// SetTimeout sets the send and receive timeout; 0 blocks forever.
func (s *Socket) SetTimeout(timeout time.Duration) error {
	return s.native.SetTimeout(timeout)
}

func (s *Socket) Timeout() time.Duration {
	return s.native.Timeout()
}

// SetBlocking switches the socket between blocking and non-blocking mode.
func (s *Socket) SetBlocking(blocking bool) error {
	return s.native.SetBlocking(blocking)
}

func (s *Socket) Fileno() int {
	return s.native.Fileno()
}

// Dup returns a Socket sharing this socket's native handle.
// Closing either closes both.
func (s *Socket) Dup() *Socket {
	return &Socket{native: s.native, logger: s.logger}
}

// Port returns the channel the socket is bound to.
func (s *Socket) Port() (int, error) {
	addr, err := s.native.SockName()
	if err != nil {
		return 0, err
	}
	return addr.Channel, nil
}

// Read implements io.Reader on top of Recv. An empty receive means the peer
// closed the connection and is reported as io.EOF.
func (s *Socket) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, err := s.native.Recv(len(p))
	n := copy(p, data)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

// Write implements io.Writer, sending until p is drained.
func (s *Socket) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := s.native.Send(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, fmt.Errorf("rfcomm send made no progress after %d bytes", written)
		}
	}
	return written, nil
}

// bdaddr converts a colon-separated address into the little-endian byte order
// the kernel expects. An empty address is BDADDR_ANY.
func bdaddr(addr string) ([6]byte, error) {
	var b [6]byte
	if addr == "" {
		return b, nil
	}
	hw, err := net.ParseMAC(addr)
	if err != nil || len(hw) != 6 {
		return b, fmt.Errorf("invalid bluetooth address %q", addr)
	}
	for i := 0; i < 6; i++ {
		b[i] = hw[5-i]
	}
	return b, nil
}

// formatBDAddr is the inverse of bdaddr.
func formatBDAddr(b [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[5], b[4], b[3], b[2], b[1], b[0])
}
