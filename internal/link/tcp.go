package link

import "net"

// TCPListener wraps a net.Listener as a link.Listener, grounded on the
// teacher's cmd/gdb-rsp-server main's net.Listen("tcp", addr) + Accept loop.
type TCPListener struct {
	ln net.Listener
}

// ListenTCP opens a TCP listener at addr.
func ListenTCP(addr string) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &TCPListener{ln: ln}, nil
}

func (l *TCPListener) Accept() (Link, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (l *TCPListener) Close() error { return l.ln.Close() }

func (l *TCPListener) Addr() string { return l.ln.Addr().String() }
