package link

import (
	"context"
	"crypto/tls"

	quic "github.com/quic-go/quic-go"
)

// QUICListener accepts one reliable bidirectional stream per QUIC
// connection and hands it back as a Link, grounded on the teacher's own
// use of github.com/quic-go/quic-go for its HTTP/3 listener
// (internal/runtime/netstack/http3.go) — reused here as a raw
// stream-oriented transport instead of an HTTP/3 server.
type QUICListener struct {
	ln *quic.Listener
}

// ListenQUIC opens a QUIC listener at addr with tlsConf (QUIC requires
// TLS 1.3; callers must supply a configured certificate).
func ListenQUIC(addr string, tlsConf *tls.Config) (*QUICListener, error) {
	if tlsConf.MinVersion == 0 {
		tlsConf = tlsConf.Clone()
		tlsConf.MinVersion = tls.VersionTLS13
	}

	ln, err := quic.ListenAddr(addr, tlsConf, &quic.Config{})
	if err != nil {
		return nil, err
	}

	return &QUICListener{ln: ln}, nil
}

func (l *QUICListener) Accept() (Link, error) {
	ctx := context.Background()

	conn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}

	return &quicLink{conn: conn, stream: stream}, nil
}

func (l *QUICListener) Close() error { return l.ln.Close() }

func (l *QUICListener) Addr() string { return l.ln.Addr().String() }

// quicLink adapts a quic.Stream plus its owning quic.Conn to Link: closing
// the stream alone only closes the write side, so Close also tears down
// the connection.
type quicLink struct {
	conn   *quic.Conn
	stream *quic.Stream
}

func (q *quicLink) Read(p []byte) (int, error) { return q.stream.Read(p) }

func (q *quicLink) Write(p []byte) (int, error) { return q.stream.Write(p) }

func (q *quicLink) Close() error {
	err := q.stream.Close()
	_ = q.conn.CloseWithError(0, "session closed")

	return err
}
