package link

import (
	"errors"

	"go.bug.st/serial"
)

// ErrSerialSessionTaken is returned by a second Accept call on a
// SerialListener: a serial line carries exactly one session at a time,
// unlike TCP or QUIC which can multiplex new connections.
var ErrSerialSessionTaken = errors.New("link: serial port already has an active session")

// SerialConfig mirrors the flags other_examples/667bb35e_footgunz-mbpcap's
// main.go exposes for opening a line: baud rate, data bits, parity, and
// stop bits.
type SerialConfig struct {
	Baud     int
	DataBits int
	Parity   string
	StopBits int
}

// ParseParity maps the CLI parity names the teacher's serial tooling uses
// onto go.bug.st/serial's Parity enum.
func ParseParity(s string) (serial.Parity, error) {
	switch s {
	case "", "none":
		return serial.NoParity, nil
	case "odd":
		return serial.OddParity, nil
	case "even":
		return serial.EvenParity, nil
	case "mark":
		return serial.MarkParity, nil
	case "space":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, errors.New("invalid parity: use none, odd, even, mark, or space")
	}
}

// ParseStopBits maps 1 or 2 stop bits onto go.bug.st/serial's StopBits enum.
func ParseStopBits(n int) (serial.StopBits, error) {
	switch n {
	case 0, 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	default:
		return serial.OneStopBit, errors.New("invalid stop bits: use 1 or 2")
	}
}

// SerialListener adapts a single opened serial.Port to the Listener
// interface: its one Accept call hands back the port itself as a Link,
// and every call after that fails since the physical line supports only
// one peer at a time.
type SerialListener struct {
	portName string
	port     serial.Port
	taken    bool
}

// OpenSerial opens portName with cfg and wraps it as a SerialListener.
func OpenSerial(portName string, cfg SerialConfig) (*SerialListener, error) {
	parity, err := ParseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}

	stopBits, err := ParseStopBits(cfg.StopBits)
	if err != nil {
		return nil, err
	}

	databits := cfg.DataBits
	if databits == 0 {
		databits = 8
	}

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: databits,
		Parity:   parity,
		StopBits: stopBits,
	})
	if err != nil {
		return nil, err
	}

	return &SerialListener{portName: portName, port: port}, nil
}

func (l *SerialListener) Accept() (Link, error) {
	if l.taken {
		return nil, ErrSerialSessionTaken
	}

	l.taken = true

	return l.port, nil
}

func (l *SerialListener) Close() error { return l.port.Close() }

func (l *SerialListener) Addr() string { return l.portName }
