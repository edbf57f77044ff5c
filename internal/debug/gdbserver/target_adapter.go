package gdbserver

import (
	"github.com/kestrelrsp/rspstub/internal/rsp"
)

// serverTarget adapts Server's register file and sparse memory map to the
// rsp.Target capability interface, so the required-minimum letter commands
// (?, g, G, m, M) can be served by the shared core instead of duplicating
// their framing here.
type serverTarget struct {
	s *Server
}

func (t *serverTarget) Reason() []byte {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	return []byte(t.s.makeStopReplyLocked())
}

func (t *serverTarget) ReadRegisters(sink rsp.Sink) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	t.s.regs[0] = t.s.pc

	n := 0

	for _, v := range t.s.regs {
		for i := 0; i < 8; i++ {
			if err := rsp.WriteByteHex(sink, byte(v>>(uint(i)*8))); err != nil {
				return n, err
			}

			n += 2
		}
	}

	return n, nil
}

func (t *serverTarget) WriteRegisters(rawHex []byte) error {
	want := len(t.s.regs) * 8 * 2
	if len(rawHex) != want {
		return rsp.ErrCommandError
	}

	var regs [17]uint64

	for i := range regs {
		var v uint64

		for b := 0; b < 8; b++ {
			off := i*16 + b*2

			hi, err := rsp.FromNibble(rawHex[off])
			if err != nil {
				return rsp.ErrCommandError
			}

			lo, err := rsp.FromNibble(rawHex[off+1])
			if err != nil {
				return rsp.ErrCommandError
			}

			v |= uint64((hi<<4)|lo) << (uint(b) * 8)
		}

		regs[i] = v
	}

	t.s.mu.Lock()
	t.s.regs = regs
	t.s.pc = regs[0]
	t.s.mu.Unlock()

	return nil
}

func (t *serverTarget) ReadMemory(addr, size uint64, sink rsp.Sink) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	n := 0

	for i := uint64(0); i < size; i++ {
		if err := rsp.WriteByteHex(sink, t.s.mem[addr+i]); err != nil {
			return n, err
		}

		n += 2
	}

	return n, nil
}

func (t *serverTarget) WriteMemory(addr uint64, rawHex []byte) error {
	if len(rawHex)%2 != 0 {
		return rsp.ErrLengthMismatch
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for i := 0; i+2 <= len(rawHex); i += 2 {
		hi, err := rsp.FromNibble(rawHex[i])
		if err != nil {
			return rsp.ErrBadNumber
		}

		lo, err := rsp.FromNibble(rawHex[i+1])
		if err != nil {
			return rsp.ErrBadNumber
		}

		t.s.mem[addr+uint64(i/2)] = (hi << 4) | lo
	}

	return nil
}

func (t *serverTarget) Endianness() rsp.Endianness { return rsp.LittleEndian }
