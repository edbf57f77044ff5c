package gdbserver

import (
	"sync"

	"github.com/kestrelrsp/rspstub/internal/rsp"
)

// registerCount and resetVectorReg match the demonstration MIPS-like
// fixture this package's test suite exercises against: 38 32-bit
// registers, with the program counter at index 37 initialized to the
// MIPS reset vector.
const (
	registerCount  = 38
	resetVectorReg = 37
	resetVector    = 0xBFC00000
	memorySize     = 512
)

// VirtualTarget is a self-contained, in-memory rsp.Target with a fixed
// register file and a fixed memory image, both addressable through the
// rsp commands. Server does not use it: it serves its own register file
// and memory map through serverTarget.
type VirtualTarget struct {
	rsp.BaseTarget

	mu        sync.Mutex
	registers [registerCount]uint32
	memory    [memorySize]byte
}

// NewVirtualTarget returns a VirtualTarget with its program counter set to
// the reset vector and all other registers and memory zeroed.
func NewVirtualTarget() *VirtualTarget {
	t := &VirtualTarget{}
	t.registers[resetVectorReg] = resetVector

	return t
}

func (t *VirtualTarget) Endianness() rsp.Endianness { return rsp.LittleEndian }

func (t *VirtualTarget) ReadRegisters(sink rsp.Sink) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0

	for _, reg := range t.registers {
		for i := 0; i < 4; i++ {
			if err := rsp.WriteByteHex(sink, byte(reg>>(uint(i)*8))); err != nil {
				return n, err
			}

			n += 2
		}
	}

	return n, nil
}

func (t *VirtualTarget) WriteRegisters(rawHex []byte) error {
	if len(rawHex)%8 != 0 || len(rawHex) != registerCount*8 {
		return rsp.ErrCommandError
	}

	var regs [registerCount]uint32

	for i := range regs {
		off := i * 8

		var v uint32

		for b := 0; b < 4; b++ {
			hi, err := rsp.FromNibble(rawHex[off+b*2])
			if err != nil {
				return rsp.ErrCommandError
			}

			lo, err := rsp.FromNibble(rawHex[off+b*2+1])
			if err != nil {
				return rsp.ErrCommandError
			}

			v |= uint32((hi<<4)|lo) << (uint(b) * 8)
		}

		regs[i] = v
	}

	t.mu.Lock()
	t.registers = regs
	t.mu.Unlock()

	return nil
}

func (t *VirtualTarget) ReadMemory(addr, size uint64, sink rsp.Sink) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0

	for i := uint64(0); i < size; i++ {
		off := addr + i
		if off >= memorySize {
			break
		}

		if err := rsp.WriteByteHex(sink, t.memory[off]); err != nil {
			return n, err
		}

		n += 2
	}

	return n, nil
}

func (t *VirtualTarget) WriteMemory(addr uint64, rawHex []byte) error {
	if len(rawHex)%2 != 0 {
		return rsp.ErrLengthMismatch
	}

	if addr+uint64(len(rawHex)/2) > memorySize {
		return rsp.ErrAddressOutOfRange
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 0; i+2 <= len(rawHex); i += 2 {
		hi, err := rsp.FromNibble(rawHex[i])
		if err != nil {
			return rsp.ErrBadNumber
		}

		lo, err := rsp.FromNibble(rawHex[i+1])
		if err != nil {
			return rsp.ErrBadNumber
		}

		t.memory[addr+uint64(i/2)] = (hi << 4) | lo
	}

	return nil
}
