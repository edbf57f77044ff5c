package rsp

// Endianness describes the byte order a Target serializes its register
// and memory blocks in.
type Endianness int

const (
	BigEndian Endianness = iota
	LittleEndian
)

// Target is the capability bundle an embedder supplies to back command
// execution. Methods that mutate target state (WriteRegisters,
// WriteMemory) are only ever called with exclusive access; all others may
// be called concurrently with each other but never with a mutator.
//
// Go has no default interface methods, so BaseTarget provides the
// no-op/empty defaults spec.md describes and embedders embed it to pick
// up only the methods they don't override.
type Target interface {
	// Reason returns the halt-reason token, e.g. "S05" for SIGTRAP.
	Reason() []byte
	// ReadRegisters emits hex ASCII of all architectural registers, in
	// architecture-defined order and endianness, returning the number of
	// bytes written.
	ReadRegisters(sink Sink) (int, error)
	// WriteRegisters parses and applies raw hex register data, failing
	// with ErrCommandError on length mismatch or malformed nibble.
	WriteRegisters(rawHex []byte) error
	// ReadMemory emits size bytes from addr as hex ASCII pairs, clipped
	// to the target's accessible range, returning the number of bytes
	// written (which may be less than size if clipped).
	ReadMemory(addr, size uint64, sink Sink) (int, error)
	// WriteMemory parses hex pairs and stores them starting at addr,
	// failing with ErrAddressOutOfRange if the range escapes target
	// memory.
	WriteMemory(addr uint64, rawHex []byte) error
	// Endianness reports the target's register/memory byte order.
	Endianness() Endianness
}

// BaseTarget implements Target with spec-mandated defaults: empty halt
// reason is "S05", registers/memory reads emit nothing, writes succeed
// trivially, and the default endianness is big-endian. Embedders embed
// BaseTarget and override only the methods they support.
type BaseTarget struct{}

func (BaseTarget) Reason() []byte { return []byte("S05") }

func (BaseTarget) ReadRegisters(Sink) (int, error) { return 0, nil }

func (BaseTarget) WriteRegisters([]byte) error { return nil }

func (BaseTarget) ReadMemory(uint64, uint64, Sink) (int, error) { return 0, nil }

func (BaseTarget) WriteMemory(uint64, []byte) error { return nil }

func (BaseTarget) Endianness() Endianness { return BigEndian }
