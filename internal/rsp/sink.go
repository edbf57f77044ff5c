package rsp

// DrainFunc transmits the bytes written so far and reports whether the
// Sink may reset its cursor and keep accepting writes. It is called
// synchronously, on the caller's goroutine, and may block on real I/O —
// the core never spawns goroutines or yields on its own.
type DrainFunc func(written []byte) bool

// Sink is the capability a ResponseWriter and the Commands it drives
// write bytes into. The concrete caller-supplied implementation may be a
// fixed array (FixedSink) or any type wrapping a bounded buffer; when
// full, it consults its overflow policy to decide whether to drain and
// continue or fail with ErrBufferFilledInterrupt.
type Sink interface {
	// Write appends one byte, returning the number of bytes written (0 or
	// 1) and any error. The running checksum is updated by (sum + byte)
	// mod 2^32, except when byte is '$' or '#', which are excluded from
	// checksum accumulation.
	Write(b byte) (int, error)
	// Reset rewinds the cursor to zero and clears the running checksum.
	Reset()
	// Pos reports the current write cursor.
	Pos() int
	// Len reports the sink's capacity.
	Len() int
	// Checksum reports the running checksum accumulated since the last
	// Reset (drains do not clear it).
	Checksum() uint32
}

// FixedSink is a Sink backed by a caller-supplied fixed-size byte buffer.
// When the buffer fills, Drain (if set) is consulted: if it returns true
// the cursor resets to zero (the checksum survives the reset) and writing
// continues into the same backing array; if it returns false, or Drain is
// nil, Write fails with ErrBufferFilledInterrupt.
type FixedSink struct {
	Drain    DrainFunc
	buf      []byte
	pos      int
	checksum uint32
}

// NewFixedSink wraps buf as a Sink. buf is never reallocated; drain, if
// non-nil, is invoked when buf fills.
func NewFixedSink(buf []byte, drain DrainFunc) *FixedSink {
	return &FixedSink{buf: buf, Drain: drain}
}

func (s *FixedSink) Write(b byte) (int, error) {
	if s.pos >= len(s.buf) {
		if s.Drain == nil || !s.Drain(s.buf[:s.pos]) {
			return 0, ErrBufferFilledInterrupt
		}

		s.pos = 0
	}

	s.buf[s.pos] = b
	s.pos++

	if b != '$' && b != '#' {
		s.checksum += uint32(b)
	}

	return 1, nil
}

func (s *FixedSink) Reset() {
	s.pos = 0
	s.checksum = 0
}

func (s *FixedSink) Pos() int { return s.pos }

func (s *FixedSink) Len() int { return len(s.buf) }

func (s *FixedSink) Checksum() uint32 { return s.checksum }

// Bytes returns the bytes currently held in the buffer: those written
// since the last Reset or the last drain, whichever came later.
func (s *FixedSink) Bytes() []byte { return s.buf[:s.pos] }
