package rsp

import "testing"

func TestFixedSinkWritesAndTracksChecksum(t *testing.T) {
	buf := make([]byte, 8)
	s := NewFixedSink(buf, nil)

	for _, b := range []byte("abc") {
		if _, err := s.Write(b); err != nil {
			t.Fatalf("Write(%q): %v", b, err)
		}
	}

	if s.Pos() != 3 {
		t.Errorf("Pos() = %d, want 3", s.Pos())
	}

	want := uint32('a') + uint32('b') + uint32('c')
	if s.Checksum() != want {
		t.Errorf("Checksum() = %d, want %d", s.Checksum(), want)
	}
}

func TestFixedSinkExcludesFramingBytesFromChecksum(t *testing.T) {
	buf := make([]byte, 8)
	s := NewFixedSink(buf, nil)

	for _, b := range []byte("$a#") {
		if _, err := s.Write(b); err != nil {
			t.Fatalf("Write(%q): %v", b, err)
		}
	}

	if s.Checksum() != uint32('a') {
		t.Errorf("Checksum() = %d, want %d", s.Checksum(), 'a')
	}
}

func TestFixedSinkResetClearsPosAndChecksum(t *testing.T) {
	buf := make([]byte, 4)
	s := NewFixedSink(buf, nil)

	_, _ = s.Write('x')
	s.Reset()

	if s.Pos() != 0 {
		t.Errorf("Pos() after Reset = %d, want 0", s.Pos())
	}

	if s.Checksum() != 0 {
		t.Errorf("Checksum() after Reset = %d, want 0", s.Checksum())
	}
}

func TestFixedSinkOverflowWithoutDrainFails(t *testing.T) {
	buf := make([]byte, 2)
	s := NewFixedSink(buf, nil)

	_, _ = s.Write('a')
	_, _ = s.Write('b')

	if _, err := s.Write('c'); err != ErrBufferFilledInterrupt {
		t.Errorf("got %v, want ErrBufferFilledInterrupt", err)
	}
}

func TestFixedSinkDrainAllowsContinuedWriteAndKeepsChecksum(t *testing.T) {
	buf := make([]byte, 2)

	var drained []byte

	s := NewFixedSink(buf, func(written []byte) bool {
		drained = append(drained, written...)

		return true
	})

	_, _ = s.Write('a')
	_, _ = s.Write('b')

	if _, err := s.Write('c'); err != nil {
		t.Fatalf("Write after drain: %v", err)
	}

	if string(drained) != "ab" {
		t.Errorf("drained = %q, want %q", drained, "ab")
	}

	if s.Pos() != 1 {
		t.Errorf("Pos() after drain+write = %d, want 1", s.Pos())
	}

	want := uint32('a') + uint32('b') + uint32('c')
	if s.Checksum() != want {
		t.Errorf("Checksum() after drain = %d, want %d (drain must not clear it)", s.Checksum(), want)
	}
}

func TestFixedSinkDrainDecliningFails(t *testing.T) {
	buf := make([]byte, 2)
	s := NewFixedSink(buf, func([]byte) bool { return false })

	_, _ = s.Write('a')
	_, _ = s.Write('b')

	if _, err := s.Write('c'); err != ErrBufferFilledInterrupt {
		t.Errorf("got %v, want ErrBufferFilledInterrupt", err)
	}
}
