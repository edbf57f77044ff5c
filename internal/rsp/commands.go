package rsp

// Commands is the closed tagged union of operations a parsed packet can
// resolve to. It is sealed (the unexported isCommands method) so the set of
// variants cannot grow outside this package, matching spec.md's "closed
// tagged union" design: the registry is the extension point, not new
// Commands variants.
type Commands interface {
	// Reply writes this command's wire response into sink, using target
	// for any data the response needs, and returns the number of bytes
	// written and any error. A non-nil error other than
	// ErrBufferFilledInterrupt means no (or only partial) framing was
	// written; WriteCommandError lets a caller emit the standard $E00#cs
	// reply for it.
	Reply(sink Sink, target Target) (int, error)
	isCommands()
}

type sealed struct{}

func (sealed) isCommands() {}

// NoCommand, Unsupported, RetransmitLast, and AcknowledgeLast carry no
// reply of their own; they exist so ParsePacket has a command value to
// return when none was built from the packet bytes or no framing error
// diagnosis is available.

type NoCommand struct{ sealed }

func (NoCommand) Reply(Sink, Target) (int, error) { return 0, nil }

type Unsupported struct{ sealed }

func (Unsupported) Reply(Sink, Target) (int, error) { return 0, nil }

type RetransmitLast struct{ sealed }

func (RetransmitLast) Reply(Sink, Target) (int, error) { return 0, nil }

type AcknowledgeLast struct{ sealed }

func (AcknowledgeLast) Reply(Sink, Target) (int, error) { return 0, nil }

// Acknowledge emits a single unframed '+'.
type Acknowledge struct{ sealed }

func (Acknowledge) Reply(sink Sink, _ Target) (int, error) {
	sink.Reset()

	if _, err := sink.Write('+'); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}

// Retransmit emits a single unframed '-'. Kind records why, for callers
// that want to log or count framing failures by cause; it is never placed
// on the wire (a retransmit request carries no payload).
type Retransmit struct {
	sealed
	Kind ErrorKind
}

func (c Retransmit) Reply(sink Sink, _ Target) (int, error) {
	sink.Reset()

	if _, err := sink.Write('-'); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}

// NotImplemented emits the empty framed packet "$#00".
type NotImplemented struct{ sealed }

func (NotImplemented) Reply(sink Sink, _ Target) (int, error) {
	return WriteFramed(sink, nil)
}

// Reason reports the halt reason: "$" + target.Reason() + "#" + checksum.
type Reason struct{ sealed }

func (Reason) Reply(sink Sink, target Target) (int, error) {
	return WriteFramed(sink, target.Reason())
}

// ReadRegisters streams the target's register block as hex ASCII, framed.
type ReadRegisters struct{ sealed }

func (ReadRegisters) Reply(sink Sink, target Target) (int, error) {
	sink.Reset()

	if err := StartFrame(sink); err != nil {
		return sink.Pos(), err
	}

	if _, err := target.ReadRegisters(sink); err != nil {
		return sink.Pos(), err
	}

	if err := EndFrame(sink); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}

// WriteRegisters applies a hex-encoded register block; replies $OK#cs on
// success.
type WriteRegisters struct {
	sealed
	Args []byte
}

func (c WriteRegisters) Reply(sink Sink, target Target) (int, error) {
	if err := target.WriteRegisters(c.Args); err != nil {
		return 0, ErrCommandError
	}

	sink.Reset()

	if err := StartFrame(sink); err != nil {
		return sink.Pos(), err
	}

	if err := WriteOK(sink); err != nil {
		return sink.Pos(), err
	}

	if err := EndFrame(sink); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}

// ReadMemory parses "addr,size" from Args and replies with size hex-ASCII
// bytes read from the target starting at addr, clipped to the target's
// accessible range.
type ReadMemory struct {
	sealed
	Args []byte
}

func (c ReadMemory) Reply(sink Sink, target Target) (int, error) {
	_, addr, size, err := parseAddrSizeTokens(c.Args)
	if err != nil {
		return 0, err
	}

	sink.Reset()

	if err := StartFrame(sink); err != nil {
		return sink.Pos(), err
	}

	if _, err := target.ReadMemory(addr, size, sink); err != nil {
		return sink.Pos(), err
	}

	if err := EndFrame(sink); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}

// WriteMemory parses "addr,size:bytes" from Args, requires len(bytes)/2 ==
// size, and replies $OK#cs on success.
type WriteMemory struct {
	sealed
	Args []byte
}

func (c WriteMemory) Reply(sink Sink, target Target) (int, error) {
	tr, addr, size, err := parseAddrSizeTokens(c.Args)
	if err != nil {
		return 0, err
	}

	data := tr.Rest()
	if len(data)%2 != 0 || uint64(len(data)/2) != size {
		return 0, ErrLengthMismatch
	}

	if err := target.WriteMemory(addr, data); err != nil {
		return 0, ErrCommandError
	}

	sink.Reset()

	if err := StartFrame(sink); err != nil {
		return sink.Pos(), err
	}

	if err := WriteOK(sink); err != nil {
		return sink.Pos(), err
	}

	if err := EndFrame(sink); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}

// parseAddrSizeTokens tokenizes "addr,size" out of args, returning the
// TokenReader positioned just past the size token so callers with a
// trailing data segment (WriteMemory) can read the remainder. Missing
// tokens fail with ErrInsufficientArguments; non-hex tokens fail with
// ErrBadNumber.
func parseAddrSizeTokens(args []byte) (tr *TokenReader, addr, size uint64, err error) {
	tr = NewTokenReader(args)

	addrTok, ok := tr.Next()
	if !ok {
		return tr, 0, 0, ErrInsufficientArguments
	}

	sizeTok, ok := tr.Next()
	if !ok {
		return tr, 0, 0, ErrInsufficientArguments
	}

	addr, err = ParseHexUnbounded(addrTok)
	if err != nil {
		return tr, 0, 0, ErrBadNumber
	}

	size, err = ParseHexUnbounded(sizeTok)
	if err != nil {
		return tr, 0, 0, ErrBadNumber
	}

	return tr, addr, size, nil
}

// WriteCommandError writes the caller's standard policy reply for a
// command-level error: a framed "$E<hh>#<cs>". Per spec.md's documented
// open question, every ErrorKind currently maps to the placeholder code
// 00; a production error-code mapping is left as an extension point.
func WriteCommandError(sink Sink, kind ErrorKind) (int, error) {
	sink.Reset()

	if err := StartFrame(sink); err != nil {
		return sink.Pos(), err
	}

	if err := WriteErrorReply(sink, kind); err != nil {
		return sink.Pos(), err
	}

	if err := EndFrame(sink); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}
