package rsp

// needsEscape reports whether b is a payload byte that must be escaped on
// emission: preceded by '}' and XORed with 0x20.
func needsEscape(b byte) bool {
	switch b {
	case '}', '$', '#', '*':
		return true
	default:
		return false
	}
}

// WriteForce appends b to sink without applying the escape rule. Used for
// the framing bytes '$' and '#' themselves, which the Sink's checksum
// rule already excludes from accumulation.
func WriteForce(sink Sink, b byte) error {
	_, err := sink.Write(b)

	return err
}

// WriteEscaped appends b to sink, applying the escape rule when b is one
// of '{ "}", "$", "#", "*" }': emit '}' then b^0x20.
func WriteEscaped(sink Sink, b byte) error {
	if !needsEscape(b) {
		return WriteForce(sink, b)
	}

	if err := WriteForce(sink, '}'); err != nil {
		return err
	}

	return WriteForce(sink, b^0x20)
}

// WriteAllEscaped applies WriteEscaped to every byte of data, in order.
func WriteAllEscaped(sink Sink, data []byte) error {
	for _, b := range data {
		if err := WriteEscaped(sink, b); err != nil {
			return err
		}
	}

	return nil
}

// StartFrame emits the unescaped, unchecksummed '$' that opens a framed
// reply.
func StartFrame(sink Sink) error {
	return WriteForce(sink, '$')
}

// EndFrame emits the unescaped '#' that closes a framed reply, followed by
// the two hex digits of the running checksum mod 256.
func EndFrame(sink Sink) error {
	if err := WriteForce(sink, '#'); err != nil {
		return err
	}

	return WriteByteHex(sink, byte(sink.Checksum()%256))
}

// WriteOK emits the literal ack payload "OK".
func WriteOK(sink Sink) error {
	return WriteAllEscaped(sink, []byte("OK"))
}

// WriteErrorReply emits "E" followed by a two-digit hex error code. Per
// spec, the current mapping from ErrorKind to wire code is a documented
// extension point left undefined by the observed behavior; the default
// emits the placeholder code 0x00 for every kind.
func WriteErrorReply(sink Sink, _ ErrorKind) error {
	if err := WriteForce(sink, 'E'); err != nil {
		return err
	}

	return WriteByteHex(sink, 0x00)
}

// WriteFramed writes a complete framed reply: '$' + escape(payload) + '#'
// + checksum, resetting sink first so the checksum reflects only this
// reply.
func WriteFramed(sink Sink, payload []byte) (int, error) {
	sink.Reset()

	if err := StartFrame(sink); err != nil {
		return sink.Pos(), err
	}

	if err := WriteAllEscaped(sink, payload); err != nil {
		return sink.Pos(), err
	}

	if err := EndFrame(sink); err != nil {
		return sink.Pos(), err
	}

	return sink.Pos(), nil
}
