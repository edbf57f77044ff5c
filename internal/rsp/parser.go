package rsp

// Parser is a stateful cursor over an input byte slice. It never copies
// its input; every slice it hands out (names, argument payloads, tokens)
// is a sub-range of the original packet bytes, and it never reads past
// the end of that slice — Peek returns a NUL sentinel at EOF instead.
//
// Incoming payload bytes are not un-escaped: a '}' escape sequence reaches
// the name, the argument slice and the checksum exactly as received.
type Parser struct {
	input []byte
	pos   int
}

// NewParser creates a Parser over packet, starting at position zero.
func NewParser(packet []byte) *Parser {
	return &Parser{input: packet}
}

// Peek returns the byte at the current position, or NUL at EOF.
func (p *Parser) Peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}

	return p.input[p.pos]
}

// Advance consumes and returns the byte at the current position, or NUL
// at EOF (the position is still advanced so IsAtEnd becomes permanently
// true).
func (p *Parser) Advance() byte {
	b := p.Peek()
	p.pos++

	return b
}

// IsAtEnd reports whether the cursor has reached the end of input.
func (p *Parser) IsAtEnd() bool {
	return p.pos >= len(p.input)
}

// isTerminator reports whether b ends a token/name: space, comma, '#',
// ';', or ':'.
func isTerminator(b byte) bool {
	switch b {
	case ' ', ',', '#', ';', ':':
		return true
	default:
		return false
	}
}

// Checksum computes (sum of bytes in s, excluding '$' and '#') mod 256,
// stopping early if a '#' is encountered (the checksum of a packet is
// defined over its payload only).
func Checksum(s []byte) byte {
	sum := 0

	for _, b := range s {
		if b == '#' {
			break
		}

		if b == '$' {
			continue
		}

		sum += int(b)
	}

	return byte(sum % 256)
}

// ParsePacket runs the full packet grammar (spec.md §4.3) against the
// Parser's remaining input, consulting reg to resolve a recognized
// command name+args pair into a Commands value. It never panics and never
// returns an error itself: malformed input is reported as a Retransmit
// response with no command, per spec.md §4.3.4.
//
// The returned response is always non-nil. The returned command is nil
// ("absent") unless framing succeeded all the way through checksum
// verification.
func (p *Parser) ParsePacket(reg Registry) (response, command Commands) {
	switch p.Peek() {
	case '-':
		p.Advance()

		return RetransmitLast{}, nil
	case '+':
		p.Advance()

		return AcknowledgeLast{}, nil
	}

	if p.Peek() != '$' {
		return Retransmit{Kind: ErrUnexpectedIntroduction}, nil
	}

	p.Advance() // consume '$'

	// The payload is everything between '$' and '#'. Capture its start
	// right here rather than reconstructing it from name/arg lengths
	// afterward: parseNameAndArgs consumes a separator byte for variadic
	// names that isn't reflected in len(name)+len(args), so a
	// length-based reconstruction undercounts the payload by one byte
	// whenever a variadic name carries arguments.
	payloadStart := p.pos

	name, args, hasArgs := p.parseNameAndArgs()

	if p.Peek() != '#' {
		return Retransmit{Kind: ErrNotTerminated}, nil
	}

	payload := p.input[payloadStart:p.pos]

	p.Advance() // consume '#'

	hiC := p.Advance()
	loC := p.Advance()

	hi, err1 := FromNibble(hiC)
	lo, err2 := FromNibble(loC)

	if err1 != nil || err2 != nil {
		return Retransmit{Kind: ErrInvalidChecksum}, nil
	}

	got := (hi << 4) | lo
	if got != Checksum(payload) {
		return Retransmit{Kind: ErrInvalidChecksum}, nil
	}

	var argPtr []byte
	if hasArgs {
		argPtr = args
	}

	cmd := reg.Build(string(name), argPtr, hasArgs)

	return Acknowledge{}, cmd
}

// parseNameAndArgs implements spec.md §4.3.1: the name is a maximal run of
// non-terminator bytes when the first payload byte is 'v' or 'q',
// otherwise exactly one byte. Per §4.3, a terminator that stopped a
// variable-length name scan is consumed as the single separator byte
// before the argument slice begins; a fixed one-byte name has no
// separator to consume and the argument slice begins immediately after
// it. (Single-byte commands like "m64,4" and "G<hex-block>" carry no
// separator on the wire; this is confirmed by spec.md's worked example
// "$m1fe,4#c9", whose clipped two-byte reply requires the full "1fe" to
// be parsed as the address, not "fe".)
func (p *Parser) parseNameAndArgs() (name, args []byte, hasArgs bool) {
	variadic := p.Peek() == 'v' || p.Peek() == 'q'

	start := p.pos

	if variadic {
		for !p.IsAtEnd() && !isTerminator(p.Peek()) {
			p.Advance()
		}
	} else if !p.IsAtEnd() {
		p.Advance()
	}

	name = p.input[start:p.pos]

	if variadic && p.Peek() != '#' && !p.IsAtEnd() {
		p.Advance() // consume the terminator as the separator
	}

	if p.Peek() == '#' || p.IsAtEnd() {
		return name, nil, false
	}

	argStart := p.pos
	for !p.IsAtEnd() && p.Peek() != '#' {
		p.Advance()
	}

	return name, p.input[argStart:p.pos], true
}

// TokenReader iterates maximal runs of non-terminator bytes out of an
// argument payload, advancing past each trailing terminator. It is the
// auxiliary next_token() of spec.md §4.3.2, used by commands that receive
// "a,b,c"-shaped argument payloads.
type TokenReader struct {
	s   []byte
	pos int
}

// NewTokenReader wraps s for token iteration.
func NewTokenReader(s []byte) *TokenReader {
	return &TokenReader{s: s}
}

// Next returns the next token and true, or (nil, false) at EOF.
func (t *TokenReader) Next() ([]byte, bool) {
	if t.pos >= len(t.s) {
		return nil, false
	}

	start := t.pos
	for t.pos < len(t.s) && !isTerminator(t.s[t.pos]) {
		t.pos++
	}

	tok := t.s[start:t.pos]

	if t.pos < len(t.s) {
		t.pos++ // consume the terminator
	}

	return tok, true
}

// Rest returns the bytes not yet consumed by Next, without tokenizing
// them — used for a command's final, unterminated data segment (e.g. the
// hex payload after "addr,size:" in a write-memory command).
func (t *TokenReader) Rest() []byte {
	return t.s[t.pos:]
}
