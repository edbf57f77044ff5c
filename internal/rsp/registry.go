package rsp

// Registry resolves a parsed command name and argument payload into a
// Commands value. It is the open-ended extension point spec.md describes:
// new command letters are added by supplying a different Registry, not by
// growing the sealed Commands union.
type Registry interface {
	// Build returns the Commands value for name given its raw argument
	// payload (nil and hasArgs=false when the packet carried no args at
	// all, as opposed to an empty args slice). An unrecognized name
	// yields NotImplemented.
	Build(name string, args []byte, hasArgs bool) Commands
}

// DefaultRegistry dispatches the required minimum command set spec.md
// names: halt-reason query, register block read/write, and memory
// read/write. Anything else resolves to NotImplemented, leaving room for
// an embedder to wrap or replace this Registry with one that recognizes
// more letters.
type DefaultRegistry struct{}

func (DefaultRegistry) Build(name string, args []byte, hasArgs bool) Commands {
	switch name {
	case "?":
		return Reason{}
	case "g":
		return ReadRegisters{}
	case "G":
		if !hasArgs {
			return Unsupported{}
		}

		return WriteRegisters{Args: args}
	case "m":
		if !hasArgs {
			return Unsupported{}
		}

		return ReadMemory{Args: args}
	case "M":
		if !hasArgs {
			return Unsupported{}
		}

		return WriteMemory{Args: args}
	default:
		return NotImplemented{}
	}
}
