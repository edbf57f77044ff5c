package debug

import (
	"encoding/json"
	"sort"
)

// Frame represents a single stack frame in a pseudo execution context. Range
// is the Span covering every line Position recorded for the owning PCRange
// (zero-value, and so invalid per Span.IsValid, when the frame has no line
// table of its own to bound).
type Frame struct {
	Function string   `json:"function"`
	Position Position `json:"position"`
	Range    Span     `json:"range,omitempty"`
	PC       uint64   `json:"pc"`
}

// StackTrace is a collection of frames ordered from top (current) to bottom (older).
type StackTrace struct {
	Frames []Frame `json:"frames"`
}

// span builds the Span covering r's recorded line Positions, or the zero
// Span (invalid) when r carries none.
func (r PCRange) span() Span {
	if len(r.Line) == 0 {
		return Span{}
	}

	return Span{Start: r.Line[0], End: r.Line[len(r.Line)-1]}
}

// BuildStackTrace constructs a best-effort stack trace from the current pc using the PCMap and ProgramDebugInfo.
// Since the pseudo-execution model does not record real call stacks at this
// layer, this produces at least the current frame and, when possible, a
// small context of neighboring function boundaries.
func BuildStackTrace(pcmap *PCMap, info ProgramDebugInfo, pc uint64) StackTrace {
	// Build deterministic module/function ordering like PCMap.
	mods := make([]ModuleDebugInfo, len(info.Modules))
	copy(mods, info.Modules)
	sort.Slice(mods, func(i, j int) bool { return mods[i].ModuleName < mods[j].ModuleName })

	var (
		curFn    string
		curPos   Position
		curRange Span
		curIdx   = -1
	)

	for i, r := range pcmap.Ranges {
		if pc < r.Low || pc >= r.High {
			continue
		}

		curIdx = i
		curPos = r.positionAt(pc)
		curRange = r.span()

		// Map the owning range back to a function name by replaying the
		// same accumulation BuildPCMap used to lay out ranges.
		var pcCursor uint64

	findFn:
		for _, md := range mods {
			fns := make([]FunctionInfo, len(md.Functions))
			copy(fns, md.Functions)
			sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })

			for _, fn := range fns {
				steps := len(fn.Lines)
				if steps == 0 {
					steps = 1
				}

				low := pcCursor
				high := pcCursor + uint64(steps*4)

				if pc >= low && pc < high {
					curFn = fn.Name

					break findFn
				}

				pcCursor = high
			}
		}

		break
	}

	frames := make([]Frame, 0, 3)
	frames = append(frames, Frame{PC: pc, Function: curFn, Position: curPos, Range: curRange})

	if curIdx > 0 {
		prev := pcmap.Ranges[curIdx-1]
		frames = append(frames, Frame{PC: prev.High - 4, Position: prev.positionAt(prev.High - 4)})
	}

	if curIdx >= 0 && curIdx+1 < len(pcmap.Ranges) {
		next := pcmap.Ranges[curIdx+1]
		frames = append(frames, Frame{PC: next.Low, Position: next.positionAt(next.Low)})
	}

	return StackTrace{Frames: frames}
}

// EncodeStackTraceJSON encodes the stack trace into JSON bytes.
func EncodeStackTraceJSON(st StackTrace) []byte {
	b, _ := json.Marshal(st)

	return b
}
