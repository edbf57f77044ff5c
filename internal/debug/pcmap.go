package debug

import (
	"sort"
)

// PCRange represents a contiguous pseudo-PC range owned by a single
// function: one debug.Position per line-sized step inside it, in
// appearance order.
type PCRange struct {
	Low  uint64
	High uint64
	Line []Position
}

// PCMap maps pseudo addresses to source Positions based on ProgramDebugInfo.
type PCMap struct {
	Ranges []PCRange
}

// linePosition converts a LineEntry into a debug.Position. LineEntry carries
// no byte offset of its own, so Offset is left at zero, which IsValid still
// accepts.
func linePosition(le LineEntry) Position {
	return Position{Filename: le.File, Line: le.Line, Column: le.Column}
}

// BuildPCMap builds a PC map from ProgramDebugInfo: functions are laid out
// back to back from address 0 in module-name then function-name order, 4
// bytes per line entry, with a minimum size of 4 bytes per function.
func BuildPCMap(info ProgramDebugInfo) *PCMap {
	m := &PCMap{}

	mods := make([]ModuleDebugInfo, len(info.Modules))
	copy(mods, info.Modules)
	sort.Slice(mods, func(i, j int) bool { return mods[i].ModuleName < mods[j].ModuleName })

	pc := uint64(0)

	for _, md := range mods {
		fns := make([]FunctionInfo, len(md.Functions))
		copy(fns, md.Functions)
		sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })

		for _, fn := range fns {
			positions := make([]Position, len(fn.Lines))
			for i, le := range fn.Lines {
				positions[i] = linePosition(le)
			}

			steps := len(positions)
			if steps == 0 {
				steps = 1
			}

			size := uint64(steps * 4)
			r := PCRange{Low: pc, High: pc + size, Line: positions}
			m.Ranges = append(m.Ranges, r)
			pc += size
		}
	}

	return m
}

// positionAt resolves addr (already known to fall within r) to the Position
// for its 4-byte step, clamping to the last recorded step if the range's
// tail steps carry no distinct line entries of their own. It returns the
// zero Position, which IsValid reports false for, when r carries no line
// data at all.
func (r PCRange) positionAt(addr uint64) Position {
	if len(r.Line) == 0 {
		return Position{}
	}

	idx := int((addr - r.Low) / 4)
	if idx >= len(r.Line) {
		idx = len(r.Line) - 1
	}

	return r.Line[idx]
}

// AddrToLine resolves a pseudo address to a Position using a constant 4-byte
// step per line entry within the owning function range. ok reports whether
// addr falls within any known range at all; pos.IsValid reports whether
// that range actually carries line data for the step addr falls on.
func (m *PCMap) AddrToLine(addr uint64) (pos Position, ok bool) {
	for _, r := range m.Ranges {
		if addr < r.Low || addr >= r.High {
			continue
		}

		return r.positionAt(addr), true
	}

	return Position{}, false
}
