// Package debug holds the plain data model a stub server loads to answer
// source-level queries (locals, stack unwinding, line tables) and the
// address-indexed helpers built on top of it.
package debug

import (
	"encoding/json"
	"time"
)

// Position is a single point in source: a file, a 1-based line/column, and
// a 0-based byte offset.
type Position struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Offset   int    `json:"offset"`
}

// IsValid reports whether p carries a real location rather than a
// zero-valued placeholder.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// Span is a half-open range between two Positions in the same file.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsValid reports whether both ends of the span are valid and ordered.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() &&
		s.Start.Filename == s.End.Filename &&
		s.Start.Offset <= s.End.Offset
}

// LineEntry maps an address (abstract) to a source line.
type LineEntry struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// VariableInfo describes a variable with scope and type.
type VariableInfo struct {
	TypeMeta    *TypeMeta `json:"type_meta,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	AddressBase string    `json:"address_base,omitempty"`
	Span        Span      `json:"span"`
	FrameOffset int64     `json:"frame_offset,omitempty"`
	IsParam     bool      `json:"is_param"`
	IsCaptured  bool      `json:"is_captured"`
}

// FunctionInfo describes a function for debug.
type FunctionInfo struct {
	ReturnType *TypeMeta      `json:"return_type,omitempty"`
	Name       string         `json:"name"`
	Lines      []LineEntry    `json:"lines"`
	Variables  []VariableInfo `json:"variables"`
	ParamTypes []TypeMeta     `json:"param_types,omitempty"`
	Span       Span           `json:"span"`
}

// ModuleDebugInfo aggregates module-level debug info.
type ModuleDebugInfo struct {
	ModuleName string         `json:"module_name"`
	Functions  []FunctionInfo `json:"functions"`
}

// ProgramDebugInfo is the top-level debug info artifact a stub server
// loads at startup (and reloads on change, see internal/watch) to answer
// locals/stack queries without any compiler in the loop.
type ProgramDebugInfo struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Modules     []ModuleDebugInfo `json:"modules"`
}

// TypeMeta provides a lightweight, JSON-serializable snapshot of a type.
type TypeMeta struct {
	AliasOf    *TypeMeta   `json:"alias_of,omitempty"`
	Kind       string      `json:"kind"`
	Name       string      `json:"name"`
	Parameters []TypeMeta  `json:"parameters,omitempty"`
	Fields     []TypeField `json:"fields,omitempty"`
	Qualifiers []string    `json:"qualifiers,omitempty"`
	Size       int64       `json:"size"`
	Alignment  int64       `json:"alignment"`
}

// TypeField describes a struct/record field.
type TypeField struct {
	Type   TypeMeta `json:"type"`
	Name   string   `json:"name"`
	Offset int64    `json:"offset"`
}

// Serialize returns canonical JSON for the debug info.
func Serialize(info ProgramDebugInfo) ([]byte, error) {
	return json.MarshalIndent(info, "", "  ")
}

// Deserialize parses ProgramDebugInfo from JSON.
func Deserialize(b []byte) (ProgramDebugInfo, error) {
	var info ProgramDebugInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return ProgramDebugInfo{}, err
	}

	return info, nil
}
