package debug

import "testing"

func TestBuildStackTraceCurrentFrame(t *testing.T) {
	info := buildTwoFunctionInfo()
	pcmap := BuildPCMap(info)

	st := BuildStackTrace(pcmap, info, pcmap.Ranges[0].Low)
	if len(st.Frames) == 0 {
		t.Fatalf("expected at least one frame")
	}

	top := st.Frames[0]
	if top.Function != "add" {
		t.Errorf("Function = %q, want %q", top.Function, "add")
	}

	if !top.Position.IsValid() || top.Position.Filename != "add.src" {
		t.Errorf("Position = %+v, want a valid add.src position", top.Position)
	}

	if !top.Range.IsValid() {
		t.Errorf("Range = %+v, want a valid span covering add's line table", top.Range)
	}
}

func TestBuildStackTraceNeighborContext(t *testing.T) {
	info := buildTwoFunctionInfo()
	pcmap := BuildPCMap(info)

	// Resolve an address inside the second (last) range: there is a
	// previous-range boundary frame but no next one.
	st := BuildStackTrace(pcmap, info, pcmap.Ranges[1].Low)
	if len(st.Frames) != 2 {
		t.Fatalf("got %d frames, want 2 (current + previous boundary)", len(st.Frames))
	}

	if st.Frames[0].Function != "sub" {
		t.Errorf("Frames[0].Function = %q, want %q", st.Frames[0].Function, "sub")
	}

	if st.Frames[1].PC != pcmap.Ranges[0].High-4 {
		t.Errorf("Frames[1].PC = %#x, want %#x", st.Frames[1].PC, pcmap.Ranges[0].High-4)
	}
}

func TestBuildStackTraceOutOfRangePC(t *testing.T) {
	info := buildTwoFunctionInfo()
	pcmap := BuildPCMap(info)

	st := BuildStackTrace(pcmap, info, pcmap.Ranges[len(pcmap.Ranges)-1].High+4096)

	if len(st.Frames) != 1 {
		t.Fatalf("got %d frames, want 1 (current frame only, unresolved)", len(st.Frames))
	}

	if st.Frames[0].Function != "" || st.Frames[0].Position.IsValid() {
		t.Errorf("expected an unresolved frame, got %+v", st.Frames[0])
	}
}
