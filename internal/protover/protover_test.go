package protover

import "testing"

func TestSatisfies(t *testing.T) {
	cases := []struct {
		name       string
		constraint string
		want       bool
		wantErr    bool
	}{
		{"exact match range", ">=1.0.0, <2.0.0", true, false},
		{"too new", ">=2.0.0", false, false},
		{"malformed", "not-a-constraint!!", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Satisfies(tc.constraint)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.constraint)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tc.want {
				t.Fatalf("Satisfies(%q) = %v, want %v", tc.constraint, got, tc.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if String() != "1.0.0" {
		t.Fatalf("expected 1.0.0, got %q", String())
	}
}
