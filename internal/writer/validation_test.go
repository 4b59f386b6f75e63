package writer

import "testing"

func TestValidateSessionPath_Valid(t *testing.T) {
	if err := ValidateSessionPath("session_2025-10-30T14-30-00"); err != nil {
		t.Errorf("expected valid session name, got %v", err)
	}
}

func TestValidateSessionPath_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		session string
	}{
		{"empty", ""},
		{"traversal", "session_2025-10-30T14-30-00/../../etc"},
		{"dotdot only", ".."},
		{"absolute", "/etc/passwd"},
		{"forward slash", "a/b"},
		{"backslash", `a\b`},
		{"wrong prefix", "run_2025-10-30T14-30-00"},
		{"wrong format", "session_20251030"},
		{"trailing garbage", "session_2025-10-30T14-30-00x"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateSessionPath(tc.session); err == nil {
				t.Errorf("expected %q to be rejected", tc.session)
			}
		})
	}
}
