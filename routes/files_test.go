package routes

import "testing"

func TestTypeAllowed(t *testing.T) {
	allowed := []string{"application/pdf", "text/plain", "audio/mpeg"}

	cases := []struct {
		mimeType string
		want     bool
	}{
		{"application/pdf", true},
		{"APPLICATION/PDF", true},
		{"text/plain; charset=utf-8", true},
		{"audio/mpeg", true},
		{"application/zip", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := typeAllowed(allowed, tc.mimeType); got != tc.want {
			t.Errorf("typeAllowed(%q) = %v, want %v", tc.mimeType, got, tc.want)
		}
	}
}
