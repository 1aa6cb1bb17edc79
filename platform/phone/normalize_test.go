package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"national number with default region", "22 34 56 78", "NO", "+4722345678"},
		{"already e164", "+4722345678", "NO", "+4722345678"},
		{"international overrides region", "+46 8 123 456 78", "NO", "+46812345678"},
		{"lower-case region", "22 34 56 78", "no", "+4722345678"},
		{"empty input", "   ", "NO", ""},
		{"garbage passes through", "call me maybe", "NO", "call me maybe"},
		{"invalid number passes through", "12", "NO", "12"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input, tc.region); got != tc.want {
				t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
			}
		})
	}
}
