package arabic

import "testing"

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"١٢٣٫٤٥", "123.45"},
		{"۱۲۳۴", "1234"},
		{"١٬٢٥٠٫٠٠ ر.س", "1,250.00 ر.س"},
		{"TOTAL 99.50", "TOTAL 99.50"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDigits(tt.in); got != tt.want {
			t.Errorf("NormalizeDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
