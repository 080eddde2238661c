package format

import "testing"

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0$"},
		{999.99, "999$"},
		{1234567.8, "1,234,567$"},
		{-2500, "-2,500$"},
	}

	for _, tt := range tests {
		if got := Money(tt.in); got != tt.want {
			t.Errorf("Money(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(12.3); got != "12.3%" {
		t.Errorf("Ratio(12.3) = %q", got)
	}
	if got := Ratio(-4); got != "-4.0%" {
		t.Errorf("Ratio(-4) = %q", got)
	}
}
