package batch

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"(555) 123-4567", "+15551234567", true},
		{" 15551234567 ", "+15551234567", true},
		{"+44 20 7946 0958", "+442079460958", true},
		{"5551234567.0", "+15551234567", true},
		{"555 123.0000", "+15551230000", true},
		{"555.123.4567", "+15551234567", true},
		{"555-1234", "", false},
		{"", "", false},
		{"NaN", "", false},
		{"None", "", false},
		{"call me", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizePhone(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("NormalizePhone(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizePhone_AlwaysPlusAndElevenDigits(t *testing.T) {
	for _, in := range []string{"5551234567", "1-555-123-4567", "00442079460958", "12345678901234"} {
		got, ok := NormalizePhone(in)
		if !ok {
			t.Fatalf("%q rejected", in)
		}
		if got[0] != '+' || len(got)-1 < 11 {
			t.Fatalf("%q normalized to %q", in, got)
		}
	}
}
