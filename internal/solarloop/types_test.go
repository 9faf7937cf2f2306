package solarloop

import (
	"errors"
	"testing"
)

func TestDeratingValid(t *testing.T) {
	cases := []struct {
		d    Derating
		want bool
	}{
		{DeratingUnknown, false},
		{DeratingLinear, true},
		{DeratingNone, true},
		{Derating(999), false},
	}

	for _, tc := range cases {
		if got := tc.d.Valid(); got != tc.want {
			t.Fatalf("Derating(%d).Valid()=%v want %v", tc.d, got, tc.want)
		}
	}
}

func TestParseDerating(t *testing.T) {
	cases := []struct {
		in      string
		want    Derating
		wantErr bool
	}{
		{"linear", DeratingLinear, false},
		{"none", DeratingNone, false},
		{"", DeratingUnknown, true},
		{"LINEAR", DeratingUnknown, true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDerating(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidDerating) {
					t.Fatalf("expected ErrInvalidDerating, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("ParseDerating(%q)=%v,%v want %v", tc.in, got, err, tc.want)
			}
			if got.String() != tc.in {
				t.Fatalf("String()=%q want %q", got.String(), tc.in)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if StateComplete.String() != "complete" || State(42).String() != "unknown" {
		t.Fatal("unexpected state names")
	}
}
