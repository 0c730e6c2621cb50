// SPDX-License-Identifier: MPL-2.0

package pkgver

import "testing"

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"1.1", "1.0", 1},
		{"1.0", "1.0.1", -1},
		{"1.0a", "1.0", -1},
		{"1.0", "1.0a", 1},
		{"1.0alpha", "1.0beta", -1},
		{"1.0.r3.gabc1234", "1.0.r10.g0000000", -1},
		{"1.0", "1.0.r1.gabc", -1},
		{"1.0.r1.gabc", "1.1", -1},
		{"2.0.1", "2.0.1.r0.gabc", -1},
		{"1.001", "1.1", 0},
		{"1.0-1", "1.0-2", -1},
		{"1.0-2", "1.0", 0},
		{"1:1.0", "2.0", 1},
		{"0:1.0", "1.0", 0},
		{"1.0..1", "1.0.1", 1},
		{"1.a", "1.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			t.Parallel()
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestParseFull(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Full
	}{
		{"1.2.3", Full{Epoch: "0", Pkgver: "1.2.3"}},
		{"1.2.3-4", Full{Epoch: "0", Pkgver: "1.2.3", Pkgrel: "4"}},
		{"2:1.2.3-4", Full{Epoch: "2", Pkgver: "1.2.3", Pkgrel: "4"}},
		{":1.0", Full{Epoch: "0", Pkgver: "1.0"}},
	}
	for _, tt := range tests {
		if got := ParseFull(tt.in); got != tt.want {
			t.Errorf("ParseFull(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFull_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Full
		want string
	}{
		{Full{Epoch: "0", Pkgver: "1.0", Pkgrel: "1"}, "1.0-1"},
		{Full{Epoch: "3", Pkgver: "1.0", Pkgrel: "2"}, "3:1.0-2"},
		{Full{Pkgver: "1.0"}, "1.0"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFull_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Full
		wantErr bool
	}{
		{name: "normalized describe", in: Full{Pkgver: "1.2.0.r3.gabc1234", Pkgrel: "1"}},
		{name: "with epoch", in: Full{Epoch: "1", Pkgver: "2.0", Pkgrel: "1.1"}},
		{name: "empty pkgver", in: Full{Pkgrel: "1"}, wantErr: true},
		{name: "hyphen in pkgver", in: Full{Pkgver: "1.2-3"}, wantErr: true},
		{name: "colon in pkgver", in: Full{Pkgver: "1:2"}, wantErr: true},
		{name: "non-numeric epoch", in: Full{Epoch: "x", Pkgver: "1"}, wantErr: true},
		{name: "non-numeric pkgrel", in: Full{Pkgver: "1", Pkgrel: "a"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
