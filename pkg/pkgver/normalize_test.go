// SPDX-License-Identifier: MPL-2.0

package pkgver

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		describe string
		want     string
	}{
		{name: "v tag with revision", describe: "v1.2.0-3-gabc1234", want: "1.2.0.r3.gabc1234"},
		{name: "plain tag with revision", describe: "1.2.0-3-gabc1234", want: "1.2.0.r3.gabc1234"},
		{name: "exact v tag", describe: "v2.0.1", want: "2.0.1"},
		{name: "exact plain tag", describe: "2.0.1", want: "2.0.1"},
		{name: "long format at tag", describe: "v2.0.1-0-g1a2b3c4", want: "2.0.1.r0.g1a2b3c4"},
		{name: "pre-release tag is flattened", describe: "v1.2.0-beta-3-gabc1234", want: "1.2.0.beta.r3.gabc1234"},
		{name: "pre-release tag exact", describe: "1.2.0-beta", want: "1.2.0.beta"},
		{name: "only one leading v is stripped", describe: "vv1.0-1-gdeadbee", want: "v1.0.r1.gdeadbee"},
		{name: "inner v is kept", describe: "release-v1-2-gabc", want: "release.v1.r2.gabc"},
		{name: "only first marker gets r", describe: "1.0-gamma-4-g0123abc", want: "r1.0.gamma.4.g0123abc"},
		{name: "empty", describe: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.describe); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.describe, got, tt.want)
			}
		})
	}
}

func TestNormalize_NoHyphensNoLeadingV(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"v0.1.0-12-gfeedfac",
		"v10.20.30-1-g0000000",
		"3.4-rc1-7-gabcdef0",
		"v1",
		"v1.0.0-alpha-beta-gamma",
	}
	for _, in := range inputs {
		got := Normalize(in)
		if strings.Contains(got, "-") {
			t.Errorf("Normalize(%q) = %q, still contains a hyphen", in, got)
		}
		if strings.HasPrefix(got, "v") && !strings.HasPrefix(strings.TrimPrefix(in, "v"), "v") {
			t.Errorf("Normalize(%q) = %q, kept the leading v", in, got)
		}
	}
}

func TestNormalize_HyphenFreeInputUnchanged(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"1.2.3", "1.2.3.r4.gabc", "20240101"} {
		if got := Normalize(in); got != in {
			t.Errorf("Normalize(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestNormalize_StripIsIdempotentWithoutV(t *testing.T) {
	t.Parallel()

	in := "1.4.2-2-g9f8e7d6"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
	}
}

func TestSanitizeManifestVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"1.0.0", "1.0.0"},
		{"1.0.0-rc.1", "1.0.0_rc.1"},
		{"0.3.0-alpha-2", "0.3.0_alpha_2"},
	}
	for _, tt := range tests {
		if got := SanitizeManifestVersion(tt.in); got != tt.want {
			t.Errorf("SanitizeManifestVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSemverTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  string
		want bool
	}{
		{"v1.2.3", true},
		{"1.2.3", true},
		{"v1.2.3-rc.1", true},
		{"v1.2", true},
		{"release-1", false},
		{"latest", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSemverTag(tt.tag); got != tt.want {
			t.Errorf("IsSemverTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}
