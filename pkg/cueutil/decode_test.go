// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Release: {
	name:      string
	abbrev:    int & >=4
	prerelease?: bool
	tags?:     [...string]
}
`

type release struct {
	Name       string   `json:"name"`
	Abbrev     int      `json:"abbrev"`
	Prerelease bool     `json:"prerelease,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[release]([]byte(testSchema), []byte(`
name: "ripfind"
abbrev: 7
tags: ["v1.0.0", "v1.1.0"]
`), "#Release", WithFilename("release.cue"))
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if res.Value.Name != "ripfind" || res.Value.Abbrev != 7 || len(res.Value.Tags) != 2 {
		t.Errorf("Value = %+v", res.Value)
	}
}

func TestParseAndDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantSub string
	}{
		{
			name:    "syntax error",
			data:    "name: \"x\"\nabbrev: [",
			wantSub: "release.cue",
		},
		{
			name:    "constraint violation",
			data:    "name: \"x\"\nabbrev: 2\n",
			wantSub: "abbrev",
		},
		{
			name:    "unknown field",
			data:    "name: \"x\"\nabbrev: 7\nextra: true\n",
			wantSub: "extra",
		},
		{
			name:    "missing required field",
			data:    "abbrev: 7\n",
			wantSub: "name",
		},
		{
			name:    "too large",
			data:    "name: \"x\"\nabbrev: 7\n",
			opts:    []Option{WithMaxFileSize(4)},
			wantSub: "exceeds maximum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]Option{WithFilename("release.cue")}, tt.opts...)
			_, err := ParseAndDecode[release]([]byte(testSchema), []byte(tt.data), "#Release", opts...)
			if err == nil {
				t.Fatal("ParseAndDecode() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestParseAndDecode_NonConcrete(t *testing.T) {
	t.Parallel()

	schema := `#Opt: { fallback?: string, long?: bool }`
	res, err := ParseAndDecode[map[string]any]([]byte(schema), []byte(`long: true`), "#Opt", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if res.Value["long"] != true {
		t.Errorf("Value = %v, want long=true", res.Value)
	}
	if _, ok := res.Value["fallback"]; ok {
		t.Errorf("unset optional field decoded: %v", res.Value)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"version"}, "version"},
		{[]string{"build", "features", "0"}, "build.features[0]"},
		{[]string{"a", "b", "12", "c"}, "a.b[12].c"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
