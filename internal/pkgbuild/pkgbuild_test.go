// SPDX-License-Identifier: MPL-2.0

package pkgbuild

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/archcrate/archcrate/internal/manifest"
	"github.com/archcrate/archcrate/internal/testutil"
	"github.com/archcrate/archcrate/pkg/types"
)

func sampleConfig(t *testing.T) *manifest.ArchConfig {
	t.Helper()
	cfg, err := manifest.Parse([]byte(`
[package]
name = "ripfind"
version = "0.4.0-beta.1"
authors = ["Ada <ada@example.com>"]
description = "Find things fast, it's quick"
homepage = "https://ripfind.example.com"
license = "MIT/Apache-2.0"

[package.metadata.arch]
arch = ["x86_64"]
depends = ["glibc", "gcc-libs"]
optdepends = ["fzf: interactive selection"]
`))
	if err != nil {
		t.Fatalf("manifest.Parse() error = %v", err)
	}
	return cfg
}

func TestRender_Header(t *testing.T) {
	t.Parallel()

	out, err := Render(sampleConfig(t), Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	text := string(out)

	wantLines := []string{
		"# Maintainer: Ada <ada@example.com>",
		"pkgname=ripfind",
		"pkgver=0.4.0_beta.1",
		"pkgrel=1",
		"epoch=0",
		`pkgdesc="Find things fast, it's quick"`,
		"url=https://ripfind.example.com",
		"license=(MIT Apache-2.0)",
		"install=''",
		"source=()",
		"arch=(x86_64)",
		"depends=(glibc gcc-libs)",
		"optdepends=('fzf: interactive selection')",
		"options=()",
	}
	for _, line := range wantLines {
		if !strings.Contains(text, line+"\n") {
			t.Errorf("PKGBUILD missing line %q\n%s", line, text)
		}
	}
	if !strings.HasPrefix(text, "# Maintainer: ") {
		t.Errorf("PKGBUILD should start with the maintainer comment")
	}
}

func TestRender_Recipe(t *testing.T) {
	t.Parallel()

	out, err := Render(sampleConfig(t), Options{Locked: true, Features: []string{"tls"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"pkgver() {",
		`sed 's/^v//;s/\([^-]*-g\)/r\1/;s/-/./g'`,
		"cargo build --release --locked --features tls",
		`mkdir -p "$pkgdir/usr"`,
		`cargo install --path . --root "$pkgdir/usr" --locked --features tls`,
		`rm -f "$pkgdir/usr"/.crates.toml`,
		`rm -f "$pkgdir/usr"/.crates2.json`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("recipe missing %q\n%s", want, text)
		}
	}
}

func TestRender_CustomPrefixAndSourceDir(t *testing.T) {
	t.Parallel()

	out, err := Render(sampleConfig(t), Options{SourceDir: "ripfind-0.4.0", Prefix: "/opt/ripfind/", Cleanup: []string{}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	text := string(out)
	if !strings.Contains(text, `cd "$srcdir/ripfind-0.4.0"`) {
		t.Errorf("source dir not used:\n%s", text)
	}
	if !strings.Contains(text, `--root "$pkgdir/opt/ripfind"`) {
		t.Errorf("prefix not used:\n%s", text)
	}
	if strings.Contains(text, "rm -f") {
		t.Errorf("empty cleanup list should render no rm lines:\n%s", text)
	}
}

func TestRender_RejectsUnsafeOptions(t *testing.T) {
	t.Parallel()

	for _, opts := range []Options{
		{SourceDir: `a"; rm -rf /; "`},
		{Prefix: "$(whoami)"},
		{Cleanup: []string{"share/doc/**"}},
		{Cleanup: []string{".crates.toml", "bin/*.debug"}},
	} {
		if _, err := Render(sampleConfig(t), opts); !errors.Is(err, ErrInvalidOption) {
			t.Errorf("Render(%+v) error = %v, want ErrInvalidOption", opts, err)
		}
	}
}

func TestRender_RejectsInvalidVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*manifest.ArchConfig)
	}{
		{name: "epoch", mutate: func(c *manifest.ArchConfig) { c.Epoch = "one" }},
		{name: "pkgrel", mutate: func(c *manifest.ArchConfig) { c.Pkgrel = "-1" }},
		{name: "pkgver with colon", mutate: func(c *manifest.ArchConfig) { c.Pkgver = "1:2" }},
		{name: "empty pkgver", mutate: func(c *manifest.ArchConfig) { c.Pkgver = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := sampleConfig(t)
			tt.mutate(cfg)
			if _, err := Render(cfg, Options{}); !errors.Is(err, ErrInvalidVersion) {
				t.Errorf("Render() error = %v, want ErrInvalidVersion", err)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig(t)
	cfg.Epoch = "2"
	if got := Version(cfg).String(); got != "2:0.4.0_beta.1-1" {
		t.Errorf("Version() = %q, want 2:0.4.0_beta.1-1", got)
	}
}

func TestRender_RejectsNullBytes(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig(t)
	cfg.Pkgdesc = "bad\x00desc"
	if _, err := Render(cfg, Options{}); err == nil {
		t.Error("Render() with a NUL byte should fail")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Validate([]byte("pkgname=x\nbuild() {\n\ttrue\n}\n")); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}
	if err := Validate([]byte("build() {\n")); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("Validate(unterminated) error = %v, want ErrInvalidScript", err)
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, manifest.FileName, "[package]\nname = \"tiny\"\nversion = \"1.0.0\"\nlicense = \"MIT\"\n")

	gen, err := Generate(types.FilesystemPath(dir), Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(gen.Path) != filepath.Join(dir, FileName) {
		t.Errorf("Generate() path = %q", gen.Path)
	}
	if gen.Pkgname != "tiny" || gen.Version.String() != "1.0.0-1" {
		t.Errorf("Generate() = %+v, want tiny 1.0.0-1", gen)
	}
	data, err := os.ReadFile(string(gen.Path))
	if err != nil {
		t.Fatalf("reading PKGBUILD: %v", err)
	}
	if !strings.Contains(string(data), "pkgname=tiny\n") {
		t.Errorf("PKGBUILD content:\n%s", data)
	}
	if err := Validate(data); err != nil {
		t.Errorf("written PKGBUILD is invalid: %v", err)
	}
}

func TestGenerate_MissingManifest(t *testing.T) {
	t.Parallel()

	_, err := Generate(types.FilesystemPath(t.TempDir()), Options{})
	if !errors.Is(err, manifest.ErrManifestNotFound) {
		t.Errorf("Generate() error = %v, want ErrManifestNotFound", err)
	}
}
