// SPDX-License-Identifier: MPL-2.0

// Package pkgbuild renders a PKGBUILD from crate metadata. The header holds
// the package variables; the body holds the pkgver, build and package
// functions that drive cargo.
package pkgbuild

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/syntax"

	"github.com/archcrate/archcrate/internal/cargo"
	"github.com/archcrate/archcrate/internal/manifest"
	"github.com/archcrate/archcrate/pkg/pkgver"
	"github.com/archcrate/archcrate/pkg/types"
)

const (
	// FileName is the name makepkg looks for.
	FileName = "PKGBUILD"

	// globMeta holds the characters doublestar treats as pattern syntax.
	globMeta = "*?[{\\"
)

var (
	//go:embed recipe.sh.tmpl
	recipeSource string

	recipe = template.Must(template.New("recipe").Parse(recipeSource))

	// pathSegment restricts values spliced into double-quoted paths.
	pathSegment = regexp.MustCompile(`^[A-Za-z0-9._+@/-]+$`)

	// ErrInvalidScript is returned when the rendered file is not valid bash.
	ErrInvalidScript = errors.New("rendered PKGBUILD is not valid bash")
	// ErrInvalidOption is returned for a source dir, prefix or cleanup entry
	// that cannot be spliced into the recipe safely.
	ErrInvalidOption = errors.New("invalid PKGBUILD option")
	// ErrInvalidVersion is returned when epoch, pkgver or pkgrel would be
	// rejected by makepkg.
	ErrInvalidVersion = errors.New("invalid package version")
)

type (
	// Options tune the recipe body.
	Options struct {
		// SourceDir is the directory under $srcdir holding the crate;
		// empty means $pkgname.
		SourceDir string
		// Prefix is the install prefix under $pkgdir; empty means usr.
		Prefix string
		// Locked and Features are passed to both cargo invocations.
		Locked   bool
		Features []string
		// Cleanup lists files removed from $pkgdir/<prefix> after install;
		// nil means cargo.DefaultCleanup.
		Cleanup []string
	}

	field struct {
		name   string
		scalar string
		list   []string
		isList bool
	}

	// Generated describes a PKGBUILD written by Generate.
	Generated struct {
		Path    types.FilesystemPath
		Pkgname string
		Version pkgver.Full
	}

	recipeData struct {
		SourceDir  string
		Prefix     string
		CargoFlags []string
		Cleanup    []string
	}
)

// Render produces the PKGBUILD text for cfg. The result is parsed as bash
// before it is returned.
func Render(cfg *manifest.ArchConfig, opts Options) ([]byte, error) {
	if err := Version(cfg).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVersion, err)
	}
	data, err := opts.recipeData()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, m := range cfg.Maintainers {
		fmt.Fprintf(&buf, "# Maintainer: %s\n", strings.ReplaceAll(m, "\n", " "))
	}
	buf.WriteString("\n")

	for _, f := range fields(cfg) {
		if err := f.write(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteString("\n")

	if err := recipe.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering recipe: %w", err)
	}

	if err := Validate(buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate parses script as bash.
func Validate(script []byte) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(bytes.NewReader(script), FileName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	return nil
}

// Version returns the full package version a PKGBUILD for cfg declares.
func Version(cfg *manifest.ArchConfig) pkgver.Full {
	return pkgver.Full{
		Epoch:  cfg.Epoch,
		Pkgver: pkgver.SanitizeManifestVersion(cfg.Pkgver),
		Pkgrel: cfg.Pkgrel,
	}
}

// Generate loads the manifest in projectDir and writes projectDir/PKGBUILD.
func Generate(projectDir types.FilesystemPath, opts Options) (*Generated, error) {
	cfg, err := manifest.Load(projectDir)
	if err != nil {
		return nil, err
	}
	out, err := Render(cfg, opts)
	if err != nil {
		return nil, err
	}
	path := projectDir.Join(FileName)
	if err := Write(path, out); err != nil {
		return nil, err
	}
	return &Generated{Path: path, Pkgname: cfg.Pkgname, Version: Version(cfg)}, nil
}

// Write stores a rendered PKGBUILD at path.
func Write(path types.FilesystemPath, data []byte) error {
	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func fields(cfg *manifest.ArchConfig) []field {
	scalar := func(name, v string) field { return field{name: name, scalar: v} }
	list := func(name string, v []string) field { return field{name: name, list: v, isList: true} }
	return []field{
		scalar("pkgname", cfg.Pkgname),
		scalar("pkgver", Version(cfg).Pkgver),
		scalar("pkgrel", cfg.Pkgrel),
		scalar("epoch", cfg.Epoch),
		scalar("pkgdesc", cfg.Pkgdesc),
		scalar("url", cfg.URL),
		list("license", cfg.License),
		scalar("install", cfg.Install),
		scalar("changelog", cfg.Changelog),
		list("source", cfg.Source),
		list("validpgpkeys", cfg.Validpgpkeys),
		list("noextract", cfg.Noextract),
		list("md5sums", cfg.Md5sums),
		list("sha1sums", cfg.Sha1sums),
		list("sha256sums", cfg.Sha256sums),
		list("sha384sums", cfg.Sha384sums),
		list("sha512sums", cfg.Sha512sums),
		list("groups", cfg.Groups),
		list("arch", cfg.Arch),
		list("backup", cfg.Backup),
		list("depends", cfg.Depends),
		list("makedepends", cfg.Makedepends),
		list("checkdepends", cfg.Checkdepends),
		list("optdepends", cfg.Optdepends),
		list("conflicts", cfg.Conflicts),
		list("provides", cfg.Provides),
		list("replaces", cfg.Replaces),
		list("options", cfg.Options),
	}
}

func (f field) write(buf *bytes.Buffer) error {
	if !f.isList {
		q, err := quote(f.name, f.scalar)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s=%s\n", f.name, q)
		return nil
	}

	quoted := make([]string, 0, len(f.list))
	for _, v := range f.list {
		q, err := quote(f.name, v)
		if err != nil {
			return err
		}
		quoted = append(quoted, q)
	}
	fmt.Fprintf(buf, "%s=(%s)\n", f.name, strings.Join(quoted, " "))
	return nil
}

func quote(name, v string) (string, error) {
	q, err := syntax.Quote(v, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("quoting %s value %q: %w", name, v, err)
	}
	return q, nil
}

func (o Options) recipeData() (recipeData, error) {
	d := recipeData{SourceDir: "$pkgname", Prefix: cargo.DefaultPrefix}
	if o.SourceDir != "" {
		if !pathSegment.MatchString(o.SourceDir) {
			return d, fmt.Errorf("%w: source dir %q", ErrInvalidOption, o.SourceDir)
		}
		d.SourceDir = o.SourceDir
	}
	if o.Prefix != "" {
		if !pathSegment.MatchString(o.Prefix) {
			return d, fmt.Errorf("%w: prefix %q", ErrInvalidOption, o.Prefix)
		}
		d.Prefix = strings.Trim(o.Prefix, "/")
	}

	if o.Locked {
		d.CargoFlags = append(d.CargoFlags, "--locked")
	}
	if len(o.Features) > 0 {
		q, err := quote("features", strings.Join(o.Features, ","))
		if err != nil {
			return d, err
		}
		d.CargoFlags = append(d.CargoFlags, "--features", q)
	}

	cleanup := o.Cleanup
	if cleanup == nil {
		cleanup = cargo.DefaultCleanup
	}
	for _, c := range cleanup {
		// The recipe removes literal paths; globs only work for the package
		// command, which expands them itself.
		if strings.ContainsAny(c, globMeta) {
			return d, fmt.Errorf("%w: cleanup entry %q is a glob pattern", ErrInvalidOption, c)
		}
		q, err := quote("cleanup", c)
		if err != nil {
			return d, err
		}
		d.Cleanup = append(d.Cleanup, q)
	}
	return d, nil
}
