// SPDX-License-Identifier: MPL-2.0

// Package manifest reads the packaging metadata of a crate from Cargo.toml.
//
// Values come from the [package.metadata.arch] table when present and fall
// back to the matching [package] keys otherwise.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/archcrate/archcrate/pkg/types"
)

const (
	// FileName is the manifest file looked up in a project directory.
	FileName = "Cargo.toml"

	// DefaultPkgrel is the release number of a new package.
	DefaultPkgrel = "1"
	// DefaultEpoch is the epoch of a package that never needed one.
	DefaultEpoch = "0"
)

var (
	// ErrManifestNotFound is returned when Cargo.toml does not exist.
	ErrManifestNotFound = errors.New("Cargo.toml not found")
	// ErrMissingPackage is returned when the manifest has no [package] table,
	// as in a virtual workspace manifest.
	ErrMissingPackage = errors.New("manifest has no [package] table")
)

type (
	// cargoManifest mirrors the parts of Cargo.toml that are read.
	cargoManifest struct {
		Package *cargoPackage `toml:"package"`
	}

	cargoPackage struct {
		Name        string        `toml:"name"`
		Version     string        `toml:"version"`
		Authors     []string      `toml:"authors"`
		Description string        `toml:"description"`
		Homepage    string        `toml:"homepage"`
		Repository  string        `toml:"repository"`
		License     string        `toml:"license"`
		Metadata    cargoMetadata `toml:"metadata"`
	}

	cargoMetadata struct {
		Arch *ArchMetadata `toml:"arch"`
	}

	// ArchMetadata is the [package.metadata.arch] table. Nil pointers and
	// slices mean "not set" and select the default.
	ArchMetadata struct {
		Maintainers  []string `toml:"maintainers"`
		Pkgname      *string  `toml:"pkgname"`
		Pkgver       *string  `toml:"pkgver"`
		Pkgrel       *string  `toml:"pkgrel"`
		Epoch        *string  `toml:"epoch"`
		Pkgdesc      *string  `toml:"pkgdesc"`
		URL          *string  `toml:"url"`
		License      []string `toml:"license"`
		Install      *string  `toml:"install"`
		Changelog    *string  `toml:"changelog"`
		Source       []string `toml:"source"`
		Validpgpkeys []string `toml:"validpgpkeys"`
		Noextract    []string `toml:"noextract"`
		Md5sums      []string `toml:"md5sums"`
		Sha1sums     []string `toml:"sha1sums"`
		Sha256sums   []string `toml:"sha256sums"`
		Sha384sums   []string `toml:"sha384sums"`
		Sha512sums   []string `toml:"sha512sums"`
		Groups       []string `toml:"groups"`
		Arch         []string `toml:"arch"`
		Backup       []string `toml:"backup"`
		Depends      []string `toml:"depends"`
		Makedepends  []string `toml:"makedepends"`
		Checkdepends []string `toml:"checkdepends"`
		Optdepends   []string `toml:"optdepends"`
		Conflicts    []string `toml:"conflicts"`
		Provides     []string `toml:"provides"`
		Replaces     []string `toml:"replaces"`
		Options      []string `toml:"options"`
	}

	// ArchConfig is the fully defaulted package description. Every field is
	// set; arrays are empty rather than nil.
	ArchConfig struct {
		Maintainers  []string
		Pkgname      string
		Pkgver       string
		Pkgrel       string
		Epoch        string
		Pkgdesc      string
		URL          string
		License      []string
		Install      string
		Changelog    string
		Source       []string
		Validpgpkeys []string
		Noextract    []string
		Md5sums      []string
		Sha1sums     []string
		Sha256sums   []string
		Sha384sums   []string
		Sha512sums   []string
		Groups       []string
		Arch         []string
		Backup       []string
		Depends      []string
		Makedepends  []string
		Checkdepends []string
		Optdepends   []string
		Conflicts    []string
		Provides     []string
		Replaces     []string
		Options      []string
	}

	// ParseError reports a manifest that is not valid TOML.
	ParseError struct {
		Path types.FilesystemPath
		Err  error
	}
)

// Error implements error.
func (e *ParseError) Error() string {
	var de *toml.DecodeError
	if errors.As(e.Err, &de) {
		row, col := de.Position()
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, row, col, de.Error())
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

// Load reads <dir>/Cargo.toml.
func Load(dir types.FilesystemPath) (*ArchConfig, error) {
	path := dir.Join(FileName)
	data, err := os.ReadFile(string(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(string(path)), err)
	}
	return cfg, nil
}

// Parse decodes manifest bytes and applies the defaulting rules.
func Parse(data []byte) (*ArchConfig, error) {
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Path: FileName, Err: err}
	}
	if m.Package == nil {
		return nil, ErrMissingPackage
	}
	return m.Package.archConfig(), nil
}

func (p *cargoPackage) archConfig() *ArchConfig {
	meta := p.Metadata.Arch
	if meta == nil {
		meta = &ArchMetadata{}
	}

	url := p.Homepage
	if url == "" {
		url = p.Repository
	}

	return &ArchConfig{
		Maintainers:  list(meta.Maintainers, p.Authors),
		Pkgname:      str(meta.Pkgname, p.Name),
		Pkgver:       str(meta.Pkgver, p.Version),
		Pkgrel:       str(meta.Pkgrel, DefaultPkgrel),
		Epoch:        str(meta.Epoch, DefaultEpoch),
		Pkgdesc:      str(meta.Pkgdesc, p.Description),
		URL:          str(meta.URL, url),
		License:      list(meta.License, splitLicense(p.License)),
		Install:      str(meta.Install, ""),
		Changelog:    str(meta.Changelog, ""),
		Source:       list(meta.Source, nil),
		Validpgpkeys: list(meta.Validpgpkeys, nil),
		Noextract:    list(meta.Noextract, nil),
		Md5sums:      list(meta.Md5sums, nil),
		Sha1sums:     list(meta.Sha1sums, nil),
		Sha256sums:   list(meta.Sha256sums, nil),
		Sha384sums:   list(meta.Sha384sums, nil),
		Sha512sums:   list(meta.Sha512sums, nil),
		Groups:       list(meta.Groups, nil),
		Arch:         list(meta.Arch, nil),
		Backup:       list(meta.Backup, nil),
		Depends:      list(meta.Depends, nil),
		Makedepends:  list(meta.Makedepends, nil),
		Checkdepends: list(meta.Checkdepends, nil),
		Optdepends:   list(meta.Optdepends, nil),
		Conflicts:    list(meta.Conflicts, nil),
		Provides:     list(meta.Provides, nil),
		Replaces:     list(meta.Replaces, nil),
		Options:      list(meta.Options, nil),
	}
}

// splitLicense turns an SPDX-ish "MIT/Apache-2.0" into its parts. An empty
// license yields no entries.
func splitLicense(license string) []string {
	if license == "" {
		return nil
	}
	return strings.Split(license, "/")
}

func str(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}

func list(v, def []string) []string {
	src := def
	if v != nil {
		src = v
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
