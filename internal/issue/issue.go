// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	CargoNotFoundId
	BuildFailedId
	InstallFailedId
	InstallRootMissingId
	ConfigLoadFailedId
	PkgbuildInvalidId
	VersionFallbackId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with a glamour style ("dark", "light", "notty",
// "auto", or a path to a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No Cargo.toml found!

archcrate needs the crate's manifest to build, install or generate a PKGBUILD.

## Things you can try:
- Point archcrate at the crate directory:
~~~
$ archcrate run --project path/to/crate --root "$pkgdir"
~~~
- In a workspace, pass the member crate, not the workspace root`,
		docLinks: []HttpLink{"https://doc.rust-lang.org/cargo/reference/manifest.html"},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Cargo.toml could not be read!

The manifest is not valid TOML, or it has no ` + "`[package]`" + ` table.

## Things you can try:
- Run ` + "`cargo metadata --no-deps`" + ` to see cargo's own diagnostic
- Check the ` + "`[package.metadata.arch]`" + ` table: every list must be an array of strings`,
		docLinks: []HttpLink{"https://doc.rust-lang.org/cargo/reference/manifest.html#the-metadata-table"},
	}

	cargoNotFoundIssue = &Issue{
		id: CargoNotFoundId,
		mdMsg: `
# cargo is not installed!

The build and package phases delegate to cargo.

## Things you can try:
- Install the Rust toolchain:
~~~
# pacman -S rust
~~~
- Or point archcrate at another binary with ` + "`build: tool: \"/path/to/cargo\"`" + ` in your config`,
		docLinks: []HttpLink{"https://wiki.archlinux.org/title/Rust"},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# The build phase failed!

` + "`cargo build --release`" + ` exited with an error. The run stopped here; nothing was installed.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see cargo's full output
- Build the crate directly with ` + "`cargo build --release`" + ` to reproduce
- If the lock file is stale, drop ` + "`build: locked: true`" + ` from your config`,
		docLinks: []HttpLink{"https://doc.rust-lang.org/cargo/commands/cargo-build.html"},
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# The package phase failed!

` + "`cargo install`" + ` could not install the crate into the staging root.

## Things you can try:
- Make sure the install root is writable
- Check that the crate has at least one binary target
- Re-run with ` + "`--verbose`" + ` to see cargo's full output`,
		docLinks: []HttpLink{"https://doc.rust-lang.org/cargo/commands/cargo-install.html"},
	}

	installRootMissingIssue = &Issue{
		id: InstallRootMissingId,
		mdMsg: `
# No install root given!

The package phase installs into ` + "`<root>/usr`" + `. archcrate never guesses the root.

## Things you can try:
- Pass it explicitly:
~~~
$ archcrate package --root "$pkgdir"
~~~`,
		docLinks: []HttpLink{"https://wiki.archlinux.org/title/Creating_packages"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded!

A config file did not match the schema, or an ARCHCRATE_* variable holds an invalid value.

## Things you can try:
- Show which files were read:
~~~
$ archcrate config path
~~~
- Compare your file with the defaults:
~~~
$ archcrate config dump
~~~`,
		docLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	pkgbuildInvalidIssue = &Issue{
		id: PkgbuildInvalidId,
		mdMsg: `
# The generated PKGBUILD is not valid bash!

A value from ` + "`[package.metadata.arch]`" + ` produced a script that does not parse.

## Things you can try:
- Look for NUL bytes or unusual control characters in the metadata
- Render to the terminal to inspect the output:
~~~
$ archcrate pkgbuild --stdout
~~~`,
		docLinks: []HttpLink{"https://wiki.archlinux.org/title/PKGBUILD"},
	}

	versionFallbackIssue = &Issue{
		id: VersionFallbackId,
		mdMsg: `
# Using the fallback version

No reachable tag was found, so the configured fallback was used as-is.

## Things you can try:
- Tag a release: ` + "`git tag v1.0.0`" + `
- Check ` + "`version: match`" + ` and ` + "`version: semver_only`" + ` in your config`,
		docLinks: []HttpLink{"https://wiki.archlinux.org/title/VCS_package_guidelines#The_pkgver()_function"},
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():   manifestNotFoundIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		cargoNotFoundIssue.Id():      cargoNotFoundIssue,
		buildFailedIssue.Id():        buildFailedIssue,
		installFailedIssue.Id():      installFailedIssue,
		installRootMissingIssue.Id(): installRootMissingIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		pkgbuildInvalidIssue.Id():    pkgbuildInvalidIssue,
		versionFallbackIssue.Id():    versionFallbackIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
