// SPDX-License-Identifier: MPL-2.0

// Package pkgver derives Arch Linux package versions from git describe output.
//
// The transformation mirrors the classic PKGBUILD recipe
//
//	git describe --tags | sed 's/^v//;s/\([^-]*-g\)/r\1/;s/-/./g'
//
// so `v1.2.0-3-gabc1234` becomes `1.2.0.r3.gabc1234`. When no describe output
// is available, Resolve substitutes a configured fallback verbatim.
//
// The package also provides pacman's vercmp ordering (Compare) and the
// epoch:pkgver-pkgrel value type (Full).
package pkgver
