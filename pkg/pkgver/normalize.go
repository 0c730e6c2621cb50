// SPDX-License-Identifier: MPL-2.0

package pkgver

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// revisionMarker matches the commit-count-and-hash segment introduced by
// git describe. [^-]* cannot cross a hyphen, so the leftmost match is the
// same under POSIX and RE2 semantics.
var revisionMarker = regexp.MustCompile(`[^-]*-g`)

// Normalize converts git describe output into a pkgver.
//
// Only the first revision marker is prefixed with "r", matching sed without
// the g flag. Hyphens that belong to the tag itself (1.2.0-beta) are turned
// into dots like every other hyphen.
func Normalize(describe string) string {
	s := strings.TrimPrefix(describe, "v")

	if loc := revisionMarker.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + "r" + s[loc[0]:]
	}

	return strings.ReplaceAll(s, "-", ".")
}

// SanitizeManifestVersion turns a Cargo manifest version into a pkgver by
// replacing hyphens with underscores (1.0.0-rc.1 -> 1.0.0_rc.1).
func SanitizeManifestVersion(v string) string {
	return strings.ReplaceAll(v, "-", "_")
}

// IsSemverTag reports whether tag is a semantic version, with or without a
// leading "v".
func IsSemverTag(tag string) bool {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	return semver.IsValid(tag)
}
