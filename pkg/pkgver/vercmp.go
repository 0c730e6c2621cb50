// SPDX-License-Identifier: MPL-2.0

package pkgver

import (
	"fmt"
	"strconv"
	"strings"
)

// Full is a complete package version: [epoch:]pkgver[-pkgrel].
type Full struct {
	Epoch  string
	Pkgver string
	Pkgrel string
}

// String renders the version the way pacman prints it. A zero or empty epoch
// is omitted, as is an empty pkgrel.
func (f Full) String() string {
	var b strings.Builder
	if f.Epoch != "" && f.Epoch != "0" {
		b.WriteString(f.Epoch)
		b.WriteByte(':')
	}
	b.WriteString(f.Pkgver)
	if f.Pkgrel != "" {
		b.WriteByte('-')
		b.WriteString(f.Pkgrel)
	}
	return b.String()
}

// ParseFull splits an epoch:version-release string. The epoch defaults to
// "0"; the release is empty when there is no hyphen.
func ParseFull(evr string) Full {
	f := Full{Epoch: "0"}

	i := 0
	for i < len(evr) && isDigit(evr[i]) {
		i++
	}
	rest := evr
	if i < len(evr) && evr[i] == ':' {
		if i > 0 {
			f.Epoch = evr[:i]
		}
		rest = evr[i+1:]
	}

	if dash := strings.LastIndexByte(rest, '-'); dash >= 0 {
		f.Pkgver = rest[:dash]
		f.Pkgrel = rest[dash+1:]
	} else {
		f.Pkgver = rest
	}
	return f
}

// Validate checks the fields makepkg constrains: pkgver must be non-empty
// and free of ':', '/', '-' and whitespace; epoch and pkgrel must be numeric
// when present.
func (f Full) Validate() error {
	if f.Pkgver == "" {
		return fmt.Errorf("pkgver is empty")
	}
	if strings.ContainsAny(f.Pkgver, ":/- \t\n") {
		return fmt.Errorf("pkgver %q contains invalid characters", f.Pkgver)
	}
	if f.Epoch != "" {
		if _, err := strconv.ParseUint(f.Epoch, 10, 32); err != nil {
			return fmt.Errorf("epoch %q must be a non-negative integer", f.Epoch)
		}
	}
	if f.Pkgrel != "" {
		if _, err := strconv.ParseFloat(f.Pkgrel, 64); err != nil || strings.HasPrefix(f.Pkgrel, "-") {
			return fmt.Errorf("pkgrel %q must be a positive number", f.Pkgrel)
		}
	}
	return nil
}

// Compare orders two full versions with pacman's vercmp semantics and
// returns -1, 0 or 1. The release is only compared when both sides have one.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	fa, fb := ParseFull(a), ParseFull(b)

	if ret := compareSegments(fa.Epoch, fb.Epoch); ret != 0 {
		return ret
	}
	if ret := compareSegments(fa.Pkgver, fb.Pkgver); ret != 0 {
		return ret
	}
	if fa.Pkgrel != "" && fb.Pkgrel != "" {
		return compareSegments(fa.Pkgrel, fb.Pkgrel)
	}
	return 0
}

// compareSegments is rpmvercmp: alternating runs of digits and letters are
// compared pairwise, numeric runs beat alpha runs, and a longer separator run
// sorts higher.
func compareSegments(a, b string) int {
	if a == b {
		return 0
	}

	one, two := 0, 0
	for one < len(a) && two < len(b) {
		start1, start2 := one, two
		for one < len(a) && !isAlnum(a[one]) {
			one++
		}
		for two < len(b) && !isAlnum(b[two]) {
			two++
		}
		if one >= len(a) || two >= len(b) {
			break
		}
		if sep1, sep2 := one-start1, two-start2; sep1 != sep2 {
			if sep1 < sep2 {
				return -1
			}
			return 1
		}

		end1, end2 := one, two
		isNum := isDigit(a[one])
		if isNum {
			for end1 < len(a) && isDigit(a[end1]) {
				end1++
			}
			for end2 < len(b) && isDigit(b[end2]) {
				end2++
			}
		} else {
			for end1 < len(a) && isAlpha(a[end1]) {
				end1++
			}
			for end2 < len(b) && isAlpha(b[end2]) {
				end2++
			}
		}

		// Segments of different kinds: numeric wins.
		if two == end2 {
			if isNum {
				return 1
			}
			return -1
		}

		seg1, seg2 := a[one:end1], b[two:end2]
		if isNum {
			seg1 = strings.TrimLeft(seg1, "0")
			seg2 = strings.TrimLeft(seg2, "0")
			if len(seg1) != len(seg2) {
				if len(seg1) > len(seg2) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(seg1, seg2); c != 0 {
			return c
		}

		one, two = end1, end2
	}

	if one >= len(a) && two >= len(b) {
		return 0
	}
	// 1.0 < 1.0.1 and 1.0a < 1.0.
	if (one >= len(a) && !isAlpha(b[two])) || (one < len(a) && isAlpha(a[one])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
