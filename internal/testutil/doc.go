// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail fast instead of returning
// errors: environment and file helpers (MustSetenv, MustWriteFile) and GitRepo,
// an on-disk git repository fixture built with go-git so describe behaviour can
// be tested without a git binary.
package testutil
