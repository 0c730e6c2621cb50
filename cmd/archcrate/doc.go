// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the archcrate command tree.
//
// Every handler receives an *App and reaches configuration, the external tool
// runner and the version backends through it, so tests can execute the real
// command tree against fakes. Handlers never call os.Exit; failures that need
// a specific status are returned as *ExitError.
package cmd
