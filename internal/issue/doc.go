// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// pages rendered with glamour.
//
// Commands wrap failures in ActionableError so the terminal shows the
// operation, the resource and what to try next; a linked catalog Issue
// gives the longer explanation.
package issue
