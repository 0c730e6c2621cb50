// SPDX-License-Identifier: MPL-2.0

// Package config loads archcrate settings with Viper, using CUE as the file
// format.
//
// Sources are merged in this order, later ones winning: built-in defaults,
// the user file ($XDG_CONFIG_HOME/archcrate/config.cue or the platform
// equivalent), archcrate.cue in the project directory, and ARCHCRATE_*
// environment variables (ARCHCRATE_VERSION_FALLBACK, ARCHCRATE_BUILD_LOCKED,
// ...). Files are validated against the embedded config_schema.cue.
package config
