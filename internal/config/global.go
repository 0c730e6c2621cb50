// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride lets tests pin the config directory without touching
// HOME or XDG_CONFIG_HOME.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride replaces the platform config directory.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
