// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/archcrate/archcrate/internal/cargo"
	"github.com/archcrate/archcrate/internal/vcs"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	minAbbrev = 4
	maxAbbrev = 40
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// Config is the merged configuration: defaults, user file, project file
	// and ARCHCRATE_* environment, in increasing precedence.
	Config struct {
		Version VersionConfig `json:"version" mapstructure:"version"`
		Build   BuildConfig   `json:"build" mapstructure:"build"`
		Package PackageConfig `json:"package" mapstructure:"package"`
		UI      UIConfig      `json:"ui" mapstructure:"ui"`

		// Sources lists the files that were merged, lowest precedence first.
		Sources []string `json:"-" mapstructure:"-"`
	}

	// VersionConfig configures the version phase.
	VersionConfig struct {
		Fallback   string      `json:"fallback" mapstructure:"fallback"`
		Backend    vcs.Backend `json:"backend" mapstructure:"backend"`
		Long       bool        `json:"long" mapstructure:"long"`
		Abbrev     int         `json:"abbrev" mapstructure:"abbrev"`
		Match      string      `json:"match" mapstructure:"match"`
		SemverOnly bool        `json:"semver_only" mapstructure:"semver_only"`
	}

	// BuildConfig configures cargo invocations.
	BuildConfig struct {
		Tool      string   `json:"tool" mapstructure:"tool"`
		Locked    bool     `json:"locked" mapstructure:"locked"`
		Features  []string `json:"features" mapstructure:"features"`
		ExtraArgs []string `json:"extra_args" mapstructure:"extra_args"`
		EnvFile   string   `json:"env_file" mapstructure:"env_file"`
	}

	// PackageConfig configures the install layout.
	PackageConfig struct {
		Prefix  string   `json:"prefix" mapstructure:"prefix"`
		Cleanup []string `json:"cleanup" mapstructure:"cleanup"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: VersionConfig{
			Backend: vcs.BackendGoGit,
			Abbrev:  vcs.DefaultAbbrev,
		},
		Build: BuildConfig{
			Tool:      cargo.DefaultTool,
			Features:  []string{},
			ExtraArgs: []string{},
		},
		Package: PackageConfig{
			Prefix:  cargo.DefaultPrefix,
			Cleanup: append([]string(nil), cargo.DefaultCleanup...),
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Error implements error.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("%s: %q (expected auto, dark or light)", ErrInvalidColorScheme, e.Value)
}

// Unwrap returns ErrInvalidColorScheme.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid reports whether c is a known scheme.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	}
	return false, []error{&InvalidColorSchemeError{Value: c}}
}

// Error implements error.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidConfig, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid checks constraints that also apply to environment overrides,
// which bypass the CUE schema.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.Version.Backend.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.Version.Abbrev < minAbbrev || c.Version.Abbrev > maxAbbrev {
		errs = append(errs, fmt.Errorf("version.abbrev: %d is outside %d..%d", c.Version.Abbrev, minAbbrev, maxAbbrev))
	}
	if c.Build.Tool == "" {
		errs = append(errs, errors.New("build.tool: must not be empty"))
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DescribeOptions converts the version section for the vcs package.
func (c *Config) DescribeOptions() vcs.Options {
	return vcs.Options{
		Long:       c.Version.Long,
		Abbrev:     c.Version.Abbrev,
		Match:      c.Version.Match,
		SemverOnly: c.Version.SemverOnly,
	}
}

// CargoOptions converts the build section for the cargo package.
func (c *Config) CargoOptions() cargo.Options {
	return cargo.Options{
		Tool:      c.Build.Tool,
		Locked:    c.Build.Locked,
		Features:  c.Build.Features,
		ExtraArgs: c.Build.ExtraArgs,
	}
}

// InstallOptions converts the build and package sections for the cargo
// package. Paths are left for the caller.
func (c *Config) InstallOptions() cargo.InstallOptions {
	return cargo.InstallOptions{
		Options: c.CargoOptions(),
		Prefix:  c.Package.Prefix,
		Cleanup: c.Package.Cleanup,
	}
}
