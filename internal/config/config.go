// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/archcrate/archcrate/internal/issue"
	"github.com/archcrate/archcrate/pkg/cueutil"
	"github.com/archcrate/archcrate/pkg/types"
)

const (
	// AppName is the application name.
	AppName = "archcrate"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the per-project config file read from the project
	// directory.
	ProjectFileName = "archcrate.cue"
	// EnvPrefix prefixes environment overrides, e.g. ARCHCRATE_VERSION_FALLBACK.
	EnvPrefix = "ARCHCRATE"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the archcrate configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// UserConfigPath returns the user config file path for opts.
func UserConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return string(opts.ConfigFilePath), nil
	}
	dir, err := configDirWithOverride(string(opts.ConfigDirPath))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions merges defaults, the user file, the project file and the
// environment. It does not cache.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var sources []string

	userPath, err := UserConfigPath(opts)
	if err != nil {
		return nil, err
	}
	switch {
	case fileExists(userPath):
		if err := loadCUEIntoViper(v, userPath); err != nil {
			return nil, loadError(userPath, err)
		}
		sources = append(sources, userPath)
	case opts.ConfigFilePath != "":
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(userPath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'archcrate config init' to create a config file").
			Wrap(fmt.Errorf("config file not found: %s", userPath)).
			BuildError()
	}

	if opts.ProjectDir != "" {
		projectPath := string(opts.ProjectDir.Join(ProjectFileName))
		if fileExists(projectPath) {
			if err := loadCUEIntoViper(v, projectPath); err != nil {
				return nil, loadError(projectPath, err)
			}
			sources = append(sources, projectPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Sources = sources

	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithSuggestion("Run 'archcrate config show' to see the effective values").
			Wrap(errs[0]).
			BuildError()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version.fallback", d.Version.Fallback)
	v.SetDefault("version.backend", string(d.Version.Backend))
	v.SetDefault("version.long", d.Version.Long)
	v.SetDefault("version.abbrev", d.Version.Abbrev)
	v.SetDefault("version.match", d.Version.Match)
	v.SetDefault("version.semver_only", d.Version.SemverOnly)
	v.SetDefault("build.tool", d.Build.Tool)
	v.SetDefault("build.locked", d.Build.Locked)
	v.SetDefault("build.features", d.Build.Features)
	v.SetDefault("build.extra_args", d.Build.ExtraArgs)
	v.SetDefault("build.env_file", d.Build.EnvFile)
	v.SetDefault("package.prefix", d.Package.Prefix)
	v.SetDefault("package.cleanup", d.Package.Cleanup)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Compare it with the output of 'archcrate config dump'").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// Fields are optional, so validation does not require concrete values.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config to the user config path
// unless a file is already there. It returns the path and whether it wrote.
func CreateDefaultConfig(opts LoadOptions) (types.FilesystemPath, bool, error) {
	path, err := UserConfigPath(opts)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return types.FilesystemPath(path), false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return types.FilesystemPath(path), true, nil
}

// GenerateCUE renders cfg as a config file accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// archcrate configuration\n")
	sb.WriteString("// Values here are overridden by archcrate.cue in a project and by ARCHCRATE_* variables.\n\n")

	sb.WriteString("version: {\n")
	fmt.Fprintf(&sb, "\tfallback:    %q\n", cfg.Version.Fallback)
	fmt.Fprintf(&sb, "\tbackend:     %q\n", cfg.Version.Backend)
	fmt.Fprintf(&sb, "\tlong:        %v\n", cfg.Version.Long)
	fmt.Fprintf(&sb, "\tabbrev:      %d\n", cfg.Version.Abbrev)
	if cfg.Version.Match != "" {
		fmt.Fprintf(&sb, "\tmatch:       %q\n", cfg.Version.Match)
	}
	fmt.Fprintf(&sb, "\tsemver_only: %v\n", cfg.Version.SemverOnly)
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\ttool:       %q\n", cfg.Build.Tool)
	fmt.Fprintf(&sb, "\tlocked:     %v\n", cfg.Build.Locked)
	fmt.Fprintf(&sb, "\tfeatures:   %s\n", cueList(cfg.Build.Features))
	fmt.Fprintf(&sb, "\textra_args: %s\n", cueList(cfg.Build.ExtraArgs))
	if cfg.Build.EnvFile != "" {
		fmt.Fprintf(&sb, "\tenv_file:   %q\n", cfg.Build.EnvFile)
	}
	sb.WriteString("}\n")

	sb.WriteString("\npackage: {\n")
	fmt.Fprintf(&sb, "\tprefix:  %q\n", cfg.Package.Prefix)
	fmt.Fprintf(&sb, "\tcleanup: %s\n", cueList(cfg.Package.Cleanup))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
