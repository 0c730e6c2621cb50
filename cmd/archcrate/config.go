// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/internal/config"
	"github.com/archcrate/archcrate/pkg/types"
)

// newConfigCommand creates the `archcrate config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	var project string

	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage archcrate configuration",
		Long: `Manage archcrate configuration.

Configuration is merged from, in increasing precedence:
  - built-in defaults
  - the user file: $XDG_CONFIG_HOME/archcrate/config.cue
  - archcrate.cue in the project directory
  - ARCHCRATE_* environment variables (e.g. ARCHCRATE_VERSION_FALLBACK)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cfgCmd.PersistentFlags().StringVar(&project, "project", "", "project directory searched for archcrate.cue (default: current directory)")

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProjectConfig(cmd, app, project)
			if err != nil {
				return err
			}
			showConfig(app, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProjectConfig(cmd, app, project)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path, err := config.UserConfigPath(config.LoadOptions{ConfigFilePath: types.FilesystemPath(app.flags.configFile)})
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default user configuration file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path, wrote, err := config.CreateDefaultConfig(config.LoadOptions{ConfigFilePath: types.FilesystemPath(app.flags.configFile)})
			if err != nil {
				return err
			}
			if !wrote {
				fmt.Fprintf(app.stdout, "%s config file already exists: %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(string(path)))
			return nil
		},
	})

	return cfgCmd
}

func loadProjectConfig(cmd *cobra.Command, app *App, project string) (*config.Config, error) {
	projectDir, err := absDir(project)
	if err != nil {
		return nil, err
	}
	return app.loadConfig(cmd.Context(), projectDir)
}

func showConfig(app *App, cfg *config.Config) {
	w := app.stdout
	key := func(k string) string { return CmdStyle.Render(k) }
	val := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return SuccessStyle.Render(strings.Join(items, ", "))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if len(cfg.Sources) == 0 {
		fmt.Fprintf(w, "%s: %s\n", key("sources"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", key("sources"), list(cfg.Sources))
	}

	fallback := cfg.Version.Fallback
	if fallback == "" {
		fallback = "(Cargo.toml version)"
	}
	fmt.Fprintf(w, "\n%s:\n", key("version"))
	fmt.Fprintf(w, "  fallback: %s\n", val(fallback))
	fmt.Fprintf(w, "  backend: %s\n", val(cfg.Version.Backend))
	fmt.Fprintf(w, "  long: %s\n", val(cfg.Version.Long))
	fmt.Fprintf(w, "  abbrev: %s\n", val(cfg.Version.Abbrev))
	fmt.Fprintf(w, "  match: %s\n", val(cfg.Version.Match))
	fmt.Fprintf(w, "  semver_only: %s\n", val(cfg.Version.SemverOnly))

	fmt.Fprintf(w, "\n%s:\n", key("build"))
	fmt.Fprintf(w, "  tool: %s\n", val(cfg.Build.Tool))
	fmt.Fprintf(w, "  locked: %s\n", val(cfg.Build.Locked))
	fmt.Fprintf(w, "  features: %s\n", list(cfg.Build.Features))
	fmt.Fprintf(w, "  extra_args: %s\n", list(cfg.Build.ExtraArgs))
	fmt.Fprintf(w, "  env_file: %s\n", val(cfg.Build.EnvFile))

	fmt.Fprintf(w, "\n%s:\n", key("package"))
	fmt.Fprintf(w, "  prefix: %s\n", val(cfg.Package.Prefix))
	fmt.Fprintf(w, "  cleanup: %s\n", list(cfg.Package.Cleanup))

	fmt.Fprintf(w, "\n%s:\n", key("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", val(cfg.UI.ColorScheme))
	fmt.Fprintf(w, "  verbose: %s\n", val(cfg.UI.Verbose))
}
