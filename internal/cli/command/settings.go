package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/confmesh/internal/cli/output"
	"github.com/yndnr/confmesh/internal/config"
)

// SettingsCommand returns the settings subcommand group.
func SettingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Inspect confmesh's own settings",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show effective settings after file, environment and flags (secrets masked)",
				Action: settingsShow,
			},
			{
				Name:   "keys",
				Usage:  "List settings set by the file, environment or flags (defaults omitted)",
				Action: settingsKeys,
			},
		},
	}
}

func settingsShow(c *cli.Context) error {
	rt, err := getRuntime(c)
	if err != nil {
		return err
	}
	sanitized := config.Sanitize(rt.settings)

	// Settings nest too deeply for a two-column table.
	format := rt.format
	if format == output.FormatTable || format == output.FormatEnv {
		format = output.FormatYAML
	}
	return output.NewFormatter(format).Format(writer(c), sanitized)
}

func settingsKeys(c *cli.Context) error {
	rt, err := getRuntime(c)
	if err != nil {
		return err
	}
	flags := ParseGlobalFlags(c)
	keys, err := config.Explicit(flags.Config, flags.Overrides())
	if err != nil {
		return err
	}

	// Dotted names are not valid env keys.
	format := rt.format
	if format == output.FormatEnv {
		format = output.FormatTable
	}
	return output.NewFormatter(format).Format(writer(c), keys)
}
