package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/confmesh/internal/bootstrap"
	"github.com/yndnr/confmesh/internal/cli/output"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/internal/transform"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Load configuration and print one value",
		ArgsUsage: "KEY",
		Action:    runGet,
	}
}

// DumpCommand returns the dump command.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Load configuration and print the merged result",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact",
				Usage: "Mask values of keys that look secret",
			},
			&cli.BoolFlag{
				Name:  "coerce",
				Usage: "Convert numeric and boolean strings to typed values",
			},
		},
		Action: runDump,
	}
}

// CheckCommand returns the check command.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Load and validate configuration, failing when required keys are missing",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "require",
				Aliases: []string{"r"},
				Usage:   "Key that must be present (repeatable)",
			},
		},
		Action: runCheck,
	}
}

func runGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("get requires exactly one KEY argument", 1)
	}
	key := c.Args().First()

	return withApp(c, func(ctx context.Context, rt *runtime, app *bootstrap.App) error {
		out, err := app.Load(ctx)
		if err != nil {
			return err
		}
		value, ok, err := out.Engine.Lookup(key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q not found", key)
		}

		switch rt.format {
		case output.FormatTable:
			_, err := fmt.Fprintln(writer(c), output.Cell(value))
			return err
		case output.FormatEnv:
			return render(c, rt, map[string]any{key: value})
		default:
			return render(c, rt, value)
		}
	})
}

func runDump(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, rt *runtime, app *bootstrap.App) error {
		out, err := app.Load(ctx)
		if err != nil {
			return err
		}
		values, err := out.Engine.GetAll()
		if err != nil {
			return err
		}
		if c.Bool("coerce") {
			values = transform.Coerce(values)
		}
		if c.Bool("redact") {
			values = logger.RedactMap(values)
		}
		return render(c, rt, values)
	})
}

func runCheck(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, rt *runtime, app *bootstrap.App) error {
		out, err := app.Load(ctx)
		if err != nil {
			return err
		}
		required := c.StringSlice("require")
		if err := out.Engine.Require(required...); err != nil {
			return err
		}

		w := writer(c)
		fmt.Fprintf(w, "OK: %d keys loaded (%s)", len(out.Result.Config), out.Mode)
		if n := len(required) + len(rt.settings.Runtime.Require); n > 0 {
			fmt.Fprintf(w, ", %d required keys present", n)
		}
		fmt.Fprintln(w)
		return nil
	})
}
