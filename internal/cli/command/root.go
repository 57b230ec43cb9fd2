package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/confmesh/internal/bootstrap"
	"github.com/yndnr/confmesh/internal/cli/output"
	"github.com/yndnr/confmesh/internal/config"
	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/infra/buildinfo"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/internal/telemetry/metric"
)

// Metadata keys.
const (
	runtimeKey = "runtime"
	// OptionsKey holds bootstrap.Options used for every App the commands
	// build. Tests set it to inject file systems, environments and clients.
	OptionsKey = "bootstrap.options"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "confmesh",
		Usage:   "Load, merge and inspect layered application configuration",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoadCommand(),
			GetCommand(),
			DumpCommand(),
			CheckCommand(),
			SnapshotCommand(),
			SettingsCommand(),
			VersionCommand(),
		},
		Metadata: map[string]any{},
		Before:   before,
		After:    after,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Settings file (YAML)",
			EnvVars: []string{"CONFMESH_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Runtime environment override (e.g. development, production)",
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: "Precedence strategy: aws-first, local-first",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml, env",
			Value:   string(output.FormatTable),
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write metrics to this node-exporter textfile after the command",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config      string
	Env         string
	Strategy    string
	LogLevel    string
	LogFormat   string
	Output      string
	MetricsFile string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:      c.String("config"),
		Env:         c.String("env"),
		Strategy:    c.String("strategy"),
		LogLevel:    c.String("log-level"),
		LogFormat:   c.String("log-format"),
		Output:      c.String("output"),
		MetricsFile: c.String("metrics-file"),
	}
}

// Overrides maps the flags that were set onto settings keys.
func (f *GlobalFlags) Overrides() map[string]any {
	out := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("runtime.environment", f.Env)
	set("runtime.strategy", f.Strategy)
	set("log.level", f.LogLevel)
	set("log.format", f.LogFormat)
	set("metrics.textfile_path", f.MetricsFile)
	return out
}

// runtime is the per-invocation state shared by commands.
type runtime struct {
	settings *config.Settings
	log      logger.Logger
	metrics  *metric.Registry
	format   output.Format
	opts     bootstrap.Options
}

func before(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}

	settings, err := config.Load(flags.Config, flags.Overrides())
	if err != nil {
		return err
	}

	opts, _ := c.App.Metadata[OptionsKey].(bootstrap.Options)
	if opts.Logger == nil {
		opts.Logger, err = logger.New(logger.Config{
			Level:  settings.Log.Level,
			Format: settings.Log.Format,
			Output: c.App.ErrWriter,
		})
		if err != nil {
			return err
		}
	}
	if opts.Metrics == nil {
		opts.Metrics = metric.NewRegistry()
	}

	c.App.Metadata[runtimeKey] = &runtime{
		settings: settings,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		format:   format,
		opts:     opts,
	}
	return nil
}

func after(c *cli.Context) error {
	rt, ok := c.App.Metadata[runtimeKey].(*runtime)
	if !ok || rt.settings.Metrics.TextfilePath == "" {
		return nil
	}
	if err := rt.metrics.WriteTextfile(rt.settings.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func getRuntime(c *cli.Context) (*runtime, error) {
	rt, ok := c.App.Metadata[runtimeKey].(*runtime)
	if !ok {
		return nil, errors.New("settings not initialized")
	}
	return rt, nil
}

// withApp builds an App from the resolved settings, runs fn and closes the
// App.
func withApp(c *cli.Context, fn func(ctx context.Context, rt *runtime, app *bootstrap.App) error) (err error) {
	rt, err := getRuntime(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, rt.log)

	app, err := bootstrap.Build(ctx, rt.settings, rt.opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, rt, app)
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, rt *runtime, data any) error {
	return output.NewFormatter(rt.format).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return 2
	case domain.KindSourceLoad, domain.KindSourceService:
		return 3
	default:
		return 1
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
