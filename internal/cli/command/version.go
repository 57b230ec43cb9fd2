package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/confmesh/internal/cli/output"
	"github.com/yndnr/confmesh/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Print build information",
		Action: runVersion,
	}
}

func runVersion(c *cli.Context) error {
	info := buildinfo.Get()
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	if format == output.FormatTable || format == output.FormatEnv {
		_, err := fmt.Fprintln(writer(c), buildinfo.String())
		return err
	}
	return output.NewFormatter(format).Format(writer(c), info)
}
