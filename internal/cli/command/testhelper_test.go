package command

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/confmesh/internal/bootstrap"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// harness runs the CLI against a settings file in a temp directory with an
// injected process environment.
type harness struct {
	t        *testing.T
	dir      string
	settings string
	environ  []string
}

func newHarness(t *testing.T, environ ...string) *harness {
	t.Helper()
	h := &harness{t: t, dir: t.TempDir(), environ: environ}
	h.writeSettings("", "")
	return h
}

// writeSettings writes a settings file with only the environment source
// enabled and a disk store under the temp dir. runtimeYAML is appended to the
// runtime section, storeYAML to the store section and extra at the top level.
func (h *harness) writeSettings(runtimeYAML, storeYAML string, extra ...string) {
	h.t.Helper()
	body := fmt.Sprintf(`runtime:
  environment: development
%ssources:
  environment:
    enabled: true
  local_file:
    enabled: false
store:
  dir: %s
%s%s`, runtimeYAML, filepath.Join(h.dir, "snapshots"), storeYAML, strings.Join(extra, ""))

	h.settings = filepath.Join(h.dir, "confmesh.yaml")
	if err := os.WriteFile(h.settings, []byte(body), 0o600); err != nil {
		h.t.Fatalf("write settings: %v", err)
	}
}

// run executes the CLI with global flags and command args and returns
// stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Metadata[OptionsKey] = bootstrap.Options{
		Logger:  logger.Nop(),
		Environ: func() []string { return h.environ },
		Lookup:  func(string) (string, bool) { return "", false },
	}

	full := append([]string{"confmesh", "--config", h.settings}, args...)
	err := app.Run(full)
	return stdout.String(), err
}
