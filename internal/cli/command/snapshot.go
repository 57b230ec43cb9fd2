package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/confmesh/internal/bootstrap"
	"github.com/yndnr/confmesh/internal/cli/output"
	"github.com/yndnr/confmesh/internal/engine"
	"github.com/yndnr/confmesh/internal/storage"
)

// SnapshotCommand returns the snapshot subcommand group.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Inspect and manage stored last-known-good configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored snapshots, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots (0 = all)",
					},
				},
				Action: snapshotList,
			},
			{
				Name:      "show",
				Usage:     "Print the configuration held by a snapshot",
				ArgsUsage: "ID",
				Action:    snapshotShow,
			},
			{
				Name:      "restore",
				Usage:     "Install a snapshot (default: the latest) and print the configuration",
				ArgsUsage: "[ID]",
				Action:    snapshotRestore,
			},
			{
				Name:  "prune",
				Usage: "Delete all but the newest snapshots",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Number of snapshots to keep (default: store.retain)",
						Value: -1,
					},
				},
				Action: snapshotPrune,
			},
		},
	}
}

// snapshotEntry is a Record without its payload.
type snapshotEntry struct {
	ID          string    `json:"id" yaml:"id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Sources     []string  `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// withStore opens the configured snapshot store, runs fn and closes it.
func withStore(c *cli.Context, fn func(ctx context.Context, rt *runtime, store *storage.Store) error) (err error) {
	rt, err := getRuntime(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := bootstrap.OpenStore(rt.settings.Store, rt.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, rt, store)
}

func snapshotList(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, rt *runtime, store *storage.Store) error {
		records, err := store.List(ctx, c.Int("limit"))
		if err != nil {
			return err
		}

		entries := make([]snapshotEntry, len(records))
		for i, r := range records {
			entries[i] = snapshotEntry{
				ID:          r.ID,
				CreatedAt:   r.CreatedAt,
				Fingerprint: formatFingerprint(r.Fingerprint),
				Sources:     r.Sources,
			}
		}

		if rt.format != output.FormatTable {
			return render(c, rt, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(writer(c), "No snapshots stored.")
			return nil
		}
		tbl := output.NewTable("ID", "CREATED", "FINGERPRINT", "SOURCES")
		for _, e := range entries {
			tbl.AddRow(e.ID, output.Cell(e.CreatedAt), e.Fingerprint, output.Cell(strings.Join(e.Sources, ",")))
		}
		return tbl.Render(writer(c))
	})
}

func snapshotShow(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("snapshot show requires exactly one ID argument", 1)
	}
	return withStore(c, func(ctx context.Context, rt *runtime, store *storage.Store) error {
		rec, err := store.Get(ctx, c.Args().First())
		if err != nil {
			return err
		}
		var values map[string]any
		if err := json.Unmarshal(rec.Data, &values); err != nil {
			return fmt.Errorf("decode snapshot %s: %w", rec.ID, err)
		}
		return render(c, rt, values)
	})
}

func snapshotRestore(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("snapshot restore takes at most one ID argument", 1)
	}
	return withStore(c, func(ctx context.Context, rt *runtime, store *storage.Store) error {
		var (
			rec *storage.Record
			err error
		)
		if id := c.Args().First(); id != "" {
			rec, err = store.Get(ctx, id)
		} else {
			rec, err = store.Latest(ctx)
		}
		if err != nil {
			return err
		}

		e, err := engine.Restore(rec.Data,
			engine.WithSchema(rt.opts.Schema),
			engine.WithValidateOnLoad(rt.settings.Runtime.ValidateOnLoad),
			engine.WithLogger(rt.log),
			engine.WithMetrics(rt.metrics),
		)
		if err != nil {
			return err
		}
		if err := e.Require(rt.settings.Runtime.Require...); err != nil {
			return err
		}

		rt.log.Info("snapshot restored", "id", rec.ID, "created_at", rec.CreatedAt)
		values, err := e.GetAll()
		if err != nil {
			return err
		}
		return render(c, rt, values)
	})
}

func snapshotPrune(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, rt *runtime, store *storage.Store) error {
		keep := c.Int("keep")
		if keep < 0 {
			keep = rt.settings.Store.Retain
		}
		n, err := store.Prune(ctx, keep)
		if err != nil {
			return err
		}
		if rt.format != output.FormatTable {
			return render(c, rt, map[string]any{"pruned": n, "kept": keep})
		}
		fmt.Fprintf(writer(c), "Pruned %d snapshot(s), keeping at most %d.\n", n, keep)
		return nil
	})
}
