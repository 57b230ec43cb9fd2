package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// openDB opens the Badger database described by cfg.
func openDB(cfg Config, log logger.Logger) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("storage: dir is required")
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}

	opts.Logger = &badgerLogger{log: log.With("component", "badger")}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 && !cfg.InMemory {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}
	return db, nil
}

// runGC reclaims value log space until Badger reports nothing to rewrite.
// It returns the number of rewrites performed.
func runGC(db *badger.DB, threshold float64) (int, error) {
	runs := 0
	for {
		err := db.RunValueLogGC(threshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return runs, nil
		}
		if err != nil {
			return runs, fmt.Errorf("value log gc: %w", err)
		}
		runs++
	}
}

// badgerLogger routes Badger's printf-style logging into the application
// logger. Badger's info output is demoted to debug.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(trim(format, args))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(trim(format, args))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(trim(format, args))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(trim(format, args))
}

func trim(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
