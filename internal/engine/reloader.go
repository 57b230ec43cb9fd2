package engine

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// Loader runs one load cycle.
type Loader interface {
	Load(ctx context.Context) (*domain.LoadResult, error)
}

// Reloader collapses concurrent reload triggers into a single Load.
// Callers that join an in-flight load receive its result.
type Reloader struct {
	loader Loader
	log    logger.Logger
	group  singleflight.Group

	last  atomic.Uint64
	count atomic.Int64
}

// NewReloader wraps loader. A nil logger uses the default logger.
func NewReloader(loader Loader, log logger.Logger) *Reloader {
	if log == nil {
		log = logger.Default()
	}
	return &Reloader{loader: loader, log: log}
}

// Reload runs a load, or waits for the one already in flight. shared reports
// whether the result was delivered to more than one caller. If ctx ends while
// waiting, Reload returns ctx.Err() and the flight keeps running.
//
// The flight carries the values of the starting caller's ctx but not its
// cancellation, so one caller giving up never fails the callers that joined.
func (r *Reloader) Reload(ctx context.Context) (result *domain.LoadResult, shared bool, err error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan("load", func() (any, error) {
		return r.run(flightCtx)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		return res.Val.(*domain.LoadResult), res.Shared, nil
	}
}

func (r *Reloader) run(ctx context.Context) (*domain.LoadResult, error) {
	result, err := r.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	n := r.count.Add(1)
	prev := r.last.Swap(result.Fingerprint)
	if n > 1 && prev == result.Fingerprint {
		r.log.Info("configuration unchanged after reload", "reloads", n)
	} else if n > 1 {
		r.log.Info("configuration changed after reload", "reloads", n, "keys", len(result.Config))
	}
	return result, nil
}

// Reloads returns the number of successful loads run through r.
func (r *Reloader) Reloads() int64 {
	return r.count.Load()
}
