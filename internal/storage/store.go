package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/internal/telemetry/metric"
)

var (
	// ErrNotFound is returned by Get for an unknown ID.
	ErrNotFound = errors.New("storage: snapshot not found")
	// ErrEmpty is returned by Latest when the store holds no snapshot.
	ErrEmpty = errors.New("storage: no snapshots stored")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("storage: store closed")
)

var keyPrefix = []byte("snapshot/")

// Record is one stored snapshot.
type Record struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Fingerprint uint64          `json:"fingerprint"`
	Sources     []string        `json:"sources,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// Store keeps serialized configuration snapshots in Badger.
type Store struct {
	db     *badger.DB
	cfg    Config
	log    logger.Logger
	now    func() time.Time
	closed atomic.Bool

	mu      sync.Mutex
	entropy io.Reader

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates a Store.
func Open(cfg Config, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Default()
	}
	db, err := openDB(cfg, log)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:      db,
		cfg:     cfg,
		log:     log.With("component", "snapshot_store"),
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	s.log.Debug("snapshot store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return s, nil
}

func recordKey(id string) []byte {
	return append(append([]byte(nil), keyPrefix...), id...)
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// Save stores data as a new snapshot and prunes beyond the retention limit.
func (s *Store) Save(ctx context.Context, data []byte, fingerprint uint64, sources []string) (*Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("storage: snapshot data is not valid JSON")
	}

	rec := &Record{
		ID:          s.newID(),
		CreatedAt:   s.now().UTC(),
		Fingerprint: fingerprint,
		Sources:     append([]string(nil), sources...),
		Data:        append(json.RawMessage(nil), data...),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("storage: encode record: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), value)
	}); err != nil {
		return nil, fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	s.log.Info("snapshot saved", "id", rec.ID, "bytes", len(data))

	if s.cfg.Retain > 0 {
		if _, err := s.Prune(ctx, s.cfg.Retain); err != nil {
			s.log.Warn("snapshot prune failed", "error", err)
		}
	}
	return rec, nil
}

// SaveSnapshot stores the serialized form of a load result.
func (s *Store) SaveSnapshot(ctx context.Context, data []byte, result *domain.LoadResult) error {
	var (
		fp      uint64
		sources []string
	)
	if result != nil {
		fp = result.Fingerprint
		for _, src := range result.Contributing() {
			sources = append(sources, src.Name)
		}
	}
	_, err := s.Save(ctx, data, fp, sources)
	return err
}

// LatestSnapshot returns the data of the newest snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) ([]byte, error) {
	rec, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// Get returns the snapshot with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		rec, err = decodeItem(item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the newest snapshot, or ErrEmpty.
func (s *Store) Latest(ctx context.Context) (*Record, error) {
	recs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrEmpty
	}
	return recs[0], nil
}

// List returns up to limit snapshots, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var out []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seekLast()); it.ValidForPrefix(keyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// seekLast is the first key past every record key, for reverse iteration.
func seekLast() []byte {
	return append(append([]byte(nil), keyPrefix...), 0xff)
}

// Count returns the number of stored snapshots.
func (s *Store) Count() (int, error) {
	ids, err := s.ids()
	return len(ids), err
}

// ids returns every record ID, oldest first.
func (s *Store) ids() ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(bytes.TrimPrefix(it.Item().Key(), keyPrefix)))
		}
		return nil
	})
	return ids, err
}

// Prune deletes all but the newest keep snapshots and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	ids, err := s.ids()
	if err != nil {
		return 0, err
	}
	if len(ids) <= keep {
		return 0, nil
	}
	stale := ids[:len(ids)-keep]

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range stale {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := wb.Delete(recordKey(id)); err != nil {
			return 0, fmt.Errorf("storage: prune %s: %w", id, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("storage: prune: %w", err)
	}

	s.log.Info("snapshots pruned", "deleted", len(stale), "kept", keep)
	return len(stale), nil
}

// Backup writes a Badger backup of the whole store to w.
func (s *Store) Backup(w io.Writer) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("storage: backup: %w", err)
	}
	return nil
}

// Collector returns a Prometheus collector reporting the record count.
func (s *Store) Collector() *metric.StoreCollector {
	return metric.NewStoreCollector(s.Count)
}

// Close stops background GC and closes the database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh

	var err error
	if !s.cfg.InMemory {
		err = multierr.Append(err, s.db.Sync())
	}
	err = multierr.Append(err, s.db.Close())
	if err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	return nil
}

func (s *Store) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runs, err := runGC(s.db, s.cfg.GCThreshold)
			if err != nil {
				s.log.Warn("snapshot store gc failed", "error", err)
				continue
			}
			if runs > 0 {
				s.log.Debug("snapshot store gc completed", "rewrites", runs)
			}
		case <-s.stopCh:
			return
		}
	}
}

func decodeItem(item *badger.Item) (*Record, error) {
	var rec Record
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", item.Key(), err)
	}
	return &rec, nil
}
