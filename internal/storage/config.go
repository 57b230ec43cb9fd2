package storage

import "time"

// Config configures a Store.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string `koanf:"dir" json:"dir" yaml:"dir"`

	// InMemory keeps every record in memory.
	InMemory bool `koanf:"in_memory" json:"in_memory" yaml:"in_memory"`

	// Retain is the number of snapshots kept after each save. Zero keeps all.
	Retain int `koanf:"retain" json:"retain" yaml:"retain"`

	// GCInterval is the time between value log GC runs. Zero disables GC.
	GCInterval time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64 `koanf:"gc_threshold" json:"gc_threshold" yaml:"gc_threshold"`

	// CacheSize is the block cache size in bytes.
	CacheSize int64 `koanf:"cache_size" json:"cache_size" yaml:"cache_size"`

	// ValueLogFileSize is the max value log file size in bytes.
	ValueLogFileSize int64 `koanf:"value_log_file_size" json:"value_log_file_size" yaml:"value_log_file_size"`

	// SyncWrites fsyncs after every write.
	SyncWrites bool `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
}

// DefaultConfig returns the disk-backed defaults for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		Retain:           20,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,
		ValueLogFileSize: 64 << 20,
		SyncWrites:       true,
	}
}

// MemoryConfig returns an in-memory configuration.
func MemoryConfig() Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.GCInterval = 0
	cfg.SyncWrites = false
	return cfg
}
