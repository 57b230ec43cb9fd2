package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/pkg/envfile"
)

// DefaultLocalFilePaths are read when no paths are configured.
var DefaultLocalFilePaths = []string{".env", ".env.local"}

// LocalFileConfig configures the local file source.
type LocalFileConfig struct {
	// Paths are read in order. Defaults to DefaultLocalFilePaths.
	Paths []string `koanf:"paths"`
	// Encoding is an IANA charset name. Empty means UTF-8.
	Encoding string `koanf:"encoding"`
	// Override lets later files replace keys from earlier ones. When false
	// the first file that sets a key wins.
	Override *bool `koanf:"override"`
}

// LocalFile reads KEY=VALUE files.
type LocalFile struct {
	paths    []string
	override bool
	enc      encoding.Encoding
	fs       FileSystem
	log      logger.Logger
}

// NewLocalFile creates a local file source. It fails only for an unknown
// encoding.
func NewLocalFile(cfg LocalFileConfig, opts ...Option) (*LocalFile, error) {
	o := buildOptions(opts)

	paths := cfg.Paths
	if len(paths) == 0 {
		paths = DefaultLocalFilePaths
	}
	override := true
	if cfg.Override != nil {
		override = *cfg.Override
	}

	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	return &LocalFile{
		paths:    append([]string(nil), paths...),
		override: override,
		enc:      enc,
		fs:       o.fs,
		log:      o.logger.With("source", string(domain.SourceLocalFile)),
	}, nil
}

// lookupEncoding returns nil for UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("local file encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("local file encoding %q is not supported", name)
	}
	return enc, nil
}

// Paths returns the configured paths in read order.
func (f *LocalFile) Paths() []string {
	return append([]string(nil), f.paths...)
}

// Name implements Source.
func (f *LocalFile) Name() string { return string(domain.SourceLocalFile) }

// Kind implements Source.
func (f *LocalFile) Kind() domain.SourceKind { return domain.SourceLocalFile }

// Available implements Source: true if any configured file can be opened.
func (f *LocalFile) Available(context.Context) bool {
	for _, p := range f.paths {
		rc, err := f.fs.Open(p)
		if err != nil {
			continue
		}
		_ = rc.Close()
		return true
	}
	return false
}

// Fetch implements Source. Missing files are skipped; unreadable files fail
// the fetch.
func (f *LocalFile) Fetch(context.Context) (domain.ConfigMap, error) {
	out := make(domain.ConfigMap)

	for _, p := range f.paths {
		data, err := f.fs.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			f.log.Debug("file not found, skipping", "path", p)
			continue
		}
		if err != nil {
			return nil, domain.NewSourceLoadError(f.Name(), "read "+p, err)
		}

		if f.enc != nil {
			data, err = f.enc.NewDecoder().Bytes(data)
			if err != nil {
				return nil, domain.NewSourceLoadError(f.Name(), "decode "+p, err)
			}
		}

		parsed := envfile.Parse(string(data))
		for k, v := range parsed {
			if _, seen := out[k]; seen && !f.override {
				continue
			}
			out[k] = v
		}
		f.log.Debug("file parsed", "path", p, "keys", len(parsed))
	}

	return out, nil
}
