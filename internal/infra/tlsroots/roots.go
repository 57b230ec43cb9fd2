package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// ErrNoCerts is returned when PEM data holds no CERTIFICATE block.
var ErrNoCerts = errors.New("tlsroots: no certificates found")

// Bundle is a pool of trusted roots.
type Bundle struct {
	pool  *x509.CertPool
	added int
}

// New returns a bundle seeded with the system roots, or an empty one where
// the platform has none.
func New() *Bundle {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Bundle{pool: pool}
}

// Empty returns a bundle without system roots.
func Empty() *Bundle {
	return &Bundle{pool: x509.NewCertPool()}
}

// Load returns the system roots extended with the certificates in file and
// every *.pem, *.crt and *.cer file in dir. It returns nil when both are
// empty so callers keep the SDK default transport.
func Load(file, dir string) (*Bundle, error) {
	if file == "" && dir == "" {
		return nil, nil
	}
	b := New()
	if file != "" {
		if err := b.AddFile(file); err != nil {
			return nil, err
		}
	}
	if dir != "" {
		if err := b.AddDir(dir); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AddPEM adds every CERTIFICATE block in data and returns how many were
// added. Other block types are ignored.
func (b *Bundle) AddPEM(data []byte) (int, error) {
	n := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return n, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		b.pool.AddCert(cert)
		n++
	}
	b.added += n
	if n == 0 {
		return 0, ErrNoCerts
	}
	return n, nil
}

// AddFile adds the certificates in a PEM file.
func (b *Bundle) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	if _, err := b.AddPEM(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// AddDir adds every certificate file in dir. Subdirectories are not
// walked. Bad files are reported together after the whole directory was
// read.
func (b *Bundle) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}

	var errs error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
			errs = multierr.Append(errs, b.AddFile(filepath.Join(dir, entry.Name())))
		}
	}
	return errs
}

// Added returns how many certificates were added on top of the system roots.
func (b *Bundle) Added() int {
	return b.added
}

// CertPool returns the underlying pool.
func (b *Bundle) CertPool() *x509.CertPool {
	return b.pool
}

// TLSConfig returns a client TLS config trusting the bundle.
func (b *Bundle) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    b.pool,
		MinVersion: tls.VersionTLS12,
	}
}
