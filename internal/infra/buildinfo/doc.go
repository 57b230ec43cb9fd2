// Package buildinfo reports the version of the confmesh binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/confmesh/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/yndnr/confmesh/internal/infra/buildinfo.Commit=abc123"
//
// Values left unset fall back to what the Go toolchain recorded in the
// binary (module version, vcs revision and time).
package buildinfo
