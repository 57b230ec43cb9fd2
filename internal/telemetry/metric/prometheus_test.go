package metric

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry

	r.ObserveLoad(ResultSuccess, time.Second)
	r.ObserveFetch("environment", time.Millisecond)
	r.SourceError("environment", "transient")
	r.SourceRetry("environment")
	r.SourceSkipped("environment")
	r.SetConfigKeys(3)

	if err := r.Register(NewStoreCollector(func() (int, error) { return 0, nil })); err != nil {
		t.Errorf("Register() on nil = %v", err)
	}
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("WriteTextfile() on nil = %v", err)
	}
	if r.Gatherer() != nil {
		t.Error("Gatherer() on nil should be nil")
	}
}

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.ObserveLoad(ResultSuccess, 10*time.Millisecond)
	r.ObserveLoad(ResultSuccess, 10*time.Millisecond)
	r.ObserveLoad(ResultFailure, 10*time.Millisecond)
	r.SourceError("parameter-store", "transient")
	r.SourceRetry("parameter-store")
	r.SourceSkipped("secrets-vault")
	r.SetConfigKeys(42)

	if got := testutil.ToFloat64(r.loadsTotal.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("loads_total{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.loadsTotal.WithLabelValues(ResultFailure)); got != 1 {
		t.Errorf("loads_total{failure} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.sourceErrors.WithLabelValues("parameter-store", "transient")); got != 1 {
		t.Errorf("source_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.sourceSkipped.WithLabelValues("secrets-vault")); got != 1 {
		t.Errorf("source_skipped_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.configKeys); got != 42 {
		t.Errorf("config_keys = %v, want 42", got)
	}
}

func TestStoreCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewStoreCollector(func() (int, error) { return 5, nil })); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	expected := `
# HELP confmesh_snapshot_store_records Number of snapshots held in the last-known-good store
# TYPE confmesh_snapshot_store_records gauge
confmesh_snapshot_store_records 5
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "confmesh_snapshot_store_records"); err != nil {
		t.Error(err)
	}
}

func TestStoreCollector_Error(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewStoreCollector(func() (int, error) { return 0, errors.New("closed") }))

	if _, err := reg.Gather(); err == nil {
		t.Error("Gather() should surface the count error")
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveLoad(ResultSuccess, time.Millisecond)

	path := filepath.Join(t.TempDir(), "confmesh.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `confmesh_loads_total{result="success"} 1`) {
		t.Errorf("textfile missing loads_total:\n%s", data)
	}
}
