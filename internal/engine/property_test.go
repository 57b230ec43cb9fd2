package engine

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/precedence"
	"github.com/yndnr/confmesh/internal/source"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

var allKinds = []domain.SourceKind{
	domain.SourceEnvironment,
	domain.SourceLocalFile,
	domain.SourceObjectStore,
	domain.SourceSecretsVault,
	domain.SourceParameterStore,
}

func genKey() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Z][A-Z0-9_]{0,8}`)
}

// genValue draws values of the shapes sources produce, nested up to depth.
func genValue(depth int) *rapid.Generator[any] {
	leaves := []*rapid.Generator[any]{
		rapid.Map(rapid.String(), func(s string) any { return s }),
		rapid.Map(rapid.SliceOfN(rapid.Byte(), 0, 8), func(b []byte) any { return string(b) }),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Map(rapid.IntRange(-1_000_000, 1_000_000), func(n int) any { return float64(n) }),
		rapid.Just[any](nil),
	}
	if depth == 0 {
		return rapid.OneOf(leaves...)
	}
	return rapid.OneOf(append(leaves,
		rapid.Map(rapid.MapOfN(genKey(), genValue(depth-1), 0, 3), func(m map[string]any) any { return m }),
		rapid.Map(rapid.SliceOfN(genValue(depth-1), 0, 3), func(s []any) any { return s }),
	)...)
}

func TestProperty_SerializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.MapOfN(genKey(), genValue(2), 0, 8).Draw(t, "values")

		e := newEngine([]source.Source{env(values)})
		if _, err := e.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		data, err := e.Serialize()
		if err != nil {
			t.Fatalf("Serialize() error = %v", err)
		}

		restored, err := Restore(data, WithLogger(logger.Nop()))
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		want, _ := e.GetAll()
		got, _ := restored.GetAll()

		if !reflect.DeepEqual(want, got) {
			t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, want)
		}
		before, _ := e.Snapshot()
		after, _ := restored.Snapshot()
		if before.Fingerprint() != after.Fingerprint() {
			t.Fatal("fingerprint changed across round trip")
		}
		if !restored.Loaded() {
			t.Fatal("restored engine should be Loaded")
		}
	})
}

func TestProperty_UnavailableNeverContributes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, len(allKinds)).Draw(t, "sources")
		kinds := rapid.Permutation(allKinds).Draw(t, "kinds")[:n]

		var sources []source.Source
		union := map[string]bool{}
		for i, kind := range kinds {
			keys := rapid.SliceOfNDistinct(genKey(), 0, 4, rapid.ID[string]).Draw(t, fmt.Sprintf("keys%d", i))
			values := domain.ConfigMap{}
			for _, k := range keys {
				values[k] = string(kind)
			}
			down := rapid.Bool().Draw(t, fmt.Sprintf("down%d", i))
			if !down {
				for _, k := range keys {
					union[k] = true
				}
			}
			sources = append(sources, &fakeSource{name: string(kind), kind: kind, down: down, values: values})
		}
		strategy := rapid.SampledFrom([]precedence.Strategy{precedence.AWSFirst, precedence.LocalFirst}).Draw(t, "strategy")

		e := newEngine(sources, WithPrecedence(precedence.Named(strategy)))
		result, err := e.Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if len(result.Config) != len(union) {
			t.Fatalf("merged %d keys, want union of %d", len(result.Config), len(union))
		}
		for k := range union {
			if _, ok := result.Config[k]; !ok {
				t.Fatalf("key %q from an available source is missing", k)
			}
		}
		for _, src := range sources {
			f := src.(*fakeSource)
			if f.down && f.fetches.Load() != 0 {
				t.Fatalf("unavailable source %q was fetched", f.name)
			}
		}
	})
}

func TestProperty_HighestPriorityWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kinds := rapid.Permutation(allKinds).Draw(t, "input order")
		strategy := rapid.SampledFrom([]precedence.Strategy{precedence.AWSFirst, precedence.LocalFirst}).Draw(t, "strategy")

		sources := make([]source.Source, len(kinds))
		for i, kind := range kinds {
			sources[i] = &fakeSource{name: string(kind), kind: kind, values: domain.ConfigMap{"KEY": string(kind)}}
		}

		e := newEngine(sources, WithPrecedence(precedence.Named(strategy)))
		if _, err := e.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		order := strategy.Order()
		want := string(order[len(order)-1])
		if got, _ := e.Get("KEY"); got != want {
			t.Fatalf("KEY = %v, want %v", got, want)
		}
	})
}
