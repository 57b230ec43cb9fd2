package precedence

import (
	"sort"

	"github.com/yndnr/confmesh/internal/core/domain"
)

// Entry is one fetched source and its mapping.
type Entry struct {
	Source domain.Descriptor
	Values domain.ConfigMap
}

// Result is the outcome of a merge.
type Result struct {
	Values domain.ConfigMap

	// Provenance maps each key to the name of the source that last set it.
	Provenance map[string]string

	// Overrides lists every collision in merge order.
	Overrides []domain.Override
}

// Resolver computes priorities and merges mappings for a fixed Spec.
type Resolver struct {
	spec      Spec
	onUnknown func(domain.Descriptor)
	rank      map[domain.SourceKind]int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithUnknownHook is called whenever an explicit spec has no entry for a
// source and the default priority 0 is used.
func WithUnknownHook(fn func(domain.Descriptor)) Option {
	return func(r *Resolver) {
		r.onUnknown = fn
	}
}

// NewResolver creates a Resolver for spec.
func NewResolver(spec Spec, opts ...Option) *Resolver {
	r := &Resolver{spec: spec}
	for _, opt := range opts {
		opt(r)
	}
	if !spec.IsExplicit() {
		order := spec.Strategy().Order()
		r.rank = make(map[domain.SourceKind]int, len(order))
		for i, k := range order {
			r.rank[k] = i
		}
	}
	return r
}

// Spec returns the resolver's spec.
func (r *Resolver) Spec() Spec {
	return r.spec
}

// Priority returns the priority of a source. Named strategies rank by kind;
// explicit specs match the source name first, then its kind.
func (r *Resolver) Priority(d domain.Descriptor) int {
	return r.priority(d, true)
}

func (r *Resolver) priority(d domain.Descriptor, report bool) int {
	if !r.spec.IsExplicit() {
		if p, ok := r.rank[d.Kind]; ok {
			return p
		}
		return -1
	}

	for _, p := range r.spec.priorities {
		if p.Name == d.Name {
			return p.Value
		}
	}
	for _, p := range r.spec.priorities {
		if p.Name == string(d.Kind) {
			return p.Value
		}
	}
	if report && r.onUnknown != nil {
		r.onUnknown(d)
	}
	return 0
}

// Order returns the indexes of descs sorted by ascending priority. Sources
// with equal priority keep their input order.
func (r *Resolver) Order(descs []domain.Descriptor) []int {
	return r.order(descs, true)
}

func (r *Resolver) order(descs []domain.Descriptor, report bool) []int {
	prio := make([]int, len(descs))
	idx := make([]int, len(descs))
	for i, d := range descs {
		prio[i] = r.priority(d, report)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return prio[idx[a]] < prio[idx[b]]
	})
	return idx
}

// Merge sorts entries by priority and applies them in order with shallow
// overwrite. The last writer of a key wins. Merge never calls the unknown hook.
func (r *Resolver) Merge(entries []Entry) Result {
	descs := make([]domain.Descriptor, len(entries))
	for i, e := range entries {
		descs[i] = e.Source
	}

	res := Result{
		Values:     make(domain.ConfigMap),
		Provenance: make(map[string]string),
	}

	for _, i := range r.order(descs, false) {
		e := entries[i]
		for _, k := range domain.SortedKeys(e.Values) {
			if prev, ok := res.Provenance[k]; ok {
				res.Overrides = append(res.Overrides, domain.Override{
					Key:  k,
					From: prev,
					To:   e.Source.Name,
				})
			}
			res.Values[k] = e.Values[k]
			res.Provenance[k] = e.Source.Name
		}
	}

	return res
}
