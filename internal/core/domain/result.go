// Package domain defines the core domain models for confmesh.
package domain

import "time"

// SourceSummary describes what one source contributed to a load.
type SourceSummary struct {
	Name     string        `json:"name"`
	Kind     SourceKind    `json:"kind"`
	Keys     int           `json:"keys"`
	Duration time.Duration `json:"duration"`
	Attempts int           `json:"attempts,omitempty"`
	// Skipped is set when the source reported itself unavailable.
	Skipped bool `json:"skipped,omitempty"`
}

// Override records that a later source replaced a key set by an earlier one.
type Override struct {
	Key  string `json:"key"`
	From string `json:"from"`
	To   string `json:"to"`
}

// LoadResult is the output of one successful load cycle.
type LoadResult struct {
	Config   ConfigMap       `json:"config"`
	Sources  []SourceSummary `json:"sources"`
	LoadedAt time.Time       `json:"loaded_at"`

	// Provenance maps each key to the name of the source that last set it.
	// It is informational and never affects merged values.
	Provenance map[string]string `json:"provenance,omitempty"`
	Overrides  []Override        `json:"overrides,omitempty"`

	// Fingerprint is a hash of the canonical JSON form of Config.
	Fingerprint uint64 `json:"fingerprint"`
}

// Contributing returns the summaries of sources that were actually fetched.
func (r *LoadResult) Contributing() []SourceSummary {
	out := make([]SourceSummary, 0, len(r.Sources))
	for _, s := range r.Sources {
		if !s.Skipped {
			out = append(out, s)
		}
	}
	return out
}
