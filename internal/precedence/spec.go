package precedence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yndnr/confmesh/internal/core/domain"
)

// Strategy names a canonical source order.
type Strategy string

const (
	// AWSFirst lets remote sources override local ones.
	AWSFirst Strategy = "aws-first"
	// LocalFirst lets local sources override remote ones.
	LocalFirst Strategy = "local-first"
)

// DefaultStrategy is used when a Spec names nothing.
const DefaultStrategy = AWSFirst

var awsFirstOrder = []domain.SourceKind{
	domain.SourceEnvironment,
	domain.SourceLocalFile,
	domain.SourceObjectStore,
	domain.SourceSecretsVault,
	domain.SourceParameterStore,
}

// Order returns the strategy's kinds in ascending priority. It returns nil for
// an unknown strategy.
func (s Strategy) Order() []domain.SourceKind {
	switch s {
	case AWSFirst:
		return append([]domain.SourceKind(nil), awsFirstOrder...)
	case LocalFirst:
		out := make([]domain.SourceKind, len(awsFirstOrder))
		for i, k := range awsFirstOrder {
			out[len(out)-1-i] = k
		}
		return out
	default:
		return nil
	}
}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case AWSFirst:
		return AWSFirst, nil
	case LocalFirst:
		return LocalFirst, nil
	default:
		return "", fmt.Errorf("unknown precedence strategy %q (want %s or %s)", s, AWSFirst, LocalFirst)
	}
}

// Priority assigns a priority to a source name or kind.
type Priority struct {
	Name  string `koanf:"name" json:"name" yaml:"name"`
	Value int    `koanf:"priority" json:"priority" yaml:"priority"`
}

// Spec is a named strategy or an explicit priority list. The zero Spec means
// DefaultStrategy.
type Spec struct {
	strategy   Strategy
	priorities []Priority
}

// Named returns a Spec that orders sources by a canonical strategy.
func Named(s Strategy) Spec {
	return Spec{strategy: s}
}

// Explicit returns a Spec with caller-provided priorities.
func Explicit(priorities []Priority) Spec {
	return Spec{priorities: append([]Priority{}, priorities...)}
}

// IsExplicit reports whether s carries an explicit priority list.
func (s Spec) IsExplicit() bool {
	return s.strategy == "" && s.priorities != nil
}

// Strategy returns the named strategy, or DefaultStrategy for the zero Spec.
// It returns "" for explicit specs.
func (s Spec) Strategy() Strategy {
	if s.IsExplicit() {
		return ""
	}
	if s.strategy == "" {
		return DefaultStrategy
	}
	return s.strategy
}

// Priorities returns a copy of the explicit list.
func (s Spec) Priorities() []Priority {
	return append([]Priority(nil), s.priorities...)
}

// String renders the spec in the form accepted by ParseSpec.
func (s Spec) String() string {
	if !s.IsExplicit() {
		return string(s.Strategy())
	}
	parts := make([]string, len(s.priorities))
	for i, p := range s.priorities {
		parts[i] = p.Name + "=" + strconv.Itoa(p.Value)
	}
	return strings.Join(parts, ",")
}

// ParseSpec parses either a strategy name or a comma separated list of
// name=priority pairs, e.g. "environment=10,parameter-store=5".
func ParseSpec(text string) (Spec, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Named(DefaultStrategy), nil
	}
	if !strings.Contains(text, "=") {
		st, err := ParseStrategy(text)
		if err != nil {
			return Spec{}, err
		}
		return Named(st), nil
	}

	var list []Priority
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return Spec{}, fmt.Errorf("invalid precedence entry %q (want name=priority)", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return Spec{}, fmt.Errorf("invalid priority for %q: %w", name, err)
		}
		list = append(list, Priority{Name: strings.TrimSpace(name), Value: n})
	}
	return Explicit(list), nil
}
