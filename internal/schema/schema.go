package schema

import (
	"errors"
	"fmt"

	"github.com/yndnr/confmesh/internal/core/domain"
)

// Schema validates a configuration map.
type Schema interface {
	Validate(cfg domain.ConfigMap) error
}

// Func adapts a function returning violations to a Schema.
type Func func(cfg domain.ConfigMap) []domain.Violation

// Validate implements Schema.
func (f Func) Validate(cfg domain.ConfigMap) error {
	if v := f(cfg); len(v) > 0 {
		return domain.NewValidationError(v, nil)
	}
	return nil
}

// Required returns a schema that rejects missing, nil and empty string keys.
func Required(keys ...string) Schema {
	keys = append([]string(nil), keys...)
	return Func(func(cfg domain.ConfigMap) []domain.Violation {
		var out []domain.Violation
		for _, k := range keys {
			v, ok := cfg[k]
			if !ok || v == nil || v == "" {
				out = append(out, domain.Violation{Field: k, Rule: "required", Message: "is required"})
			}
		}
		return out
	})
}

// All runs every schema and merges their violations. An error that is not a
// ValidationError is returned as is.
func All(schemas ...Schema) Schema {
	return allSchema(schemas)
}

type allSchema []Schema

func (a allSchema) Validate(cfg domain.ConfigMap) error {
	var violations []domain.Violation
	var causes []error

	for _, s := range a {
		if s == nil {
			continue
		}
		err := s.Validate(cfg)
		if err == nil {
			continue
		}
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return fmt.Errorf("schema: %w", err)
		}
		violations = append(violations, verr.Violations...)
		if verr.Cause != nil {
			causes = append(causes, verr.Cause)
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return domain.NewValidationError(violations, errors.Join(causes...))
}
