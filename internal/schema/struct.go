package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/infra/confloader"
)

// StructSchema validates configuration by decoding it into T.
//
//	type AppConfig struct {
//		Port     int    `koanf:"port" validate:"required,min=1,max=65535"`
//		LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
//	}
//
//	engine.New(sources, engine.WithSchema(schema.Struct[AppConfig]()))
type StructSchema[T any] struct {
	validate *validator.Validate
}

// Struct returns a schema for T. Violations are reported under the koanf tag
// names of the failing fields.
func Struct[T any]() *StructSchema[T] {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &StructSchema[T]{validate: v}
}

// Validate implements Schema.
func (s *StructSchema[T]) Validate(cfg domain.ConfigMap) error {
	_, err := s.Decode(cfg)
	return err
}

// Decode converts cfg into T and validates it.
func (s *StructSchema[T]) Decode(cfg domain.ConfigMap) (T, error) {
	var target T
	if err := confloader.Decode(cfg, &target); err != nil {
		return target, domain.NewValidationError([]domain.Violation{{
			Rule:    "decode",
			Message: err.Error(),
		}}, err)
	}

	err := s.validate.Struct(&target)
	if err == nil {
		return target, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return target, domain.NewValidationError(nil, err)
	}

	violations := make([]domain.Violation, len(fieldErrs))
	for i, fe := range fieldErrs {
		violations[i] = domain.Violation{
			Field:   fieldPath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: describe(fe),
		}
	}
	return target, domain.NewValidationError(violations, nil)
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "url", "uri", "email", "hostname", "ip":
		return "must be a valid " + fe.Tag()
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "failed " + fe.Tag()
}
