package transform

import (
	"reflect"
	"testing"

	"github.com/yndnr/confmesh/internal/core/domain"
)

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"8080", float64(8080)},
		{"-3", float64(-3)},
		{"0", float64(0)},
		{"1.5", 1.5},
		{"007", "007"},
		{"1e3", "1e3"},
		{".5", ".5"},
		{"12345678901234567890", "12345678901234567890"},
		{"yes", "yes"},
		{"", ""},
		{" 1", " 1"},
	}

	for _, tt := range tests {
		if got := CoerceValue(tt.in); got != tt.want {
			t.Errorf("CoerceValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	in := domain.ConfigMap{
		"PORT":   "8080",
		"DEBUG":  "true",
		"NAME":   "svc",
		"nested": map[string]any{"RATIO": "0.25"},
		"KEEP":   float64(1),
		"NIL":    nil,
	}

	got := Coerce(in)
	want := domain.ConfigMap{
		"PORT":   float64(8080),
		"DEBUG":  true,
		"NAME":   "svc",
		"nested": domain.ConfigMap{"RATIO": 0.25},
		"KEEP":   float64(1),
		"NIL":    nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Coerce() = %#v, want %#v", got, want)
	}
	if in["PORT"] != "8080" {
		t.Error("Coerce must not modify its input")
	}
	if Coerce(nil) != nil {
		t.Error("Coerce(nil) should be nil")
	}
}
