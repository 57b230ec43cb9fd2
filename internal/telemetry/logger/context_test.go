package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l := Nop()
	ctx := WithLogger(context.Background(), l)

	if FromContext(ctx) != l {
		t.Error("FromContext() should return the stored logger")
	}
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext() without logger should return Default()")
	}
}

func TestLoadID(t *testing.T) {
	ctx := WithLoadID(context.Background(), "01J9Z")
	if got := LoadIDFromContext(ctx); got != "01J9Z" {
		t.Errorf("LoadIDFromContext() = %q", got)
	}
	if got := LoadIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context load id = %q", got)
	}
}

func TestL_AddsLoadID(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLoadID(WithLogger(context.Background(), l), "load-7")
	L(ctx).Info("step")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["load_id"] != "load-7" {
		t.Errorf("load_id = %v", entry["load_id"])
	}

	buf.Reset()
	L(WithLogger(context.Background(), l)).Info("no id")
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := entry["load_id"]; ok {
		t.Error("load_id should be absent")
	}
}
