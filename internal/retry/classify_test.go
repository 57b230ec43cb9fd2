package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/aws/smithy-go"
)

type statusErr struct{ code int }

func (e statusErr) Error() string       { return fmt.Sprintf("http %d", e.code) }
func (e statusErr) HTTPStatusCode() int { return e.code }

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "test"}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, Unknown},
		{"plain", errors.New("boom"), Unknown},
		{"throttling", apiErr("ThrottlingException"), Transient},
		{"request limit", apiErr("RequestLimitExceeded"), Transient},
		{"service unavailable", apiErr("ServiceUnavailable"), Transient},
		{"access denied", apiErr("AccessDenied"), Permission},
		{"access denied exception", apiErr("AccessDeniedException"), Permission},
		{"expired token", apiErr("ExpiredToken"), Permission},
		{"no such key", apiErr("NoSuchKey"), NotFound},
		{"no such bucket", apiErr("NoSuchBucket"), NotFound},
		{"secret not found", apiErr("ResourceNotFoundException"), NotFound},
		{"parameter not found", apiErr("ParameterNotFound"), NotFound},
		{"unknown code", apiErr("ValidationException"), Unknown},
		{"wrapped code", fmt.Errorf("fetch: %w", apiErr("Throttling")), Transient},
		{"status 503", statusErr{503}, Transient},
		{"status 429", statusErr{429}, Transient},
		{"status 403", statusErr{403}, Permission},
		{"status 404", statusErr{404}, NotFound},
		{"status 400", statusErr{400}, Unknown},
		{"network timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, Transient},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, Transient},
		{"deadline", context.DeadlineExceeded, Transient},
		{"canceled", context.Canceled, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(apiErr("Throttling")) {
		t.Error("throttling should be retryable")
	}
	for _, err := range []error{apiErr("AccessDenied"), apiErr("NoSuchKey"), errors.New("x"), nil} {
		if Retryable(err) {
			t.Errorf("Retryable(%v) = true, want false", err)
		}
	}
	if !IsNotFound(apiErr("ParameterNotFound")) {
		t.Error("IsNotFound(ParameterNotFound) = false")
	}
}

func TestClass_String(t *testing.T) {
	want := map[Class]string{
		Transient:  "transient",
		Permission: "permission",
		NotFound:   "not_found",
		Unknown:    "unknown",
	}
	for c, s := range want {
		if c.String() != s {
			t.Errorf("%d.String() = %q, want %q", c, c.String(), s)
		}
	}
}
