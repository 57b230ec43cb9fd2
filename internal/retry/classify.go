package retry

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Class is the retry category of an error.
type Class int

const (
	// Unknown errors are not retried.
	Unknown Class = iota
	// Transient errors are worth another attempt.
	Transient
	// Permission errors propagate immediately.
	Permission
	// NotFound errors mean the remote resource does not exist.
	NotFound
)

// String returns the label used in logs and metrics.
func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Permission:
		return "permission"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var transientCodes = map[string]struct{}{
	"Throttling":                             {},
	"ThrottlingException":                    {},
	"ThrottledException":                     {},
	"TooManyRequestsException":               {},
	"RequestLimitExceeded":                   {},
	"RequestThrottled":                       {},
	"RequestThrottledException":              {},
	"ProvisionedThroughputExceededException": {},
	"SlowDown":                               {},
	"RequestTimeout":                         {},
	"RequestTimeoutException":                {},
	"NetworkingError":                        {},
	"TimeoutError":                           {},
	"ServiceUnavailable":                     {},
	"ServiceUnavailableException":            {},
	"InternalError":                          {},
	"InternalFailure":                        {},
	"InternalServerError":                    {},
	"InternalServiceError":                   {},
	"InternalServiceErrorException":          {},
	"InternalServerErrorException":           {},
}

var permissionCodes = map[string]struct{}{
	"AccessDenied":                {},
	"AccessDeniedException":       {},
	"UnrecognizedClientException": {},
	"InvalidClientTokenId":        {},
	"InvalidAccessKeyId":          {},
	"ExpiredToken":                {},
	"ExpiredTokenException":       {},
	"SignatureDoesNotMatch":       {},
	"InvalidSignatureException":   {},
	"UnauthorizedOperation":       {},
	"AllAccessDisabled":           {},
}

var notFoundCodes = map[string]struct{}{
	"NoSuchKey":                 {},
	"NoSuchBucket":              {},
	"NotFound":                  {},
	"ResourceNotFoundException": {},
	"ParameterNotFound":         {},
}

// httpStatusError is satisfied by the SDK's response errors.
type httpStatusError interface {
	HTTPStatusCode() int
}

// Classify returns the retry class of err. The first service error code found
// in the wrap chain decides; HTTP status codes and network errors are used
// when no code is available.
func Classify(err error) Class {
	if err == nil {
		return Unknown
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if c, ok := classifyCode(apiErr.ErrorCode()); ok {
			return c
		}
	}

	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		if c, ok := classifyStatus(statusErr.HTTPStatusCode()); ok {
			return c
		}
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}

	return Unknown
}

// Retryable reports whether err should be retried.
func Retryable(err error) bool {
	return Classify(err) == Transient
}

// IsNotFound reports whether err means the remote resource is absent.
func IsNotFound(err error) bool {
	return Classify(err) == NotFound
}

func classifyCode(code string) (Class, bool) {
	if code == "" {
		return Unknown, false
	}
	if _, ok := transientCodes[code]; ok {
		return Transient, true
	}
	if _, ok := permissionCodes[code]; ok {
		return Permission, true
	}
	if _, ok := notFoundCodes[code]; ok {
		return NotFound, true
	}
	return Unknown, false
}

func classifyStatus(status int) (Class, bool) {
	switch status {
	case 429, 500, 502, 503, 504:
		return Transient, true
	case 401, 403:
		return Permission, true
	case 404:
		return NotFound, true
	default:
		return Unknown, false
	}
}
