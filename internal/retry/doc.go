// Package retry wraps calls into remote configuration services with bounded
// exponential backoff.
//
// Errors are classified before any retry decision:
//
//   - Transient: throttling, networking, timeouts, service unavailable. Retried.
//   - Permission: access denied, bad or expired credentials. Never retried.
//   - NotFound: missing bucket, object, secret or parameter. Never retried;
//     adapters turn it into an empty mapping.
//   - Unknown: anything else. Never retried.
//
// After the last attempt the final error is returned unchanged.
package retry
