// Package precedence decides which source wins when several sources set the
// same key.
//
// A Spec is either a named strategy or an explicit list of (name, priority)
// pairs. Sources are stable-sorted by ascending priority and merged in that
// order, so the source with the highest priority wins every collision.
//
// Named strategies:
//
//   - aws-first:   environment, local-file, object-store, secrets-vault,
//     parameter-store (parameter-store wins)
//   - local-first: the exact reverse (environment wins)
//
// Unknown kinds under a named strategy get priority -1. Unknown names in an
// explicit list get priority 0.
package precedence
