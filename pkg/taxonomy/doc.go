/*
Package taxonomy defines the runtime-wide error vocabulary that surfaces
through futures, gRPC status codes, and CLI exit codes.

Every failure the runtime produces is tagged with one Code from this
package so that callers can branch on `errors.Is`/`errors.As` instead of
string-matching. Codes map 1:1 onto the error taxonomy in the design:
manifest-invalid, not-initialized, pool/method/container-not-found,
queue-full, out-of-memory, target-full, blob/tag-not-found, io-error,
cancelled, timeout, runtime-shutdown, unreachable, route-stale, fatal.
*/
package taxonomy
