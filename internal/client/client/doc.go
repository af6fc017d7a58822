// Package client is the remote resource client: a thin typed wrapper over
// the Notex HTTP API.
//
// Contract:
//   - Generic Get/Post/Put/Delete helpers against a configured base URL.
//   - A bearer token is injected from the TokenSource on every request and
//     is omitted entirely while the session is in guest mode, even if a
//     stale token is still persisted.
//   - Every response body is the envelope {data, message, error}; it is
//     unwrapped here and nowhere else.
//   - HTTP failures are mapped onto the sentinel taxonomy in
//     internal/common: 401/403 -> ErrUnauthorized, 404 -> ErrNotFound,
//     other 4xx -> ErrValidation (server message preserved), 5xx and
//     transport errors -> ErrUnavailable.
//   - ErrUnavailable is retried with bounded exponential backoff (three
//     attempts in total); nothing else is ever retried.
package client
