// Package fetcher implements the outbound collaborators of the watcher: the
// aladhan prayer timings client and the Overpass place-of-worship client,
// plus rate-limited wrappers for both.
//
// Every failure is wrapped around ErrUnavailable; callers treat it as
// retryable and keep serving previously fetched data.
package fetcher
