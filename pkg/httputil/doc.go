// Package httputil provides HTTP utilities for the Maven repository client.
//
// # Overview
//
//   - [Cache]: File-based JSON cache with a time-to-live, used for
//     repository metadata such as the latest release of a BOM
//   - [Retry]: Automatic retry with exponential backoff for transient failures
//
// # Caching
//
// [Cache] stores one JSON file per key under ~/.cache/wrangler/ (or
// $XDG_CACHE_HOME/wrangler). Entries older than the TTL are reported as
// [ErrExpired]. Javadoc archives are not stored here; they live in the
// pipeline's jar cache, which never expires.
//
// # Retry
//
// [Retry] only retries errors wrapped in [RetryableError]; the repository
// client wraps connection failures and 5xx responses that way. A 404 is a
// definitive answer and is returned immediately.
package httputil
