// Package integrations provides the HTTP plumbing shared by repository
// clients.
//
// # Overview
//
// [Client] wraps an *http.Client with default headers, response caching,
// retry with backoff and HTTP hooks. The [maven] subpackage builds on it to
// read repository metadata and download POMs and javadoc archives.
//
// # Errors
//
//   - [ErrNotFound]: the repository answered 404; never retried
//   - [ErrNetwork]: connection failures and non-2xx answers; 5xx and
//     connection failures are retried
//
// [maven]: github.com/scijava/javadoc-wrangler/pkg/integrations/maven
package integrations
