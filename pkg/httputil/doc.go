// Package httputil holds the HTTP plumbing shared by noderig's network
// clients: status classification and retry of transient failures.
//
// Transient failures (connection errors, 5xx responses) are wrapped in
// [RetryableError]; [Policy.Do] retries only those, with exponential
// backoff, and gives up early when the context is cancelled.
package httputil
