// Package retry re-invokes operations rejected because a provider resource is busy.
//
// [Policy.Do] retries with a fixed interval for as long as the classifier
// reports a conflict, bounded by an optional attempt count and deadline.
// Any other error ends the loop immediately. The sleeping is delegated to a
// [backoff.Timer] so callers and tests can control it.
package retry
