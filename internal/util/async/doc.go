// Package async provides helpers for running independent operations
// concurrently with a bound on how many are in flight.
//
// Provisioning runs for different nodes share no state, so a failure in one
// never cancels the others; callers get every outcome back.
package async
