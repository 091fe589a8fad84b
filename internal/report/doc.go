// Package report records the outcome of a provisioning run and publishes it
// as a JSON document to an object store.
package report
