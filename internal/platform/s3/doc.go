// Package s3 provides a small client for S3-compatible object storage,
// used to publish provisioning run reports.
package s3
