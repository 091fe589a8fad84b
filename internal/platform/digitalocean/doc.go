// Package digitalocean adapts the DigitalOcean v2 API (via godo) to the
// provisioning.CloudClient interface.
//
// Droplet actions are accepted asynchronously. While one is still running,
// the API rejects further actions with a "pending event" error; the adapter
// reports that as a *provisioning.ConflictError so callers can retry.
// Authentication, rate-limit, server and transport failures become
// *provisioning.ProviderUnavailableError.
package digitalocean
