package digitalocean

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/digitalocean/godo"

	"github.com/imamik/nodeprov/internal/provisioning"
)

// pendingEventMessage is the fragment DigitalOcean uses when an action is
// rejected because another one is still running on the droplet.
const pendingEventMessage = "pending event"

// classify maps a godo error to the provisioning error taxonomy.
func classify(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var apiErr *godo.ErrorResponse
	if !errors.As(err, &apiErr) {
		return &provisioning.ProviderUnavailableError{Op: op, Err: err}
	}

	status := 0
	if apiErr.Response != nil {
		status = apiErr.Response.StatusCode
	}
	switch {
	case isPendingEvent(apiErr):
		return &provisioning.ConflictError{Op: op, Resource: resource, Err: err}
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return &provisioning.ProviderUnavailableError{Op: op, Err: err}
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %s not found: %w", op, resource, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isPendingEvent(apiErr *godo.ErrorResponse) bool {
	if apiErr.Response == nil || apiErr.Response.StatusCode < 400 || apiErr.Response.StatusCode >= 500 {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), pendingEventMessage)
}
