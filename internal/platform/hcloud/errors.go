package hcloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/nodeprov/internal/provisioning"
)

// isResourceLocked checks if an error indicates another action is running
// on the resource. These errors are retryable.
func isResourceLocked(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeLocked,   // Item is locked (action running)
		hcloud.ErrorCodeConflict, // Resource changed during request
	)
}

// isUnavailable checks if an error means the API cannot serve us right now
// or will not accept our credentials.
func isUnavailable(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeUnauthorized,
		hcloud.ErrorCodeForbidden,
		hcloud.ErrorCodeRateLimitExceeded,
		hcloud.ErrorCodeServiceError,
	)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// classify maps an hcloud error to the provisioning error taxonomy.
func classify(op, resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case isResourceLocked(err):
		return &provisioning.ConflictError{Op: op, Resource: resource, Err: err}
	case isUnavailable(err):
		return &provisioning.ProviderUnavailableError{Op: op, Err: err}
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		return fmt.Errorf("failed to %s %s: %w", op, resource, err)
	}
	// The action was accepted and then failed on the provider side.
	var actionErr hcloud.ActionError
	if errors.As(err, &actionErr) {
		return fmt.Errorf("failed to %s %s: %w", op, resource, err)
	}
	// Anything that is not an API error never reached the API.
	return &provisioning.ProviderUnavailableError{Op: op, Err: err}
}
