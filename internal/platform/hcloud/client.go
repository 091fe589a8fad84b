package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/nodeprov/internal/provisioning"
)

// Client implements power.Client and node lookup for Hetzner Cloud servers.
type Client struct {
	client *hcloud.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a Client authenticating with token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		client: hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("nodeprov", "")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetNode returns the handle of the server with the given numeric ID.
func (c *Client) GetNode(ctx context.Context, id string) (*provisioning.Handle, error) {
	server, err := c.server(id)
	if err != nil {
		return nil, err
	}
	found, _, err := c.client.Server.GetByID(ctx, server.ID)
	if err != nil {
		return nil, classify("get-node", "server "+id, err)
	}
	if found == nil {
		return nil, fmt.Errorf("server not found: %s", id)
	}
	return &provisioning.Handle{
		ID:     strconv.FormatInt(found.ID, 10),
		Name:   found.Name,
		Status: string(found.Status),
	}, nil
}

// Shutdown sends an ACPI shutdown request and waits for the action to finish.
// The server may still be running when it returns.
func (c *Client) Shutdown(ctx context.Context, h *provisioning.Handle) error {
	server, err := c.server(h.ID)
	if err != nil {
		return err
	}
	action, _, err := c.client.Server.Shutdown(ctx, server)
	if err != nil {
		return classify("shutdown", "server "+h.ID, err)
	}
	if err := c.client.Action.WaitFor(ctx, action); err != nil {
		return classify("shutdown", "server "+h.ID, fmt.Errorf("failed to wait for shutdown: %w", err))
	}
	return nil
}

// PowerOn starts the server and waits for the action to finish.
func (c *Client) PowerOn(ctx context.Context, h *provisioning.Handle) error {
	server, err := c.server(h.ID)
	if err != nil {
		return err
	}
	action, _, err := c.client.Server.Poweron(ctx, server)
	if err != nil {
		return classify("power-on", "server "+h.ID, err)
	}
	if err := c.client.Action.WaitFor(ctx, action); err != nil {
		return classify("power-on", "server "+h.ID, fmt.Errorf("failed to wait for power-on: %w", err))
	}
	return nil
}

func (c *Client) server(id string) (*hcloud.Server, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid server id: %s", id)
	}
	return &hcloud.Server{ID: n}, nil
}
