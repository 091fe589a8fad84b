package digitalocean

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/digitalocean/godo"
	"golang.org/x/oauth2"

	"github.com/imamik/nodeprov/internal/provisioning"
)

const (
	// DefaultBaseURL is the public DigitalOcean API endpoint.
	DefaultBaseURL = "https://api.digitalocean.com/"

	userAgent = "nodeprov"
	pageSize  = 200
)

var (
	// ErrUnknownLocation is returned when no region has the requested slug.
	ErrUnknownLocation = errors.New("unknown location slug")
	// ErrUnknownSSHKey is returned when no SSH key has the requested name.
	ErrUnknownSSHKey = errors.New("unknown SSH key name")
)

// Client implements provisioning.CloudClient for droplets.
type Client struct {
	api *godo.Client
}

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// WithBaseURL points the client at another API endpoint (useful for testing).
func WithBaseURL(u string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = u
	}
}

// WithHTTPClient sets the transport the token source wraps.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// NewClient creates a Client authenticating every request with token.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("digitalocean token is required")
	}
	o := &clientOptions{baseURL: DefaultBaseURL, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.httpClient)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	api, err := godo.New(httpClient, godo.SetBaseURL(o.baseURL), godo.SetUserAgent(userAgent))
	if err != nil {
		return nil, fmt.Errorf("failed to create digitalocean client: %w", err)
	}
	return &Client{api: api}, nil
}

// GetNode implements provisioning.CloudClient.
func (c *Client) GetNode(ctx context.Context, id string) (*provisioning.Handle, error) {
	dropletID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	droplet, _, err := c.api.Droplets.Get(ctx, dropletID)
	if err != nil {
		return nil, classify("get-node", "droplet "+id, err)
	}

	h := &provisioning.Handle{
		ID:     strconv.Itoa(droplet.ID),
		Name:   droplet.Name,
		Status: droplet.Status,
	}
	if droplet.Kernel != nil {
		h.KernelID = strconv.Itoa(droplet.Kernel.ID)
	}
	return h, nil
}

// AvailableKernels implements provisioning.CloudClient. All pages are fetched.
func (c *Client) AvailableKernels(ctx context.Context, h *provisioning.Handle) ([]provisioning.Kernel, error) {
	dropletID, err := parseID(h.ID)
	if err != nil {
		return nil, err
	}

	var kernels []provisioning.Kernel
	opt := &godo.ListOptions{PerPage: pageSize}
	for {
		page, resp, err := c.api.Droplets.Kernels(ctx, dropletID, opt)
		if err != nil {
			return nil, classify("available-kernels", "droplet "+h.ID, err)
		}
		for _, k := range page {
			kernels = append(kernels, provisioning.Kernel{
				ID:      strconv.Itoa(k.ID),
				Name:    k.Name,
				Version: k.Version,
			})
		}

		next, ok, err := nextPage(resp)
		if err != nil {
			return nil, fmt.Errorf("available-kernels: %w", err)
		}
		if !ok {
			return kernels, nil
		}
		opt.Page = next
	}
}

// ChangeKernel implements provisioning.CloudClient.
func (c *Client) ChangeKernel(ctx context.Context, h *provisioning.Handle, kernelID string) error {
	dropletID, err := parseID(h.ID)
	if err != nil {
		return err
	}
	kid, err := strconv.Atoi(kernelID)
	if err != nil {
		return fmt.Errorf("invalid kernel id %q: %w", kernelID, err)
	}
	_, _, err = c.api.DropletActions.ChangeKernel(ctx, dropletID, kid)
	return classify("change-kernel", "droplet "+h.ID, err)
}

// Shutdown implements provisioning.CloudClient.
func (c *Client) Shutdown(ctx context.Context, h *provisioning.Handle) error {
	dropletID, err := parseID(h.ID)
	if err != nil {
		return err
	}
	_, _, err = c.api.DropletActions.Shutdown(ctx, dropletID)
	return classify("shutdown", "droplet "+h.ID, err)
}

// PowerOn implements provisioning.CloudClient.
func (c *Client) PowerOn(ctx context.Context, h *provisioning.Handle) error {
	dropletID, err := parseID(h.ID)
	if err != nil {
		return err
	}
	_, _, err = c.api.DropletActions.PowerOn(ctx, dropletID)
	return classify("power-on", "droplet "+h.ID, err)
}

// LocationBySlug returns the region with the given short code, e.g. "ams3".
func (c *Client) LocationBySlug(ctx context.Context, slug string) (*godo.Region, error) {
	opt := &godo.ListOptions{PerPage: pageSize}
	for {
		regions, resp, err := c.api.Regions.List(ctx, opt)
		if err != nil {
			return nil, classify("list-regions", "regions", err)
		}
		for i := range regions {
			if regions[i].Slug == slug {
				return &regions[i], nil
			}
		}

		next, ok, err := nextPage(resp)
		if err != nil {
			return nil, fmt.Errorf("list-regions: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, slug)
		}
		opt.Page = next
	}
}

// SSHKeyByName returns the account SSH key registered under name.
func (c *Client) SSHKeyByName(ctx context.Context, name string) (*godo.Key, error) {
	opt := &godo.ListOptions{PerPage: pageSize}
	for {
		keys, resp, err := c.api.Keys.List(ctx, opt)
		if err != nil {
			return nil, classify("list-ssh-keys", "ssh keys", err)
		}
		for i := range keys {
			if keys[i].Name == name {
				return &keys[i], nil
			}
		}

		next, ok, err := nextPage(resp)
		if err != nil {
			return nil, fmt.Errorf("list-ssh-keys: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSSHKey, name)
		}
		opt.Page = next
	}
}

func nextPage(resp *godo.Response) (int, bool, error) {
	if resp == nil || resp.Links == nil || resp.Links.IsLastPage() {
		return 0, false, nil
	}
	current, err := resp.Links.CurrentPage()
	if err != nil {
		return 0, false, err
	}
	return current + 1, true, nil
}

func parseID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("invalid droplet id %q: %w", id, err)
	}
	return n, nil
}
