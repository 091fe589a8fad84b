package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/nodeprov/internal/config"
	"github.com/imamik/nodeprov/internal/platform/digitalocean"
	"github.com/imamik/nodeprov/internal/platform/hcloud"
	"github.com/imamik/nodeprov/internal/platform/s3"
	"github.com/imamik/nodeprov/internal/platform/ssh"
	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/report"
)

// Provider is the provider API every supported cloud offers.
type Provider interface {
	GetNode(ctx context.Context, id string) (*provisioning.Handle, error)
	Shutdown(ctx context.Context, h *provisioning.Handle) error
	PowerOn(ctx context.Context, h *provisioning.Handle) error
}

// Factory function variables - can be replaced in tests.
var (
	loadConfig = config.LoadFile

	newProvider = providerFor

	newRunner = func(observer provisioning.Observer) provisioning.CommandRunner {
		return ssh.NewRunner(ssh.WithObserver(observer))
	}

	newReportStore = reportStoreFor

	readCredentials = (*config.Config).Credentials

	isInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	}

	confirm = confirmPrompt

	stdout io.Writer = os.Stdout
)

func providerFor(cfg *config.Config) (Provider, error) {
	token := cfg.ProviderToken()
	switch cfg.Provider.Name {
	case config.ProviderHCloud:
		if token == "" {
			return nil, fmt.Errorf("%s is required", config.EnvHCloudToken)
		}
		return hcloud.NewClient(token), nil
	default:
		if token == "" {
			return nil, fmt.Errorf("%s is required", config.EnvDigitalOceanToken)
		}
		client, err := digitalocean.NewClient(token)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// cloudClient returns a provider that can also list and change kernels.
func cloudClient(cfg *config.Config) (provisioning.CloudClient, error) {
	p, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	cloud, ok := p.(provisioning.CloudClient)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list or change kernels", cfg.Provider.Name)
	}
	return cloud, nil
}

func reportStoreFor(ctx context.Context, cfg *config.Config) (report.Store, error) {
	var opts []s3.ClientOption
	if cfg.Report.PathStyle {
		opts = append(opts, s3.WithPathStyle())
	}
	client, err := s3.NewClient(ctx, cfg.Report.Endpoint, cfg.Report.Region, cfg.S3AccessKey, cfg.S3SecretKey, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx, cfg.Report.Bucket); err != nil {
		return nil, err
	}
	return client, nil
}
