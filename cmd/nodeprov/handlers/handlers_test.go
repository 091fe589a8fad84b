package handlers

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/digitalocean/godo"

	"github.com/imamik/nodeprov/internal/config"
	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/report"
	provtest "github.com/imamik/nodeprov/internal/testing"
)

// testConfig is a loaded configuration that never waits in real time.
func testConfig(backend string) *config.Config {
	return &config.Config{
		Backend: backend,
		Provider: config.ProviderConfig{
			Name:            config.ProviderDigitalOcean,
			KernelPrefix:    "Fedora 20 x64",
			DistributionTag: "fc20",
			Architecture:    "x86_64",
			KernelOrdering:  "numeric",
		},
		Timing: config.TimingConfig{
			RetryInterval:    time.Millisecond,
			RetryMaxAttempts: 3,
		},
		SSH:         config.SSHConfig{User: "root", Port: 22},
		Install:     config.InstallConfig{Distribution: "fedora-20"},
		Concurrency: 2,
		Nodes: []provisioning.Node{
			{ID: "1", Address: "192.0.2.1", Distribution: "fedora-20"},
			{ID: "2", Address: "192.0.2.2", Distribution: "centos-7"},
		},
		Report: config.ReportConfig{Prefix: "runs"},
	}
}

type deps struct {
	out      *bytes.Buffer
	provider Provider
	runner   *provtest.MockCommandRunner
	store    *memoryStore
	asked    []string
	answer   bool
}

// stubDeps replaces the factory variables for one test and restores them on cleanup.
func stubDeps(t *testing.T, cfg *config.Config) *deps {
	t.Helper()

	origLoad, origProvider, origRunner := loadConfig, newProvider, newRunner
	origStore, origCreds, origInteractive := newReportStore, readCredentials, isInteractive
	origConfirm, origStdout := confirm, stdout
	t.Cleanup(func() {
		loadConfig, newProvider, newRunner = origLoad, origProvider, origRunner
		newReportStore, readCredentials, isInteractive = origStore, origCreds, origInteractive
		confirm, stdout = origConfirm, origStdout
	})

	d := &deps{
		out:    &bytes.Buffer{},
		runner: &provtest.MockCommandRunner{},
		store:  &memoryStore{objects: map[string][]byte{}},
		answer: true,
	}

	loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	newProvider = func(*config.Config) (Provider, error) {
		if d.provider == nil {
			return nil, errors.New("no provider configured")
		}
		return d.provider, nil
	}
	newRunner = func(provisioning.Observer) provisioning.CommandRunner { return d.runner }
	newReportStore = func(context.Context, *config.Config) (report.Store, error) { return d.store, nil }
	readCredentials = func(*config.Config) (provisioning.Credentials, error) {
		return provisioning.Credentials{User: "root", Port: 22, PrivateKey: []byte("key")}, nil
	}
	isInteractive = func() bool { return false }
	confirm = func(_ context.Context, title, _ string) (bool, error) {
		d.asked = append(d.asked, title)
		return d.answer, nil
	}
	stdout = d.out
	return d
}

type memoryStore struct {
	objects map[string][]byte
	err     error
}

func (s *memoryStore) PutObject(_ context.Context, bucket, key string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.objects[bucket+"/"+key] = data
	return nil
}

// accountProvider is a DigitalOcean-like provider with account lookups.
type accountProvider struct {
	*provtest.MockCloudClient
	regions map[string]*godo.Region
	keys    map[string]*godo.Key
}

func (a *accountProvider) LocationBySlug(_ context.Context, slug string) (*godo.Region, error) {
	if r, ok := a.regions[slug]; ok {
		return r, nil
	}
	return nil, errors.New("unknown location " + slug)
}

func (a *accountProvider) SSHKeyByName(_ context.Context, name string) (*godo.Key, error) {
	if k, ok := a.keys[name]; ok {
		return k, nil
	}
	return nil, errors.New("unknown ssh key " + name)
}

// powerOnlyProvider cannot list or change kernels, like the Hetzner adapter.
type powerOnlyProvider struct {
	client *provtest.MockCloudClient
}

func (p powerOnlyProvider) GetNode(ctx context.Context, id string) (*provisioning.Handle, error) {
	return p.client.GetNode(ctx, id)
}

func (p powerOnlyProvider) Shutdown(ctx context.Context, h *provisioning.Handle) error {
	return p.client.Shutdown(ctx, h)
}

func (p powerOnlyProvider) PowerOn(ctx context.Context, h *provisioning.Handle) error {
	return p.client.PowerOn(ctx, h)
}
