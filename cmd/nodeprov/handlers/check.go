package handlers

import (
	"context"
	"fmt"

	"github.com/digitalocean/godo"
	"github.com/go-logr/logr"

	"github.com/imamik/nodeprov/internal/util/async"
)

// accountChecker looks up account resources by name.
type accountChecker interface {
	LocationBySlug(ctx context.Context, slug string) (*godo.Region, error)
	SSHKeyByName(ctx context.Context, name string) (*godo.Key, error)
}

// Check handles the check command.
//
// It verifies the provider token, the configured region and SSH key, and
// that every node resolves. Nodes are looked up concurrently. All checks
// run; the command fails if any did.
func Check(ctx context.Context, configPath string) error {
	log := logr.FromContextOrDiscard(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	var checks []check
	if account, ok := provider.(accountChecker); ok {
		if cfg.Provider.Region != "" {
			region, err := account.LocationBySlug(ctx, cfg.Provider.Region)
			if err == nil && !region.Available {
				err = fmt.Errorf("region is not available")
			}
			checks = append(checks, check{name: "region " + cfg.Provider.Region, err: err})
		}
		if cfg.Provider.SSHKeyName != "" {
			_, err := account.SSHKeyByName(ctx, cfg.Provider.SSHKeyName)
			checks = append(checks, check{name: "ssh key " + cfg.Provider.SSHKeyName, err: err})
		}
	}

	nodeChecks := make([]check, len(cfg.Nodes))
	tasks := make([]async.Task, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		nodeChecks[i].name = "node " + n.ID
		tasks[i] = async.Task{Name: nodeChecks[i].name, Func: func(ctx context.Context) error {
			_, err := provider.GetNode(ctx, n.ID)
			nodeChecks[i].err = err
			return err
		}}
	}
	if err := async.RunParallel(ctx, tasks, cfg.Concurrency); err != nil {
		log.V(1).Info("node lookups failed", "error", err.Error())
	}
	checks = append(checks, nodeChecks...)

	fmt.Fprint(stdout, renderChecks(checks))

	failed := 0
	for _, c := range checks {
		if c.err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d check(s) failed", failed, len(checks))
	}
	return nil
}
