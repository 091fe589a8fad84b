package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/nodeprov/internal/config"
	"github.com/imamik/nodeprov/internal/installplan"
	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/provisioning/node"
	"github.com/imamik/nodeprov/internal/report"
	"github.com/imamik/nodeprov/internal/util/async"
)

// ProvisionOptions are the flags of the provision command.
type ProvisionOptions struct {
	ConfigPath string
	NodeIDs    []string
	Yes        bool
}

var now = time.Now

// Provision handles the provision command.
//
// It provisions the selected nodes concurrently, prints a summary, uploads
// the run report when configured, and fails if any node failed.
func Provision(ctx context.Context, opts ProvisionOptions) error {
	log := logr.FromContextOrDiscard(ctx)

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	nodes, err := cfg.SelectNodes(opts.NodeIDs)
	if err != nil {
		return err
	}
	creds, err := readCredentials(cfg)
	if err != nil {
		return err
	}

	description := "Nodes are rebooted onto a new kernel before installation."
	if cfg.Backend == string(node.BackendStatic) {
		description = "Only the install phase runs on the static backend."
	}
	ok, err := confirmed(ctx, opts.Yes, fmt.Sprintf("Provision %d node(s)?", len(nodes)), description)
	if err != nil {
		return err
	}
	if !ok {
		log.Info("provisioning cancelled")
		return nil
	}

	var cloud provisioning.CloudClient
	if cfg.Backend == string(node.BackendDynamic) {
		if cloud, err = cloudClient(cfg); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	metrics := provisioning.NewMetrics(reg)
	if cfg.Metrics.Address != "" {
		stop, err := serveMetrics(ctx, cfg.Metrics.Address, reg)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer stop()
	}

	observer := provisioning.NewLogrObserver(log)
	p := node.New(cloud, newRunner(observer), installplan.New(), cfg.RetryPolicy(),
		node.WithBackend(node.Backend(cfg.Backend)),
		node.WithProfile(cfg.Profile()),
		node.WithSettleDelay(cfg.Timing.SettleDelay),
		node.WithObserver(observer),
		node.WithMetrics(metrics),
	)

	rep := report.New(cfg.Backend, now())
	log.Info("provisioning nodes", "count", len(nodes), "backend", cfg.Backend, "run", rep.RunID)

	rep.Results = async.Collect(ctx, nodes, cfg.Concurrency, func(ctx context.Context, n provisioning.Node) report.NodeResult {
		started := now()
		address, err := p.Provision(ctx, node.Request{
			Node:          n,
			PackageSource: cfg.Install.PackageSource,
			Credentials:   creds,
		})
		if err != nil {
			log.Error(err, "node failed", "node", n.ID)
		}
		return report.NewNodeResult(n.ID, address, now().Sub(started), err)
	})
	rep.Finished = now().UTC()

	fmt.Fprint(stdout, renderReport(rep))

	if cfg.Report.Enabled() {
		publishReport(ctx, cfg, rep)
	}

	if failed := rep.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d node(s) failed to provision", failed, len(rep.Results))
	}
	return nil
}

// publishReport uploads rep. Upload failures are logged, not returned.
func publishReport(ctx context.Context, cfg *config.Config, rep *report.Report) {
	log := logr.FromContextOrDiscard(ctx)

	store, err := newReportStore(ctx, cfg)
	if err != nil {
		log.Error(err, "report upload skipped")
		return
	}
	key, err := report.NewPublisher(store, cfg.Report.Bucket, cfg.Report.Prefix).Publish(ctx, rep)
	if err != nil {
		log.Error(err, "report upload failed")
		return
	}
	log.Info("report uploaded", "bucket", cfg.Report.Bucket, "key", key)
}
