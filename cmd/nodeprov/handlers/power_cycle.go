package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/provisioning/power"
)

// PowerCycle handles the power-cycle command.
//
// It shuts the node down, waits for the configured settle delay and powers
// it back on, retrying while the provider reports a pending action.
func PowerCycle(ctx context.Context, configPath, nodeID string, yes bool) error {
	log := logr.FromContextOrDiscard(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if _, err := cfg.SelectNodes([]string{nodeID}); err != nil {
		return err
	}

	ok, err := confirmed(ctx, yes, fmt.Sprintf("Power-cycle node %s?", nodeID), "The node is shut down and powered back on.")
	if err != nil {
		return err
	}
	if !ok {
		log.Info("power-cycle cancelled")
		return nil
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	h, err := provider.GetNode(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("failed to resolve node %s: %w", nodeID, err)
	}

	observer := provisioning.NewLogrObserver(log).WithFields(map[string]string{"node": nodeID})
	controller := power.NewController(provider, cfg.RetryPolicy(),
		power.WithSettleDelay(cfg.Timing.SettleDelay),
		power.WithObserver(observer),
	)
	if err := controller.Cycle(ctx, h); err != nil {
		return fmt.Errorf("power-cycle failed: %w", err)
	}

	log.Info("node power-cycled", "node", nodeID, "status", h.Status)
	return nil
}
