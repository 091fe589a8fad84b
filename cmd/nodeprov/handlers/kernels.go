package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/provisioning/kernel"
)

// Kernels handles the kernels command.
//
// It lists the kernels available to a node and marks the one provisioning
// would select. Nothing is changed on the provider.
func Kernels(ctx context.Context, configPath, nodeID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	nodes, err := cfg.SelectNodes([]string{nodeID})
	if err != nil {
		return err
	}
	cloud, err := cloudClient(cfg)
	if err != nil {
		return err
	}

	h, err := cloud.GetNode(ctx, nodes[0].ID)
	if err != nil {
		return fmt.Errorf("failed to resolve node %s: %w", nodeID, err)
	}
	kernels, err := cloud.AvailableKernels(ctx, h)
	if err != nil {
		return fmt.Errorf("failed to list kernels for node %s: %w", nodeID, err)
	}

	profile := cfg.Profile()
	selected, selectErr := kernel.NewSelector(profile.Ordering).SelectLatest(kernels, profile.KernelPrefix)
	var chosen *provisioning.Kernel
	if selectErr == nil {
		chosen = &selected
	} else if !errors.Is(selectErr, provisioning.ErrNoMatchingKernel) {
		return selectErr
	}

	fmt.Fprint(stdout, renderKernels(nodeID, profile.KernelPrefix, kernels, chosen))
	return selectErr
}
