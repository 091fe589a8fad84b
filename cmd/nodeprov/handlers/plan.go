package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/nodeprov/internal/installplan"
	"github.com/imamik/nodeprov/internal/provisioning/kernel"
)

// Plan handles the plan command.
//
// It prints the install commands for every distribution in use without
// contacting any node. With kernelVersion set, the kernel install commands
// for that version are printed first.
func Plan(_ context.Context, configPath, kernelVersion string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	planner := installplan.New()

	var b strings.Builder
	writeHeader(&b, "nodeprov plan")

	if kernelVersion != "" {
		version, release, err := kernel.ParseRelease(kernelVersion)
		if err != nil {
			return err
		}
		plan, err := planner.KernelInstallCommands(version, release, cfg.Provider.DistributionTag, cfg.Provider.Architecture)
		if err != nil {
			return err
		}
		b.WriteString(renderPlan("kernel "+kernelVersion, plan))
	}

	seen := make(map[string]bool)
	for _, n := range cfg.Nodes {
		if seen[n.Distribution] {
			continue
		}
		seen[n.Distribution] = true

		plan, err := planner.StandardInstallCommands(cfg.Install.PackageSource, n.Distribution)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		b.WriteString(renderPlan(n.Distribution, plan))
	}

	fmt.Fprint(stdout, b.String())
	return nil
}
