package installplan

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/imamik/nodeprov/internal/provisioning"
)

const (
	// DefaultKojiURL hosts Fedora kernel builds by version and release.
	DefaultKojiURL = "https://kojipkgs.fedoraproject.org/packages"
	// DefaultArchiveURL hosts the release repository packages.
	DefaultArchiveURL = "https://clusterhq-archive.s3.amazonaws.com"
	// DefaultBuildServer hosts per-branch package repositories.
	DefaultBuildServer = "http://build.clusterhq.com"

	nodePackage = "clusterhq-flocker-node"
)

// ErrUnsupportedDistribution is returned for distributions without an install plan.
var ErrUnsupportedDistribution = errors.New("unsupported distribution")

// kernelPackages are installed together so modules can be built against the new kernel.
var kernelPackages = []string{"kernel", "kernel-devel"}

type distribution struct {
	// archivePath is the release repository directory under the archive.
	archivePath string
	// buildPath is the branch repository directory under the build server.
	buildPath string
	// prepare runs before the release repository is added.
	prepare []string
	// services are enabled and started after the node package is installed.
	services []string
}

var distributions = map[string]distribution{
	"fedora-20": {
		archivePath: "fedora",
		buildPath:   "fedora/20/x86_64",
		services:    []string{"docker"},
	},
	"centos-7": {
		archivePath: "centos",
		buildPath:   "centos/7/x86_64",
		prepare:     []string{"yum install -y epel-release"},
		services:    []string{"docker"},
	},
}

// Distributions returns the names of the supported distributions, sorted.
func Distributions() []string {
	return slices.Sorted(maps.Keys(distributions))
}

// Planner implements provisioning.InstallPlanner.
type Planner struct {
	KojiURL    string
	ArchiveURL string
	// BuildServer is used for branch installs when the package source does not name one.
	BuildServer string
}

// New returns a Planner using the public package locations.
func New() *Planner {
	return &Planner{
		KojiURL:     DefaultKojiURL,
		ArchiveURL:  DefaultArchiveURL,
		BuildServer: DefaultBuildServer,
	}
}

// KernelInstallCommands returns the commands installing the kernel packages
// for version and release, built for distribution and architecture.
func (p *Planner) KernelInstallCommands(version, release, distribution, architecture string) (provisioning.Plan, error) {
	for name, v := range map[string]string{
		"version":      version,
		"release":      release,
		"distribution": distribution,
		"architecture": architecture,
	} {
		if v == "" {
			return nil, fmt.Errorf("kernel %s is required", name)
		}
	}

	urls := make([]string, 0, len(kernelPackages))
	for _, pkg := range kernelPackages {
		urls = append(urls, fmt.Sprintf("%s/kernel/%s/%s.%s/%s/%s-%s-%s.%s.%s.rpm",
			strings.TrimSuffix(p.KojiURL, "/"),
			version, release, distribution, architecture,
			pkg, version, release, distribution, architecture))
	}

	cmd, err := command("yum", append([]string{"install", "-y"}, urls...)...)
	if err != nil {
		return nil, err
	}
	return provisioning.Plan{cmd}, nil
}

// StandardInstallCommands returns the commands installing the node package
// from source on a node running distribution.
func (p *Planner) StandardInstallCommands(source provisioning.PackageSource, distribution string) (provisioning.Plan, error) {
	dist, ok := distributions[distribution]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedDistribution, distribution, strings.Join(Distributions(), ", "))
	}

	plan := slices.Clone(provisioning.Plan(dist.prepare))

	// rpm expands %dist on the node, so this part stays unquoted.
	plan = append(plan, fmt.Sprintf("yum install -y %s/%s/clusterhq-release$(rpm -E %%dist).noarch.rpm",
		strings.TrimSuffix(p.ArchiveURL, "/"), dist.archivePath))

	if source.Branch != "" {
		server := source.BuildServer
		if server == "" {
			server = p.BuildServer
		}
		repo := fmt.Sprintf("%s/results/omnibus/%s/%s", strings.TrimSuffix(server, "/"), source.Branch, dist.buildPath)
		cmd, err := command("yum-config-manager", "--add-repo", repo)
		if err != nil {
			return nil, err
		}
		plan = append(plan, cmd)
	}

	pkg := nodePackage
	if source.Version != "" {
		pkg += "-" + source.Version
	}
	cmd, err := command("yum", "install", "-y", pkg)
	if err != nil {
		return nil, err
	}
	plan = append(plan, cmd)

	for _, svc := range dist.services {
		plan = append(plan, "systemctl enable "+svc, "systemctl start "+svc)
	}
	return plan, nil
}

// command joins name and args, quoting each argument for bash.
func command(name string, args ...string) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote %q: %w", arg, err)
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " "), nil
}
