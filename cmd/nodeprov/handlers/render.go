package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/report"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

func writeHeader(b *strings.Builder, title string) {
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  " + title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")
}

// renderReport produces the summary printed after a provision run.
func renderReport(r *report.Report) string {
	var b strings.Builder
	writeHeader(&b, fmt.Sprintf("nodeprov provision: %s backend", r.Backend))

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-12s %-16s %-10s %9s  %s", "Node", "Address", "Status", "Duration", "Detail")))
	b.WriteString("\n")

	for _, res := range r.Results {
		status := okStyle.Render(fmt.Sprintf("%-10s", "✓ ok"))
		detail := ""
		if res.Status == report.StatusFailed {
			status = failStyle.Render(fmt.Sprintf("%-10s", "✗ failed"))
			detail = res.Error
		}
		b.WriteString(fmt.Sprintf("  %-12s %-16s %s %9s  %s\n",
			res.NodeID, res.Address, status, res.Duration.Round(time.Second), detail))
	}

	b.WriteString("\n")
	failed := r.Failed()
	summary := fmt.Sprintf("  %d of %d node(s) provisioned", len(r.Results)-failed, len(r.Results))
	if failed > 0 {
		b.WriteString(failStyle.Render(summary))
	} else {
		b.WriteString(okStyle.Render(summary))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  run " + r.RunID))
	b.WriteString("\n")
	return b.String()
}

// renderKernels lists the kernels matching prefix and marks the selected one.
func renderKernels(nodeID, prefix string, kernels []provisioning.Kernel, selected *provisioning.Kernel) string {
	var b strings.Builder
	writeHeader(&b, "nodeprov kernels: node "+nodeID)

	b.WriteString(sectionStyle.Render(fmt.Sprintf("  Matching %q", prefix)))
	b.WriteString("\n")

	matched := 0
	for _, k := range kernels {
		if !strings.HasPrefix(k.Name, prefix) {
			continue
		}
		matched++
		line := fmt.Sprintf("    %-10s %-40s %s", k.ID, k.Name, k.Version)
		if selected != nil && k.ID == selected.ID {
			b.WriteString(okStyle.Render("  * " + strings.TrimPrefix(line, "    ")))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	if matched == 0 {
		b.WriteString(failStyle.Render("    no kernel matches"))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d of %d available kernel(s) match", matched, len(kernels))))
	b.WriteString("\n")
	return b.String()
}

// renderPlan prints the commands for one distribution.
func renderPlan(title string, plan provisioning.Plan) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("  " + title))
	b.WriteString("\n")
	for _, cmd := range plan {
		b.WriteString("    " + cmd + "\n")
	}
	return b.String()
}

// check is one line of `nodeprov check` output.
type check struct {
	name string
	err  error
}

func renderChecks(checks []check) string {
	var b strings.Builder
	writeHeader(&b, "nodeprov check")
	for _, c := range checks {
		if c.err != nil {
			b.WriteString(failStyle.Render(fmt.Sprintf("  ✗ %s: %v", c.name, c.err)))
		} else {
			b.WriteString(okStyle.Render("  ✓ " + c.name))
		}
		b.WriteString("\n")
	}
	return b.String()
}
