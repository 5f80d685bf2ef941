package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Width(12).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	detailStyle  = lipgloss.NewStyle().Faint(true)
	summaryStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

func badge(s StepOutcome) string {
	switch {
	case s.Status == StatusSucceeded && s.Warning:
		return warnStyle.Render("WARN")
	case s.Status == StatusSucceeded:
		return okStyle.Render("OK")
	case s.Status == StatusSkipped:
		return skipStyle.Render("SKIP")
	default:
		return failStyle.Render("FAIL")
	}
}

func line(b *strings.Builder, label string, s StepOutcome) {
	fmt.Fprintf(b, "%s %s", label, badge(s))
	if s.Detail != "" {
		fmt.Fprintf(b, "  %s", detailStyle.Render(s.Detail))
	}
	b.WriteByte('\n')
}

// Render writes a human-readable report to w.
func Render(w io.Writer, r *Report) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("hostpager configuration report"))
	b.WriteString("\n\n")

	line(&b, labelStyle.Render("Discovery"), r.Discovery)
	for _, in := range r.Instances {
		fmt.Fprintf(&b, "  - %s (%s, %s)\n", in.Name, in.ResourceGroup, in.Location)
	}
	line(&b, labelStyle.Render("Webhook"), r.Webhook)
	fmt.Fprintf(&b, "%s %d/%d created\n", labelStyle.Render("Monitors"), r.MonitorsSucceeded(), len(r.Monitors))
	for _, m := range r.Monitors {
		line(&b, "  - "+m.Host, m.StepOutcome)
	}
	line(&b, labelStyle.Render("Paging"), r.Paging)
	line(&b, labelStyle.Render("Health"), r.Health)

	if r.Success() {
		b.WriteString(summaryStyle.Render(okStyle.Render("Alert path configured.")))
	} else {
		b.WriteString(summaryStyle.Render(failStyle.Render("Configuration incomplete.")))
	}
	b.WriteByte('\n')

	for _, warn := range r.Warnings() {
		b.WriteString(warnStyle.Render("! " + warn))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonReport struct {
	*Report
	Success  bool     `json:"success"`
	ExitCode int      `json:"exit_code"`
	Warnings []string `json:"warnings,omitempty"`
}

// RenderJSON writes the report and its derived fields as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Report:   r,
		Success:  r.Success(),
		ExitCode: r.ExitCode(),
		Warnings: r.Warnings(),
	})
}
