package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/service"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Title    lipgloss.Color
	Status   lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Warning  lipgloss.Color
	Hint     lipgloss.Color
	Critical lipgloss.Color
}

var defaultTheme = Theme{
	Title:    lipgloss.Color("#FFFFFF"),
	Status:   lipgloss.Color("#5FAFD7"), // light blue
	Success:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Warning:  lipgloss.Color("#FFAF00"), // amber
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Critical: lipgloss.Color("#D70000"), // dark red
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityCritical:
		return lipgloss.NewStyle().Foreground(t.Critical).Bold(true)
	case models.SeverityHigh:
		return lipgloss.NewStyle().Foreground(t.Error)
	case models.SeverityMedium:
		return lipgloss.NewStyle().Foreground(t.Warning)
	default:
		return lipgloss.NewStyle().Foreground(t.Hint)
	}
}

// printer writes command results as styled text or indented JSON.
type printer struct {
	w     io.Writer
	json  bool
	theme Theme
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, json: asJSON, theme: defaultTheme}
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) encode(v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (p *printer) header(title string, total, shown int) {
	p.printf("%s\n", p.theme.titleStyle().Render(title))
	p.printf("%s\n\n", p.theme.hintStyle().Render(fmt.Sprintf("%d results, showing %d", total, shown)))
}

func (p *printer) practices(resp models.SearchResponse[models.KnowledgeRecord]) error {
	if p.json {
		return p.encode(resp)
	}
	if len(resp.Results) == 0 {
		p.printf("No best practices found.\n")
		return nil
	}
	p.header("Best practices: "+resp.Query, resp.TotalResults, len(resp.Results))
	for i, r := range resp.Results {
		p.record(i, r, "")
	}
	return nil
}

func (p *printer) compliance(resp models.SearchResponse[models.ComplianceRecord]) error {
	if p.json {
		return p.encode(resp)
	}
	if len(resp.Results) == 0 {
		p.printf("No compliance requirements found.\n")
		return nil
	}
	p.header("Compliance: "+resp.Query, resp.TotalResults, len(resp.Results))
	for i, r := range resp.Results {
		tag := p.theme.severityStyle(r.Severity).Render(strings.ToUpper(string(r.Severity)))
		p.record(i, r.KnowledgeRecord, tag)
		if r.RegulatoryBody != "" {
			p.printf("   Regulator: %s\n", r.RegulatoryBody)
		}
		for _, a := range r.RequiredActions {
			p.printf("   • %s\n", a)
		}
		p.printf("\n")
	}
	return nil
}

func (p *printer) benchmarks(resp models.SearchResponse[models.BenchmarkRecord]) error {
	if p.json {
		return p.encode(resp)
	}
	if len(resp.Results) == 0 {
		p.printf("No benchmarks found.\n")
		return nil
	}
	p.header("Benchmarks: "+resp.Query, resp.TotalResults, len(resp.Results))
	for i, r := range resp.Results {
		p.record(i, r.KnowledgeRecord, "")
		v := r.Values
		p.printf("   p25 %s  p50 %s  p75 %s  p90 %s\n",
			withUnit(v.P25, r.MetricUnit), withUnit(v.P50, r.MetricUnit),
			withUnit(v.P75, r.MetricUnit), withUnit(v.P90, r.MetricUnit))
		if r.Origin != "" {
			p.printf("   %s\n", p.theme.hintStyle().Render("origin: "+string(r.Origin)))
		}
		p.printf("\n")
	}
	return nil
}

func withUnit(v float64, unit string) string {
	switch unit {
	case "":
		return fmt.Sprintf("%.1f", v)
	case "%":
		return fmt.Sprintf("%.1f%%", v)
	default:
		return fmt.Sprintf("%.1f %s", v, unit)
	}
}

func (p *printer) record(i int, r models.KnowledgeRecord, tag string) {
	title := p.theme.titleStyle().Render(r.Title)
	if tag != "" {
		title = tag + " " + title
	}
	p.printf("%d. %s %s\n", i+1, title,
		p.theme.statusStyle().Render(fmt.Sprintf("[%s %.2f]", r.Source, r.Relevance)))
	if r.Description != "" {
		p.printf("   %s\n", truncate(r.Description, 160))
	}
	if r.URL != "" {
		p.printf("   %s\n", p.theme.hintStyle().Render(r.URL))
	}
}

func (p *printer) report(r models.ValidationReport) error {
	if p.json {
		return p.encode(r)
	}
	if r.OverallValid {
		p.printf("%s\n", p.theme.completedStyle().Render("✓ Template is valid"))
	} else {
		p.printf("%s\n", p.theme.errorStyle().Render("✗ Template is invalid"))
	}
	p.printf("Completeness: %d/100\n", r.CompletenessScore)

	if len(r.Errors) > 0 {
		p.printf("\nErrors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			p.printf("  • %s %s\n", p.theme.errorStyle().Render(string(e.Severity)), e.Message)
		}
	}
	if len(r.Warnings) > 0 {
		p.printf("\nWarnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			p.printf("  • %s\n", p.theme.warningStyle().Render(w.Message))
			if w.Suggestion != "" {
				p.printf("    %s\n", p.theme.hintStyle().Render(w.Suggestion))
			}
		}
	}
	return nil
}

func (p *printer) steps(steps []models.TemplateStep) error {
	if p.json {
		return p.encode(steps)
	}
	for i, s := range steps {
		marker := " "
		if s.CriticalPath {
			marker = p.theme.completedStyle().Render("*")
		}
		line := fmt.Sprintf("%2d. %s %s (%s)", i+1, marker, s.Name, s.ID)
		if s.Duration > 0 {
			line += fmt.Sprintf(" %.1fh", s.Duration)
		}
		if len(s.Dependencies) > 0 {
			line += p.theme.hintStyle().Render(" after " + strings.Join(s.Dependencies, ", "))
		}
		p.printf("%s\n", line)
	}
	return nil
}

func (p *printer) recommendations(recs []models.TemplateRecommendation) error {
	if p.json {
		return p.encode(recs)
	}
	for _, r := range recs {
		p.template(r)
		for _, alt := range r.Alternatives {
			p.printf("\n%s\n", p.theme.hintStyle().Render("Alternative:"))
			p.template(alt)
		}
	}
	return nil
}

func (p *printer) template(r models.TemplateRecommendation) {
	p.printf("%s %s\n", p.theme.titleStyle().Render(r.Name), p.theme.hintStyle().Render(r.ID))
	if r.Description != "" {
		p.printf("%s\n", r.Description)
	}
	p.printf("Confidence %.2f, %s, %.1f hours\n\n", r.Confidence, r.Complexity, r.EstimatedDuration)
	_ = p.steps(r.Steps)
	if len(r.Rationale) > 0 {
		p.printf("\nRationale:\n")
		for _, line := range r.Rationale {
			p.printf("  • %s\n", line)
		}
	}
}

func (p *printer) job(j *service.Job) error {
	if p.json {
		return p.encode(j)
	}
	switch j.Status {
	case service.JobStatusCompleted:
		p.printf("%s research stored %d results for %q\n",
			p.theme.completedStyle().Render("✓"), j.Stored, j.Query)
	case service.JobStatusFailed:
		p.printf("%s research failed: %s\n", p.theme.errorStyle().Render("✗"), j.Error)
	default:
		p.printf("%s research %s for %q\n", p.theme.statusStyle().Render("…"), j.Status, j.Query)
	}
	return nil
}

// importCounts is the result of a knowledge base import.
type importCounts struct {
	BestPractices int `json:"best_practices"`
	Compliance    int `json:"compliance"`
	Benchmarks    int `json:"benchmarks"`
}

func (p *printer) imported(c importCounts) error {
	if p.json {
		return p.encode(c)
	}
	p.printf("%s\n", p.theme.completedStyle().Render("✓ Imported"))
	p.printf("  Best practices: %d\n", c.BestPractices)
	p.printf("  Compliance:     %d\n", c.Compliance)
	p.printf("  Benchmarks:     %d\n", c.Benchmarks)
	return nil
}

func (p *printer) coverage(fresh map[models.ResearchDomain]int) error {
	if p.json {
		return p.encode(fresh)
	}
	p.printf("%s\n", p.theme.titleStyle().Render("Fresh research cache entries"))
	for _, d := range []models.ResearchDomain{models.DomainBestPractices, models.DomainCompliance, models.DomainBenchmarks} {
		p.printf("  %-16s %d\n", d, fresh[d])
	}
	return nil
}

// truncate shortens s to n runes, adding "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
