// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/match-ranker/internal/metadata"
	"github.com/jonathan/match-ranker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // verbose output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of the rule profile.
func (p *Printer) PrintProfile(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Active:           %t\n", profile.Active))
	sb.WriteString(fmt.Sprintf("Require positive: %t\n", profile.RequirePositive))
	sb.WriteString("\n")

	lists := []struct {
		label string
		terms []string
	}{
		{"Exclude", profile.ExcludeTerms},
		{"Demote", profile.DemoteTerms},
		{"Include company", profile.IncludeCompanyTerms},
		{"Include title", profile.IncludeTitleTerms},
		{"Include website", profile.IncludeWebsiteTerms},
		{"Include industry", profile.IncludeIndustryTerms},
		{"Aux company", profile.AuxCompanyTerms},
		{"Aux title", profile.AuxTitleTerms},
		{"Aux website", profile.AuxWebsiteTerms},
		{"Aux industry", profile.AuxIndustryTerms},
	}
	for _, l := range lists {
		if len(l.terms) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", l.label, joinTerms(l.terms, 3)))
	}

	p.printBox("RULE PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRanked outputs the top N ranked candidates with their company and title.
func (p *Printer) PrintRanked(binding string, inputCount int, ranked []types.Candidate) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Binding: %s\n", binding))
	sb.WriteString(fmt.Sprintf("Kept %d of %d matches\n", len(ranked), inputCount))

	count := min(len(ranked), maxItemsToShow)
	if count > 0 {
		sb.WriteString("\n")
	}
	for i := 0; i < count; i++ {
		c := ranked[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, c.ID))
		if company, ok := metadata.Extract(c.Metadata, metadata.FieldCompany); ok {
			sb.WriteString(fmt.Sprintf("    Company: %s\n", company))
		}
		if title, ok := metadata.Extract(c.Metadata, metadata.FieldTitle); ok {
			sb.WriteString(fmt.Sprintf("    Title:   %s\n", title))
		}
	}

	if len(ranked) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more matches", len(ranked)-maxItemsToShow))
	}

	p.printBox("RANKED MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTitleFilter outputs how many items survived the title prefix filter.
func (p *Printer) PrintTitleFilter(binding string, prefixes []string, inputCount, keptCount int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Binding:  %s\n", binding))
	if len(prefixes) > 0 {
		sb.WriteString(fmt.Sprintf("Prefixes: %s\n", joinTerms(prefixes, maxItemsToShow)))
	}
	sb.WriteString(fmt.Sprintf("Kept %d of %d items", keptCount, inputCount))

	p.printBox("TITLE PREFIX FILTER", sb.String())
}

// ParitySummary is the part of a parity run shown in verbose mode.
type ParitySummary struct {
	RunID      string
	Fixtures   int
	Trials     int
	Mismatches []ParityMismatch
}

// ParityMismatch describes one input on which two bindings disagreed.
// Origin names the fixture or seed that produced the input.
type ParityMismatch struct {
	Operation string
	Origin    string
	Left      string
	Right     string
}

// PrintParityReport outputs the outcome of a parity run.
//
//nolint:errcheck // verbose output; errors are not recoverable
func (p *Printer) PrintParityReport(summary ParitySummary) {
	if len(summary.Mismatches) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ PARITY OK: %d fixtures, %d trials", summary.Fixtures, summary.Trials))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:   %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Found %d mismatches:\n\n", len(summary.Mismatches)))

	count := min(len(summary.Mismatches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := summary.Mismatches[i]
		sb.WriteString(fmt.Sprintf("⚠ %s\n", m.Operation))
		sb.WriteString(fmt.Sprintf("  %s (%s vs %s)\n", m.Origin, m.Left, m.Right))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(summary.Mismatches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more mismatches", len(summary.Mismatches)-maxItemsToShow))
	}

	p.printBox("PARITY MISMATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// joinTerms joins up to limit terms, noting how many were left out.
func joinTerms(terms []string, limit int) string {
	quoted := make([]string, 0, min(len(terms), limit))
	for _, t := range terms[:min(len(terms), limit)] {
		quoted = append(quoted, fmt.Sprintf("%q", t))
	}
	joined := strings.Join(quoted, ", ")
	if len(terms) > limit {
		joined += fmt.Sprintf(" +%d", len(terms)-limit)
	}
	return joined
}
