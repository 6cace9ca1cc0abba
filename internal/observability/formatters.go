// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/db"
	"github.com/callumw/profile-auditor/internal/parsing"
	"github.com/callumw/profile-auditor/internal/scoring"
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
//nolint:errcheck // writing to stdout; errors are not recoverable
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

// itemList renders up to maxItemsToShow entries with a remainder line.
func itemList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintRecord outputs a human-readable summary of a parsed profile.
func (p *Printer) PrintRecord(record *parsing.Record) {
	if record == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:         %s\n", record.Name))
	if record.RegistrationNumber != "" {
		sb.WriteString(fmt.Sprintf("Registration: %s\n", record.RegistrationNumber))
	}
	if record.Hospital != "" {
		sb.WriteString(fmt.Sprintf("Hospital:     %s\n", record.Hospital))
	}
	sb.WriteString(fmt.Sprintf("Photo:        %v\n", record.HasPhoto))
	if record.PractisingSince != nil {
		sb.WriteString(fmt.Sprintf("Practising:   since %d\n", *record.PractisingSince))
	}
	sb.WriteString("\n")

	itemList(&sb, "Specialties", record.SpecialtyEvidence())
	itemList(&sb, "Treatments", record.Treatments)
	itemList(&sb, "Insurers", record.Insurers)

	p.printBox(fmt.Sprintf("PARSED PROFILE: %s", record.Slug), strings.TrimRight(sb.String(), "\n"))
}

// PrintAvailability outputs the booking stage result.
func (p *Printer) PrintAvailability(slug string, avail *booking.Availability) {
	if avail == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State:          %s\n", avail.State))
	sb.WriteString(fmt.Sprintf("Slots (28d):    %d\n", avail.SlotCount28d))
	if avail.NextAvailable != nil {
		sb.WriteString(fmt.Sprintf("Next available: %s\n", avail.NextAvailable.Format("2006-01-02")))
	}
	if avail.MinPrice != nil {
		sb.WriteString(fmt.Sprintf("From price:     £%.2f\n", *avail.MinPrice))
	}

	p.printBox(fmt.Sprintf("BOOKING: %s", slug), strings.TrimRight(sb.String(), "\n"))
}

// PrintScore outputs the scoring verdict for one profile.
func (p *Printer) PrintScore(slug string, result *scoring.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score: %.1f\n", result.Score))
	sb.WriteString(fmt.Sprintf("Tier:  %s\n", result.Tier))
	if len(result.Flags) > 0 {
		sb.WriteString("Flags:\n")
		for _, flag := range result.Flags {
			sb.WriteString(fmt.Sprintf("  [%s] %s: %s\n", flag.Severity, flag.Code, flag.Message))
		}
	}

	p.printBox(fmt.Sprintf("SCORE: %s", slug), strings.TrimRight(sb.String(), "\n"))
}

// PrintRunSummary outputs the finalized run record.
func (p *Printer) PrintRunSummary(run *db.Run) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("Config:   %s\n", run.ConfigVersion))
	sb.WriteString(fmt.Sprintf("Profiles: %d total, %d succeeded, %d errored", run.TotalProfiles, run.SuccessCount, run.ErrorCount))

	p.printBox("RUN SUMMARY", sb.String())
}
