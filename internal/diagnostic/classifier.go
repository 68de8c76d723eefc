// Package diagnostic turns compiler failure text into findings.
package diagnostic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

const locationMarker = "-->"

// Classify converts a compilation failure message into a successful report whose
// issues describe the failure. It never returns an error report.
func Classify(message, contract string, prov model.Provenance) model.Report {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "deprecated") && !strings.Contains(lower, "invalid") {
		return model.NewReport(contract, []model.Finding{{
			ID:             "compilation-failed",
			Severity:       model.SeverityCritical,
			Category:       model.CategoryCompilation,
			Title:          "Compilation Failed",
			Description:    message,
			Line:           1,
			File:           contract,
			Tool:           prov.Tool,
			Recommendation: "Fix compilation errors",
			Impact:         "Contract cannot be analyzed",
		}}, []string{prov.Name})
	}

	// the tier is decided on the whole message, not per diagnostic line
	sev := messageSeverity(lower)
	var issues []model.Finding
	for _, l := range strings.Split(message, "\n") {
		line, ok := markerLine(l)
		if !ok {
			continue
		}
		issues = append(issues, model.Finding{
			ID:             fmt.Sprintf("compilation-error-%d", line),
			Severity:       sev,
			Category:       model.CategoryCompilation,
			Title:          "Compilation Error",
			Description:    message,
			Line:           line,
			File:           contract,
			Tool:           prov.Tool,
			Recommendation: "Fix compilation errors before security audit",
			Impact:         "Contract cannot be compiled",
		})
	}
	return model.NewReport(contract, issues, []string{prov.Name})
}

func messageSeverity(lower string) model.Severity {
	switch {
	case strings.Contains(lower, "invalid"):
		return model.SeverityCritical
	case strings.Contains(lower, "deprecated"):
		return model.SeverityHigh
	default:
		return model.SeverityMedium
	}
}

// markerLine parses "<msg> --> path:line:col" and returns the line field.
// A marker whose line field is not a number yields line 1.
func markerLine(l string) (int, bool) {
	idx := strings.Index(l, locationMarker)
	if idx < 0 || !strings.Contains(l, ":") {
		return 0, false
	}
	loc := strings.TrimSpace(l[idx+len(locationMarker):])
	parts := strings.Split(loc, ":")
	if len(parts) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 1, true
	}
	return n, true
}
