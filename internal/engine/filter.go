package engine

import (
	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// AtOrAbove returns the findings whose severity reaches threshold.
func AtOrAbove(findings []model.Finding, threshold model.Severity) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if model.SeverityGTE(f.Severity, threshold) {
			out = append(out, f)
		}
	}
	return out
}
