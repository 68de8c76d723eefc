package engine

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// ScanPatterns applies the detector-independent rules to one contract: value
// moving external calls first, then public state variables.
func ScanPatterns(c *model.Contract, prov model.Provenance) []model.Finding {
	out := externalCalls(c, prov)
	return append(out, publicVariables(c, prov)...)
}

func externalCalls(c *model.Contract, prov model.Provenance) []model.Finding {
	var out []model.Finding
	for _, fn := range c.Functions {
		for _, call := range fn.ExternalCalls {
			if !call.Source.Resolvable() {
				continue
			}
			text := strings.ToLower(call.String())
			if !strings.Contains(text, "transfer") && !strings.Contains(text, "send") {
				continue
			}
			line := call.Source.FirstLine()
			out = append(out, model.Finding{
				ID:             fmt.Sprintf("%s-external-call-%d", prov.ID, line),
				Severity:       model.SeverityMedium,
				Category:       model.CategoryExternalCall,
				Title:          "External Call Detected",
				Description:    "External call found in function",
				Line:           line,
				File:           c.Name,
				Tool:           prov.Tool,
				Recommendation: "Review external call for security implications",
				Impact:         "Potential security risk",
			})
		}
	}
	return out
}

func publicVariables(c *model.Contract, prov model.Provenance) []model.Finding {
	var out []model.Finding
	for _, v := range c.StateVariables {
		if !v.Source.Resolvable() || v.Visibility != "public" {
			continue
		}
		line := v.Source.FirstLine()
		out = append(out, model.Finding{
			ID:             fmt.Sprintf("%s-public-var-%d", prov.ID, line),
			Severity:       model.SeverityLow,
			Category:       model.CategoryAccessControl,
			Title:          "Public State Variable",
			Description:    "Public state variable: " + v.Name,
			Line:           line,
			File:           c.Name,
			Tool:           prov.Tool,
			Recommendation: "Consider if public visibility is necessary",
			Impact:         "Information disclosure",
		})
	}
	return out
}
