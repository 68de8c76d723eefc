package report

import (
	"encoding/json"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}
type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
	Help             sarifMessage `json:"help"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLoc      `json:"locations"`
	Properties sarifProperties `json:"properties"`
}

type sarifProperties struct {
	FindingID string `json:"findingId"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
	Contract  string `json:"contract"`
}

type sarifMessage struct {
	Text string `json:"text"`
}
type sarifLoc struct {
	Physical sarifPhys `json:"physicalLocation"`
}
type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}
type sarifArt struct {
	URI string `json:"uri"`
}
type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func level(s model.Severity) string {
	switch s {
	case model.SeverityHigh, model.SeverityCritical:
		return "error"
	case model.SeverityMedium:
		return "warning"
	}
	return "note"
}

// ruleID groups every hit of one check under one rule, whatever its line.
func ruleID(f model.Finding) string {
	if f.Title != "" {
		return string(f.Category) + "/" + f.Title
	}
	return f.ID
}

// ToSARIF renders a report for sourcePath. SARIF regions are 1-based, so unknown
// lines are reported as line 1.
func ToSARIF(rep model.Report, sourcePath string) ([]byte, error) {
	driver := "ContractForge"
	if len(rep.ToolsUsed) > 0 {
		driver = rep.ToolsUsed[0]
	}
	results := make([]sarifResult, 0, len(rep.Issues))
	var rules []sarifRule
	seen := map[string]bool{}
	for _, f := range rep.Issues {
		id := ruleID(f)
		if !seen[id] {
			seen[id] = true
			rules = append(rules, sarifRule{ID: id, ShortDescription: sarifMessage{Text: f.Title}, Help: sarifMessage{Text: f.Recommendation}})
		}
		line := f.Line
		if line < 1 {
			line = 1
		}
		results = append(results, sarifResult{
			RuleID:  id,
			Level:   level(f.Severity),
			Message: sarifMessage{Text: f.Description},
			Locations: []sarifLoc{{Physical: sarifPhys{
				ArtifactLocation: sarifArt{URI: sourcePath},
				Region:           sarifRegion{StartLine: line},
			}}},
			Properties: sarifProperties{FindingID: f.ID, Severity: string(f.Severity), Category: string(f.Category), Contract: f.File},
		})
	}
	s := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{{Tool: sarifTool{Driver: sarifDriver{Name: driver, Rules: rules}}, Results: results}},
	}
	return json.MarshalIndent(s, "", "  ")
}
