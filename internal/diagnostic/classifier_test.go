package diagnostic

import (
	"testing"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

var prov = model.Provenance{ID: "slither", Tool: "SLITHER", Name: "Slither"}

func TestClassifySeverityTiers(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantSev  model.Severity
		wantIDs  []string
		wantLine []int
	}{
		{
			name:     "deprecated_single_marker",
			message:  "SolidityError: deprecated use of X --> file.sol:42:1",
			wantSev:  model.SeverityHigh,
			wantIDs:  []string{"compilation-error-42"},
			wantLine: []int{42},
		},
		{
			name: "invalid_wins_over_deprecated_globally",
			message: "Warning: deprecated thing\n --> a.sol:3:5:\n" +
				"TypeError: Invalid type for argument\n --> a.sol:9:1:",
			wantSev:  model.SeverityCritical,
			wantIDs:  []string{"compilation-error-3", "compilation-error-9"},
			wantLine: []int{3, 9},
		},
		{
			name:     "unparseable_line_defaults_to_one",
			message:  "invalid token --> a.sol:abc:1",
			wantSev:  model.SeverityCritical,
			wantIDs:  []string{"compilation-error-1"},
			wantLine: []int{1},
		},
		{
			name:    "keyword_without_marker_has_no_findings",
			message: "Invalid pragma",
			wantSev: model.SeverityCritical,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.message, "Token", prov)
			if !r.Success {
				t.Fatalf("expected success report, got error %q", r.Error)
			}
			if r.TotalIssues != len(r.Issues) {
				t.Fatalf("totalIssues %d != len(issues) %d", r.TotalIssues, len(r.Issues))
			}
			if len(r.Issues) != len(tt.wantIDs) {
				t.Fatalf("expected %d issues, got %d: %+v", len(tt.wantIDs), len(r.Issues), r.Issues)
			}
			for i, f := range r.Issues {
				if f.Severity != tt.wantSev {
					t.Errorf("issue %d severity = %s, want %s", i, f.Severity, tt.wantSev)
				}
				if f.ID != tt.wantIDs[i] || f.Line != tt.wantLine[i] {
					t.Errorf("issue %d = %s@%d, want %s@%d", i, f.ID, f.Line, tt.wantIDs[i], tt.wantLine[i])
				}
				if f.Category != model.CategoryCompilation || f.File != "Token" || f.Tool != "SLITHER" {
					t.Errorf("unexpected metadata: %+v", f)
				}
				if f.Description != tt.message {
					t.Errorf("description should carry the full message")
				}
			}
			if len(r.ToolsUsed) != 1 || r.ToolsUsed[0] != "Slither" {
				t.Errorf("toolsUsed = %v", r.ToolsUsed)
			}
		})
	}
}

func TestClassifyUnrecognisedMessage(t *testing.T) {
	msg := "ParserError: Expected ';' but got '}'\n --> a.sol:7:1:"
	r := Classify(msg, "Vault", prov)
	if !r.Success || len(r.Issues) != 1 {
		t.Fatalf("expected one finding, got %+v", r)
	}
	f := r.Issues[0]
	if f.ID != "compilation-failed" || f.Severity != model.SeverityCritical || f.Line != 1 {
		t.Fatalf("unexpected finding: %+v", f)
	}
	if f.Description != msg {
		t.Fatalf("description = %q", f.Description)
	}
}
