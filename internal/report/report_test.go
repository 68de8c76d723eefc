package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

func sample() model.Report {
	return model.NewReport("Vault", []model.Finding{
		{ID: "forge-reentrancy-eth-9", Severity: model.SeverityCritical, Category: model.CategorySecurity, Title: "Reentrancy Eth", Description: "reenter <withdraw>", Line: 9, File: "Vault", Tool: "FORGE"},
		{ID: "forge-reentrancy-eth-12", Severity: model.SeverityCritical, Category: model.CategorySecurity, Title: "Reentrancy Eth", Line: 12, File: "Vault", Tool: "FORGE"},
		{ID: "forge-public-var-5", Severity: model.SeverityLow, Category: model.CategoryAccessControl, Title: "Public State Variable", Line: 0, File: "Vault", Tool: "FORGE"},
	}, []string{"ContractForge"})
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "{\n  \"success\": true") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("unexpected layout:\n%s", out)
	}
	if !strings.Contains(out, "reenter <withdraw>") {
		t.Error("html characters were escaped")
	}
	var back model.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.TotalIssues != 3 || back.ContractName != "Vault" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestWriteJSONPrecondition(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, model.NewPreconditionError("Usage: contractforge analyze <file> <contract>")); err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 3 || m["error"] == nil {
		t.Errorf("precondition shape = %v", m)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	var buf bytes.Buffer
	_ = WriteJSON(&buf, sample())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	var rep model.Report
	if err := Load(path, &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Issues) != 3 {
		t.Errorf("issues = %d", len(rep.Issues))
	}
	if err := Load(filepath.Join(t.TempDir(), "missing.json"), &rep); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestToSARIF(t *testing.T) {
	raw, err := ToSARIF(sample(), "contracts/Vault.sol")
	if err != nil {
		t.Fatal(err)
	}
	var doc sarif
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	run := doc.Runs[0]
	if doc.Version != "2.1.0" || run.Tool.Driver.Name != "ContractForge" {
		t.Errorf("header = %+v", doc)
	}
	if len(run.Results) != 3 || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("results = %d rules = %d", len(run.Results), len(run.Tool.Driver.Rules))
	}
	tests := []struct {
		level string
		line  int
	}{
		{"error", 9},
		{"error", 12},
		{"note", 1},
	}
	for i, tt := range tests {
		r := run.Results[i]
		if r.Level != tt.level || r.Locations[0].Physical.Region.StartLine != tt.line {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if run.Results[0].Properties.FindingID != "forge-reentrancy-eth-9" {
		t.Errorf("properties = %+v", run.Results[0].Properties)
	}
}
