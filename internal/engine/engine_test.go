package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ContractForgeEVM/contractforge/internal/catalog"
	"github.com/ContractForgeEVM/contractforge/internal/compiler"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/plugins"
)

type fakeCompiler struct {
	model *model.ContractModel
	err   error
	panic bool
}

func (f *fakeCompiler) Name() string { return "fake" }

func (f *fakeCompiler) Compile(context.Context, string, compiler.Options) (*model.ContractModel, error) {
	if f.panic {
		panic("compiler blew up")
	}
	return f.model, f.err
}

type fakeDetector struct {
	id      string
	line    int
	err     error
	panics  bool
	results []model.RawResult
}

func (d *fakeDetector) ID() string          { return d.id }
func (d *fakeDetector) Description() string { return "" }

func (d *fakeDetector) Run(*model.ContractModel) ([]model.RawResult, error) {
	if d.panics {
		panic("detector bug")
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.results != nil {
		return d.results, nil
	}
	return []model.RawResult{{
		Check:    d.id,
		Elements: []model.Element{{Name: "f", Source: &model.SourceMapping{Lines: []int{d.line}}}},
	}}, nil
}

type fakeBackend struct{ reg *plugins.Registry }

func (b fakeBackend) Provenance() model.Provenance { return ForgeProvenance }

func (b fakeBackend) Source(context.Context, string, compiler.Options) plugins.Source { return b.reg }

func vaultModel() *model.ContractModel {
	return &model.ContractModel{File: "Vault.sol", Contracts: []*model.Contract{{
		Name: "Vault",
		Functions: []*model.Function{{
			Name: "pay",
			ExternalCalls: []*model.ExternalCall{
				{Expression: "to.transfer(1)", Member: "transfer", Source: &model.SourceMapping{Lines: []int{11}}},
				{Expression: "token.approve(x, 1)", Member: "approve", Source: &model.SourceMapping{Lines: []int{12}}},
				{Expression: "to.send(1)", Member: "send"},
			},
		}},
		StateVariables: []*model.StateVariable{
			{Name: "owner", Visibility: "public", Source: &model.SourceMapping{Lines: []int{5}}},
			{Name: "secret", Visibility: "private", Source: &model.SourceMapping{Lines: []int{6}}},
			{Name: "ghost", Visibility: "public"},
		},
	}}}
}

func newEngine(c compiler.Compiler, ids []string, detectors ...plugins.Detector) *Engine {
	reg := plugins.NewRegistry()
	for _, d := range detectors {
		reg.Register(d)
	}
	return New(c, fakeBackend{reg: reg}, WithCatalog(catalog.New(ids)))
}

func ids(issues []model.Finding) []string {
	out := make([]string, 0, len(issues))
	for _, f := range issues {
		out = append(out, f.ID)
	}
	return out
}

func TestAnalyzeOrdersByCatalogAndIsolatesFaults(t *testing.T) {
	e := newEngine(&fakeCompiler{model: vaultModel()},
		[]string{"reentrancy-eth", "missing", "tx-origin", "weak-prng", "suicidal"},
		&fakeDetector{id: "suicidal", line: 4},
		&fakeDetector{id: "weak-prng", panics: true},
		&fakeDetector{id: "tx-origin", err: errors.New("boom")},
		&fakeDetector{id: "reentrancy-eth", line: 9},
	)
	rep := e.Analyze(context.Background(), "Vault.sol", "Vault")
	if !rep.Success {
		t.Fatalf("report failed: %s", rep.Error)
	}
	want := []string{
		"forge-reentrancy-eth-9",
		"forge-suicidal-4",
		"forge-external-call-11",
		"forge-public-var-5",
	}
	if got := ids(rep.Issues); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("issues = %v, want %v", got, want)
	}
	if rep.TotalIssues != len(rep.Issues) {
		t.Errorf("totalIssues = %d, len = %d", rep.TotalIssues, len(rep.Issues))
	}
	if len(rep.ToolsUsed) != 1 || rep.ToolsUsed[0] != "ContractForge" {
		t.Errorf("toolsUsed = %v", rep.ToolsUsed)
	}
	first := rep.Issues[0]
	if first.Severity != model.SeverityCritical || first.Title != "Reentrancy Eth" || first.Description != "Detected by reentrancy-eth" ||
		first.Recommendation != "Fix reentrancy-eth vulnerability" || first.File != "Vault" || first.Tool != "FORGE" {
		t.Errorf("detector finding = %+v", first)
	}
	if rep.Issues[1].Severity != model.SeverityMedium {
		t.Errorf("suicidal severity = %s", rep.Issues[1].Severity)
	}
}

func TestRunnerElements(t *testing.T) {
	d := &fakeDetector{id: "unchecked-send", results: []model.RawResult{{
		Description: "Vault.pay ignores return value",
		Elements: []model.Element{
			{Name: "pay", Source: &model.SourceMapping{Lines: []int{7, 8}}},
			{Name: "unmapped"},
			{Name: "no lines", Source: &model.SourceMapping{}},
		},
	}}}
	reg := plugins.NewRegistry()
	reg.Register(d)
	r := &Runner{Catalog: catalog.New([]string{"unchecked-send"}), Source: reg, Prov: SlitherProvenance}
	got := r.Run(&model.ContractModel{}, "Vault")
	if strings.Join(ids(got), ",") != "slither-unchecked-send-7,slither-unchecked-send-0" {
		t.Fatalf("ids = %v", ids(got))
	}
	if got[0].Description != "Vault.pay ignores return value" || got[1].Line != 0 {
		t.Errorf("findings = %+v", got)
	}
}

func TestAnalyzeDiagnosesCompilationFailure(t *testing.T) {
	e := newEngine(&fakeCompiler{err: &compiler.CompilationError{Text: "SolidityError: deprecated use of X --> file.sol:42:1"}}, nil)
	rep := e.Analyze(context.Background(), "file.sol", "Vault")
	if !rep.Success || len(rep.Issues) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	f := rep.Issues[0]
	if f.Category != model.CategoryCompilation || f.Line != 42 || f.Severity != model.SeverityHigh || f.ID != "compilation-error-42" {
		t.Errorf("finding = %+v", f)
	}
}

func TestAnalyzeErrorReports(t *testing.T) {
	tests := []struct {
		name     string
		compiler *fakeCompiler
		contract string
		want     string
	}{
		{"not found", &fakeCompiler{model: vaultModel()}, "vault", "Contract vault not found"},
		{"no contracts", &fakeCompiler{model: &model.ContractModel{}}, "Vault", "No contracts found in Vault.sol"},
		{"unexpected", &fakeCompiler{err: errors.New("solc: permission denied")}, "Vault", "analysis failed: solc: permission denied"},
		{"nil model", &fakeCompiler{}, "Vault", "analysis failed: compiler returned no model"},
		{"panic", &fakeCompiler{panic: true}, "Vault", "analysis failed: compiler blew up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newEngine(tt.compiler, nil).Analyze(context.Background(), "Vault.sol", tt.contract)
			if rep.Success || rep.Error != tt.want {
				t.Errorf("report = %+v, want error %q", rep, tt.want)
			}
			if rep.Issues == nil || len(rep.Issues) != 0 || rep.ToolsUsed == nil || len(rep.ToolsUsed) != 0 || rep.TotalIssues != 0 {
				t.Errorf("error report must carry empty lists: %+v", rep)
			}
		})
	}
}

func TestAnalyzeSuccessWithNoFindings(t *testing.T) {
	m := &model.ContractModel{Contracts: []*model.Contract{{Name: "Empty"}}}
	rep := newEngine(&fakeCompiler{model: m}, []string{"reentrancy-eth"}).Analyze(context.Background(), "E.sol", "Empty")
	if !rep.Success || rep.TotalIssues != 0 || rep.Issues == nil {
		t.Fatalf("report = %+v", rep)
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"issues":[]`) || strings.Contains(string(raw), `"error"`) {
		t.Errorf("json = %s", raw)
	}
}

func TestAnalyzePublicOwnerEndToEnd(t *testing.T) {
	src := strings.Join([]string{
		"pragma solidity ^0.8.0;",
		"",
		"contract Owned {",
		"    // set once",
		"    address public owner;",
		"",
		"    constructor() {",
		"        owner = msg.sender;",
		"    }",
		"}",
	}, "\n")
	path := filepath.Join(t.TempDir(), "Owned.sol")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	rep := New(compiler.Heuristic{}, Builtin{}).Analyze(context.Background(), path, "Owned")
	if !rep.Success || len(rep.Issues) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	f := rep.Issues[0]
	if f.Severity != model.SeverityLow || f.Category != model.CategoryAccessControl || f.Line != 5 || !strings.Contains(f.Description, "owner") {
		t.Errorf("finding = %+v", f)
	}
}

func TestAnalyzePublicVariablesWithAttributes(t *testing.T) {
	src := strings.Join([]string{
		"pragma solidity ^0.8.0;",
		"",
		"contract Token {",
		"    // receives fees",
		"    address payable public owner;",
		"    string public constant NAME = \"T\";",
		"    IERC20 public immutable token;",
		"    uint256 public override total;",
		"}",
	}, "\n")
	path := filepath.Join(t.TempDir(), "Token.sol")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	rep := New(compiler.Heuristic{}, Builtin{Registry: plugins.NewRegistry()}).Analyze(context.Background(), path, "Token")
	want := []string{"forge-public-var-5", "forge-public-var-6", "forge-public-var-7", "forge-public-var-8"}
	if !rep.Success || len(rep.Issues) != len(want) {
		t.Fatalf("got %d issues, want %d: %+v", len(rep.Issues), len(want), rep)
	}
	for i, id := range want {
		if rep.Issues[i].ID != id {
			t.Errorf("issue %d = %s, want %s", i, rep.Issues[i].ID, id)
		}
	}
}

func TestAtOrAbove(t *testing.T) {
	fs := []model.Finding{{Severity: model.SeverityLow}, {Severity: model.SeverityHigh}, {Severity: model.SeverityCritical}}
	if got := AtOrAbove(fs, model.SeverityHigh); len(got) != 2 {
		t.Errorf("got %d findings", len(got))
	}
}

func TestHumanize(t *testing.T) {
	tests := map[string]string{
		"reentrancy-no-eth": "Reentrancy No Eth",
		"tx-origin":         "Tx Origin",
		"incorrect-erc20":   "Incorrect Erc20",
		"suicidal":          "Suicidal",
	}
	for in, want := range tests {
		if got := Humanize(in); got != want {
			t.Errorf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
