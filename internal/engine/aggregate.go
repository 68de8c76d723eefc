package engine

import "github.com/ContractForgeEVM/contractforge/internal/model"

// Aggregate concatenates detector findings and pattern findings, in that order,
// without deduplication.
func Aggregate(contract string, detectors, patterns []model.Finding, tools []string) model.Report {
	issues := make([]model.Finding, 0, len(detectors)+len(patterns))
	issues = append(issues, detectors...)
	issues = append(issues, patterns...)
	return model.NewReport(contract, issues, tools)
}
