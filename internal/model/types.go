package model

import "strings"

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity is case-insensitive; unknown values map to LOW.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

func SeverityGTE(a, b Severity) bool { return a.Rank() >= b.Rank() }

// Category is an open set; the constants below are the ones produced in-tree.
type Category string

const (
	CategoryCompilation   Category = "COMPILATION"
	CategorySecurity      Category = "SECURITY"
	CategoryExternalCall  Category = "EXTERNAL_CALL"
	CategoryAccessControl Category = "ACCESS_CONTROL"
)

type Finding struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Line           int      `json:"line"`
	File           string   `json:"file"`
	Tool           string   `json:"tool"`
	Recommendation string   `json:"recommendation"`
	Impact         string   `json:"impact"`
}

// Report is the single result of one analysis run.
type Report struct {
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Issues       []Finding `json:"issues"`
	ToolsUsed    []string  `json:"toolsUsed"`
	ContractName string    `json:"contractName"`
	TotalIssues  int       `json:"totalIssues"`
}

// NewReport builds a successful report; issues and tools are copied.
func NewReport(contract string, issues []Finding, tools []string) Report {
	is := make([]Finding, len(issues))
	copy(is, issues)
	ts := make([]string, len(tools))
	copy(ts, tools)
	return Report{Success: true, Issues: is, ToolsUsed: ts, ContractName: contract, TotalIssues: len(is)}
}

// ErrorReport is a terminal failure with no findings.
func ErrorReport(contract, msg string) Report {
	return Report{Error: msg, Issues: []Finding{}, ToolsUsed: []string{}, ContractName: contract}
}

// PreconditionError is the reduced shape printed when the pipeline never started.
type PreconditionError struct {
	Error     string    `json:"error"`
	Issues    []Finding `json:"issues"`
	ToolsUsed []string  `json:"toolsUsed"`
}

func NewPreconditionError(msg string) PreconditionError {
	return PreconditionError{Error: msg, Issues: []Finding{}, ToolsUsed: []string{}}
}

// Summary counts findings per severity tier.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		s.Add(f.Severity)
	}
	return s
}

// Add counts one item of severity sev; unknown tiers count as LOW.
func (s *Summary) Add(sev Severity) {
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	default:
		s.Low++
	}
	s.Total++
}

// Provenance identifies the subsystem that produced a finding: ID prefixes
// finding identifiers, Tool fills Finding.Tool and Name is reported in toolsUsed.
type Provenance struct {
	ID   string
	Tool string
	Name string
}
