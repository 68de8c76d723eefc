package engine

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ContractForgeEVM/contractforge/internal/catalog"
	"github.com/ContractForgeEVM/contractforge/internal/logging"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/plugins"
)

var title = cases.Title(language.English)

// Runner executes every catalog entry against one model.
type Runner struct {
	Catalog *catalog.Catalog
	Source  plugins.Source
	Prov    model.Provenance
}

// Run returns detector findings in catalog order. Ids the source cannot resolve
// are skipped, as is any detector that errors or panics.
func (r *Runner) Run(m *model.ContractModel, contract string) []model.Finding {
	var out []model.Finding
	for _, e := range r.Catalog.Entries() {
		d, ok := r.Source.Lookup(e.ID)
		if !ok {
			continue
		}
		results, err := runIsolated(d, m)
		if err != nil {
			logging.Logger.Debugw("detector skipped", "detector", e.ID, "err", err)
			continue
		}
		out = append(out, r.findings(e, results, contract)...)
	}
	return out
}

func runIsolated(d plugins.Detector, m *model.ContractModel) (results []model.RawResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("detector %s panicked: %v", d.ID(), p)
		}
	}()
	return d.Run(m)
}

// findings emits one finding per located element of each result.
func (r *Runner) findings(e catalog.Entry, results []model.RawResult, contract string) []model.Finding {
	var out []model.Finding
	for _, res := range results {
		desc := strings.TrimSpace(res.Description)
		if desc == "" {
			desc = "Detected by " + e.ID
		}
		for _, el := range res.Elements {
			if el.Source == nil {
				continue
			}
			line := el.Source.FirstLine()
			out = append(out, model.Finding{
				ID:             fmt.Sprintf("%s-%s-%d", r.Prov.ID, e.ID, line),
				Severity:       e.Severity,
				Category:       model.CategorySecurity,
				Title:          Humanize(e.ID),
				Description:    desc,
				Line:           line,
				File:           contract,
				Tool:           r.Prov.Tool,
				Recommendation: fmt.Sprintf("Fix %s vulnerability", e.ID),
				Impact:         "Security vulnerability",
			})
		}
	}
	return out
}

// Humanize turns "reentrancy-no-eth" into "Reentrancy No Eth".
func Humanize(id string) string {
	return title.String(strings.ReplaceAll(id, "-", " "))
}
