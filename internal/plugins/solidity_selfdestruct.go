package plugins

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// suicidal flags selfdestruct reachable from an unguarded public/external function.
type suicidal struct{}

func (d *suicidal) ID() string          { return "suicidal" }
func (d *suicidal) Description() string { return "Functions allowing anyone to destruct the contract" }

func (d *suicidal) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		if !fn.Entry() || guarded(fn) {
			return
		}
		for _, l := range bodyLines(fn) {
			low := strings.ToLower(l.text)
			if !strings.Contains(low, "selfdestruct(") && !strings.Contains(low, "suicide(") {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s allows anyone to destruct the contract", ct.Name, fn.Name),
				Elements:    []model.Element{functionElement(fn), lineElement(strings.TrimSpace(l.text), l.n)},
			})
			return
		}
	})
	return out, nil
}
