package plugins

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// incorrectEquality flags strict equality against balances an attacker can move.
type incorrectEquality struct{}

func (d *incorrectEquality) ID() string          { return "incorrect-equality" }
func (d *incorrectEquality) Description() string { return "Dangerous strict equalities" }

func (d *incorrectEquality) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		for _, l := range bodyLines(fn) {
			if !strings.Contains(l.text, "==") {
				continue
			}
			if !strings.Contains(l.text, ".balance") && !strings.Contains(l.text, "balanceOf(") {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s uses a dangerous strict equality: %s", ct.Name, fn.Name, strings.TrimSpace(l.text)),
				Elements:    []model.Element{functionElement(fn), lineElement(strings.TrimSpace(l.text), l.n)},
			})
		}
	})
	return out, nil
}
