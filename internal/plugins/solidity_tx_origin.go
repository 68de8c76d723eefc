package plugins

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// txOrigin flags use of tx.origin in authorization-sensitive checks.
type txOrigin struct{}

func (d *txOrigin) ID() string          { return "tx-origin" }
func (d *txOrigin) Description() string { return "Dangerous usage of tx.origin" }

func (d *txOrigin) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		for _, l := range bodyLines(fn) {
			low := strings.ToLower(l.text)
			if !strings.Contains(low, "tx.origin") {
				continue
			}
			if !(strings.Contains(low, "require(") || strings.Contains(low, "assert(") || strings.Contains(low, "if (") || strings.Contains(low, "if(")) {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s uses tx.origin for authorization: %s", ct.Name, fn.Name, strings.TrimSpace(l.text)),
				Elements:    []model.Element{functionElement(fn), lineElement(strings.TrimSpace(l.text), l.n)},
			})
		}
	})
	return out, nil
}
