package plugins

import (
	"fmt"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// uncheckedLowLevel flags call/delegatecall/staticcall whose success flag is discarded.
type uncheckedLowLevel struct{}

func (d *uncheckedLowLevel) ID() string          { return "unchecked-lowlevel" }
func (d *uncheckedLowLevel) Description() string { return "Unchecked low-level calls" }

func (d *uncheckedLowLevel) Run(m *model.ContractModel) ([]model.RawResult, error) {
	return discarded(m, d.ID(), func(c *model.ExternalCall) bool { return c.LowLevel() }), nil
}

// uncheckedSend flags send whose boolean result is discarded.
type uncheckedSend struct{}

func (d *uncheckedSend) ID() string          { return "unchecked-send" }
func (d *uncheckedSend) Description() string { return "Unchecked send" }

func (d *uncheckedSend) Run(m *model.ContractModel) ([]model.RawResult, error) {
	return discarded(m, d.ID(), func(c *model.ExternalCall) bool {
		return c.Member == "send" && len(c.Args) == 1
	}), nil
}

func discarded(m *model.ContractModel, check string, match func(*model.ExternalCall) bool) []model.RawResult {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		for _, call := range fn.ExternalCalls {
			if call.ReturnUsed || !match(call) {
				continue
			}
			out = append(out, model.RawResult{
				Check:       check,
				Description: fmt.Sprintf("%s.%s ignores return value by %s", ct.Name, fn.Name, call.Expression),
				Elements:    []model.Element{functionElement(fn), callElement(call)},
			})
		}
	})
	return out
}
