package plugins

import (
	"fmt"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// arbitrarySendEth flags unguarded entry points that send native value to a caller-chosen address.
type arbitrarySendEth struct{}

func (d *arbitrarySendEth) ID() string { return "arbitrary-send-eth" }
func (d *arbitrarySendEth) Description() string {
	return "Functions that send Ether to arbitrary destinations"
}

func (d *arbitrarySendEth) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		if !fn.Entry() || guarded(fn) {
			return
		}
		for _, call := range fn.ExternalCalls {
			if !call.SendsValue() || !userControlled(call.Target, fn) {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s sends eth to arbitrary user: %s", ct.Name, fn.Name, call.Expression),
				Elements:    []model.Element{functionElement(fn), callElement(call)},
			})
		}
	})
	return out, nil
}
