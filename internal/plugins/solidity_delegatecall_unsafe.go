package plugins

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// controlledDelegatecall flags delegatecall whose target or calldata comes from the caller.
type controlledDelegatecall struct{}

func (d *controlledDelegatecall) ID() string { return "controlled-delegatecall" }
func (d *controlledDelegatecall) Description() string {
	return "Controlled delegatecall destination"
}

func (d *controlledDelegatecall) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		if !fn.Entry() || guarded(fn) {
			return
		}
		for _, call := range fn.ExternalCalls {
			if call.Member != "delegatecall" {
				continue
			}
			tainted := userControlled(call.Target, fn)
			for _, a := range call.Args {
				if userControlled(a, fn) {
					tainted = true
				}
			}
			if !tainted {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s uses delegatecall to a input-controlled function id: %s", ct.Name, fn.Name, call.Expression),
				Elements:    []model.Element{functionElement(fn), callElement(call)},
			})
		}
	})
	return out, nil
}

// delegatecallLoop flags delegatecall inside a loop of a payable function; msg.value is reused per iteration.
type delegatecallLoop struct{}

func (d *delegatecallLoop) ID() string          { return "delegatecall-loop" }
func (d *delegatecallLoop) Description() string { return "Payable functions using delegatecall inside a loop" }

func (d *delegatecallLoop) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		if !fn.Payable() || !fn.HasLoop {
			return
		}
		for _, call := range fn.ExternalCalls {
			if call.Member != "delegatecall" || !call.InLoop {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s has delegatecall inside a loop in a payable function: %s", ct.Name, fn.Name, strings.TrimSpace(call.Expression)),
				Elements:    []model.Element{functionElement(fn), callElement(call)},
			})
		}
	})
	return out, nil
}
