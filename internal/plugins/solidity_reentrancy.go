package plugins

import (
	"fmt"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// reentrancyEth flags state written after an external call that forwards value with full gas.
type reentrancyEth struct{}

func (d *reentrancyEth) ID() string { return "reentrancy-eth" }
func (d *reentrancyEth) Description() string {
	return "Reentrancy vulnerabilities (theft of ethers)"
}

func (d *reentrancyEth) Run(m *model.ContractModel) ([]model.RawResult, error) {
	return reentrancy(m, d.ID(), func(c *model.ExternalCall) bool { return c.Value }), nil
}

// reentrancyNoEth flags state written after a value-less external call.
type reentrancyNoEth struct{}

func (d *reentrancyNoEth) ID() string { return "reentrancy-no-eth" }
func (d *reentrancyNoEth) Description() string {
	return "Reentrancy vulnerabilities (no theft of ethers)"
}

func (d *reentrancyNoEth) Run(m *model.ContractModel) ([]model.RawResult, error) {
	return reentrancy(m, d.ID(), func(c *model.ExternalCall) bool {
		// transfer and send forward a fixed gas stipend
		return !c.Value && c.Member != "transfer" && c.Member != "send" && c.Member != "staticcall"
	}), nil
}

func reentrancy(m *model.ContractModel, check string, match func(*model.ExternalCall) bool) []model.RawResult {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		if fn.ReadOnly() || fn.Constructor() || guardedAgainstReentry(fn) {
			return
		}
		for _, call := range fn.ExternalCalls {
			if !match(call) {
				continue
			}
			callLine := call.Source.FirstLine()
			for _, w := range fn.StateWrites {
				if w.Source.FirstLine() <= callLine {
					continue
				}
				out = append(out, model.RawResult{
					Check: check,
					Description: fmt.Sprintf("Reentrancy in %s.%s: external call %s is followed by a write to %s",
						ct.Name, fn.Name, call.Expression, w.Variable),
					Elements: []model.Element{
						functionElement(fn),
						callElement(call),
						{Name: w.Variable, Kind: "variable", Source: w.Source},
					},
				})
				break
			}
		}
	})
	return out
}

func guardedAgainstReentry(fn *model.Function) bool {
	for _, mod := range fn.Modifiers {
		if mod == "nonReentrant" || mod == "noReentrancy" || mod == "lock" {
			return true
		}
	}
	return false
}
