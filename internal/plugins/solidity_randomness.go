package plugins

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

var chainEntropy = []string{"block.timestamp", "blockhash(", "block.difficulty", "block.prevrandao", "block.number", "now"}

// weakPRNG flags modulo arithmetic over miner-influenced chain attributes.
type weakPRNG struct{}

func (d *weakPRNG) ID() string          { return "weak-prng" }
func (d *weakPRNG) Description() string { return "Weak PRNG" }

func (d *weakPRNG) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	each(m, func(ct *model.Contract, fn *model.Function) {
		for _, l := range bodyLines(fn) {
			if !strings.Contains(l.text, "%") {
				continue
			}
			low := strings.ToLower(l.text)
			src := ""
			for _, e := range chainEntropy {
				if e == "now" {
					if containsIdent(low, e) {
						src = e
					}
				} else if strings.Contains(low, e) {
					src = e
				}
				if src != "" {
					break
				}
			}
			if src == "" {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s uses a weak PRNG based on %s: %s", ct.Name, fn.Name, strings.TrimSuffix(src, "("), strings.TrimSpace(l.text)),
				Elements:    []model.Element{functionElement(fn), lineElement(strings.TrimSpace(l.text), l.n)},
			})
		}
	})
	return out, nil
}
