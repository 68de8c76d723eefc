package plugins

import (
	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// uncheckedTransfer flags token transfer/transferFrom whose boolean result is discarded.
type uncheckedTransfer struct{}

func (d *uncheckedTransfer) ID() string          { return "unchecked-transfer" }
func (d *uncheckedTransfer) Description() string { return "Unchecked tokens transfer" }

func (d *uncheckedTransfer) Run(m *model.ContractModel) ([]model.RawResult, error) {
	return discarded(m, d.ID(), func(c *model.ExternalCall) bool {
		switch c.Member {
		case "transfer":
			// native transfer takes one argument and reverts on failure
			return len(c.Args) == 2
		case "transferFrom":
			return len(c.Args) == 3
		}
		return false
	}), nil
}
