package plugins

import (
	"fmt"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// uninitializedState flags state variables read by functions but never initialised or written.
type uninitializedState struct{}

func (d *uninitializedState) ID() string          { return "uninitialized-state" }
func (d *uninitializedState) Description() string { return "Uninitialized state variables" }

func (d *uninitializedState) Run(m *model.ContractModel) ([]model.RawResult, error) {
	var out []model.RawResult
	if m == nil {
		return out, nil
	}
	for _, ct := range m.Contracts {
		written := map[string]bool{}
		for _, fn := range ct.Functions {
			for _, w := range fn.StateWrites {
				written[w.Variable] = true
			}
		}
		for _, v := range ct.StateVariables {
			if v.Constant || v.Initialized || written[v.Name] || !isIdentifier(v.Name) {
				continue
			}
			// mappings and arrays start empty by construction
			if strings.HasPrefix(v.Type, "mapping") || strings.HasSuffix(v.Type, "]") {
				continue
			}
			var readers []model.Element
			for _, fn := range ct.Functions {
				if containsIdent(fn.Body, v.Name) {
					readers = append(readers, functionElement(fn))
				}
			}
			if len(readers) == 0 {
				continue
			}
			out = append(out, model.RawResult{
				Check:       d.ID(),
				Description: fmt.Sprintf("%s.%s is never initialized. It is used in %d function(s)", ct.Name, v.Name, len(readers)),
				Elements:    append([]model.Element{variableElement(v)}, readers...),
			})
		}
	}
	return out, nil
}
