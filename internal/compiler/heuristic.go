package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/solidity"
)

// Heuristic builds the model from source text alone. It is used when solc is unavailable.
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Compile(_ context.Context, path string, _ Options) (*model.ContractModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := solidity.ParseSource(path, string(data))
	var se *solidity.SyntaxError
	if errors.As(err, &se) {
		// same shape solc prints, so the diagnostic classifier can locate it
		return nil, &CompilationError{Text: fmt.Sprintf("ParserError: %s\n --> %s:%d:%d:\n", se.Msg, path, se.Line, se.Col)}
	}
	return m, err
}
