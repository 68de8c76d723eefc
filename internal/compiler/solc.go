package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ContractForgeEVM/contractforge/internal/logging"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/solidity"
	"github.com/ContractForgeEVM/contractforge/internal/tools"
)

// Solc compiles with the solc binary and converts its compact AST.
type Solc struct {
	Path string
}

func (s *Solc) Name() string { return "solc" }

func (s *Solc) Compile(ctx context.Context, path string, opts Options) (*model.ContractModel, error) {
	bin := s.Path
	if bin == "" {
		bin = "solc"
	}
	args := append([]string{"--combined-json", "ast"}, opts.SolcArgs()...)
	args = append(args, path)
	res := tools.RunWithTimeout(ctx, tools.Command{Name: bin, Args: args, Env: opts.Env(), Timeout: opts.Timeout})
	logging.Logger.Debugw("solc finished", "file", path, "duration", res.Duration, "err", res.Err)
	if res.Err != nil {
		if stderr := bytes.TrimSpace(res.Stderr); res.Exited() && len(stderr) > 0 {
			return nil, &CompilationError{Text: string(stderr)}
		}
		return nil, fmt.Errorf("run %s: %w", bin, res.Err)
	}
	return solidity.FromCombinedJSON(path, res.Stdout, sourceReader(path, opts.BasePath))
}

// sourceReader resolves solc source unit names, which are relative to the base
// path when one is set.
func sourceReader(path, base string) solidity.Reader {
	return func(unit string) ([]byte, error) {
		candidates := []string{unit}
		if base != "" && !filepath.IsAbs(unit) {
			candidates = append(candidates, filepath.Join(base, unit))
		}
		if filepath.Base(unit) == filepath.Base(path) {
			candidates = append(candidates, path)
		}
		var lastErr error
		for _, c := range candidates {
			data, err := os.ReadFile(c)
			if err == nil {
				return data, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}
