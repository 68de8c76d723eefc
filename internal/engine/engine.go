package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ContractForgeEVM/contractforge/internal/catalog"
	"github.com/ContractForgeEVM/contractforge/internal/compiler"
	"github.com/ContractForgeEVM/contractforge/internal/diagnostic"
	"github.com/ContractForgeEVM/contractforge/internal/logging"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/plugins"
	"github.com/ContractForgeEVM/contractforge/internal/tools"
)

var (
	ForgeProvenance   = model.Provenance{ID: "forge", Tool: "FORGE", Name: "ContractForge"}
	SlitherProvenance = model.Provenance{ID: "slither", Tool: "SLITHER", Name: "Slither"}

	errNoContracts      = errors.New("no contracts")
	errContractNotFound = errors.New("contract not found")
)

// Backend supplies the detector implementations for one analysis.
type Backend interface {
	Provenance() model.Provenance
	Source(ctx context.Context, path string, opts compiler.Options) plugins.Source
}

// Builtin serves the in-tree detectors.
type Builtin struct {
	Registry *plugins.Registry
}

func (b Builtin) Provenance() model.Provenance { return ForgeProvenance }

func (b Builtin) Source(context.Context, string, compiler.Options) plugins.Source {
	if b.Registry == nil {
		return plugins.Builtin()
	}
	return b.Registry
}

// Slither delegates detectors to one slither run over the file.
type Slither struct {
	Path    string
	Catalog *catalog.Catalog
}

func (s Slither) Provenance() model.Provenance { return SlitherProvenance }

func (s Slither) Source(ctx context.Context, path string, opts compiler.Options) plugins.Source {
	cat := s.Catalog
	if cat == nil {
		cat = catalog.Default
	}
	src := tools.NewSlither(ctx, s.Path, path, cat.IDs())
	src.Remaps = opts.Remaps
	src.SolcArgs = opts.PathArgs()
	src.Env = opts.Env()
	src.Timeout = opts.Timeout
	return src
}

type state int

const (
	stateCompiling state = iota
	stateDiagnosed
	stateAnalyzing
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateCompiling:
		return "COMPILING"
	case stateDiagnosed:
		return "DIAGNOSED"
	case stateAnalyzing:
		return "ANALYZING"
	default:
		return "FAILED"
	}
}

type Engine struct {
	compiler compiler.Compiler
	backend  Backend
	catalog  *catalog.Catalog
	offline  bool
	timeout  time.Duration
}

type Option func(*Engine)

func WithCatalog(c *catalog.Catalog) Option { return func(e *Engine) { e.catalog = c } }

func WithOffline(offline bool) Option { return func(e *Engine) { e.offline = offline } }

// WithTimeout bounds each external process the run starts.
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }

func New(c compiler.Compiler, b Backend, opts ...Option) *Engine {
	e := &Engine{compiler: c, backend: b, catalog: catalog.Default, offline: true}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Analyze runs the whole pipeline for one contract of one file. It always returns
// a well-formed report; faults become error reports.
func (e *Engine) Analyze(ctx context.Context, path, contract string) (rep model.Report) {
	st := stateCompiling
	defer func() {
		if p := recover(); p != nil {
			logging.Logger.Errorw("analysis panicked", "state", st, "panic", p)
			rep = model.ErrorReport(contract, fmt.Sprintf("analysis failed: %v", p))
		}
	}()
	prov := e.backend.Provenance()
	start := time.Now()

	opts, err := e.options(path)
	var m *model.ContractModel
	if err == nil {
		m, err = e.compile(ctx, path, opts)
	}
	var ce *compiler.CompilationError
	switch {
	case errors.As(err, &ce):
		st = stateDiagnosed
		logging.Logger.Infow("compilation failed", "file", path, "state", st)
		return diagnostic.Classify(ce.Text, contract, prov)
	case err != nil:
		st = stateFailed
		logging.Logger.Errorw("analysis setup failed", "file", path, "state", st, "err", err)
		return model.ErrorReport(contract, "analysis failed: "+err.Error())
	}

	st = stateAnalyzing
	target, err := locate(m, contract)
	switch {
	case errors.Is(err, errNoContracts):
		return model.ErrorReport(contract, fmt.Sprintf("No contracts found in %s", path))
	case errors.Is(err, errContractNotFound):
		return model.ErrorReport(contract, fmt.Sprintf("Contract %s not found", contract))
	}

	runner := &Runner{Catalog: e.catalog, Source: e.backend.Source(ctx, path, opts), Prov: prov}
	detectors := runner.Run(m, contract)
	patterns := ScanPatterns(target, prov)
	rep = Aggregate(contract, detectors, patterns, []string{prov.Name})
	logging.Logger.Debugw("analysis complete", "file", path, "contract", contract, "issues", rep.TotalIssues, "elapsed", time.Since(start))
	return rep
}

func (e *Engine) options(path string) (compiler.Options, error) {
	opts, err := compiler.OptionsFor(path, e.offline)
	opts.Timeout = e.timeout
	return opts, err
}

func (e *Engine) compile(ctx context.Context, path string, opts compiler.Options) (*model.ContractModel, error) {
	logging.Logger.Debugw("compiling", "file", path, "compiler", e.compiler.Name(), "remaps", len(opts.Remaps))
	m, err := e.compiler.Compile(ctx, path, opts)
	if err == nil && m == nil {
		return nil, errors.New("compiler returned no model")
	}
	return m, err
}

func locate(m *model.ContractModel, name string) (*model.Contract, error) {
	if len(m.Contracts) == 0 {
		return nil, errNoContracts
	}
	c, ok := m.Contract(name)
	if !ok {
		return nil, errContractNotFound
	}
	return c, nil
}
