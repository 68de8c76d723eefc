package compiler

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

const remappingsFile = "remappings.txt"

// Compiler turns a source file into a contract model. A *CompilationError return
// means the source itself failed to compile; any other error is an environment fault.
type Compiler interface {
	Name() string
	Compile(ctx context.Context, path string, opts Options) (*model.ContractModel, error)
}

// CompilationError carries the raw compiler diagnostic text.
type CompilationError struct {
	Text string
}

func (e *CompilationError) Error() string { return e.Text }

type Options struct {
	// Set only when a remappings file sits beside the source.
	AllowPaths  string
	BasePath    string
	IncludePath string
	Remaps      []string

	Offline bool
	Timeout time.Duration
}

// OptionsFor derives import resolution settings from the directory holding path.
func OptionsFor(path string, offline bool) (Options, error) {
	opts := Options{Offline: offline}
	abs, err := filepath.Abs(path)
	if err != nil {
		return opts, fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	remaps, err := loadRemappings(filepath.Join(dir, remappingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}
	opts.AllowPaths = dir
	opts.BasePath = dir
	opts.IncludePath = filepath.Join(dir, "lib")
	opts.Remaps = remaps
	return opts, nil
}

func loadRemappings(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		out = append(out, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// SolcArgs renders the path options as solc flags, remappings last.
func (o Options) SolcArgs() []string {
	return append(o.PathArgs(), o.Remaps...)
}

// PathArgs is the import path subset of SolcArgs.
func (o Options) PathArgs() []string {
	var args []string
	if o.AllowPaths != "" {
		args = append(args, "--allow-paths", o.AllowPaths)
	}
	if o.BasePath != "" {
		args = append(args, "--base-path", o.BasePath)
	}
	if o.IncludePath != "" {
		args = append(args, "--include-path", o.IncludePath)
	}
	return args
}

// Env is the child process environment. Offline runs forbid compiler downloads.
func (o Options) Env() []string {
	env := os.Environ()
	if o.Offline {
		env = append(env, "SLITHER_OFFLINE=1", "SLITHER_DISABLE_DOWNLOAD=1")
	}
	return env
}

// New selects a compiler. "auto" prefers solc when it can be found.
func New(kind, solcPath string) (Compiler, error) {
	if solcPath == "" {
		solcPath = "solc"
	}
	switch kind {
	case "", "auto":
		if _, err := exec.LookPath(solcPath); err == nil {
			return &Solc{Path: solcPath}, nil
		}
		return Heuristic{}, nil
	case "solc":
		return &Solc{Path: solcPath}, nil
	case "heuristic":
		return Heuristic{}, nil
	}
	return nil, fmt.Errorf("unknown compiler %q (want auto, solc or heuristic)", kind)
}
