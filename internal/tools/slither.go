package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ContractForgeEVM/contractforge/internal/logging"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/plugins"
)

type slitherOut struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Results struct {
		Detectors []model.RawResult `json:"detectors"`
	} `json:"results"`
}

// parseSlither groups `slither --json -` detector output by check id.
func parseSlither(raw []byte) (map[string][]model.RawResult, error) {
	var o slitherOut
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode slither output: %w", err)
	}
	if !o.Success {
		msg := o.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("slither: %s", msg)
	}
	out := map[string][]model.RawResult{}
	for _, d := range o.Results.Detectors {
		out[d.Check] = append(out[d.Check], d)
	}
	return out, nil
}

// Slither serves detectors from a single slither run over File. The run happens on
// the first Run call; every detector shares its outcome.
type Slither struct {
	Path      string
	File      string
	Detectors []string
	Remaps    []string
	SolcArgs  []string
	Env       []string
	Timeout   time.Duration

	ctx     context.Context
	ran     bool
	results map[string][]model.RawResult
	err     error
}

// slitherChecks are the catalog ids slither ships a detector for. Passing any
// other id to --detect aborts the whole run.
var slitherChecks = map[string]bool{
	"reentrancy-eth":          true,
	"reentrancy-no-eth":       true,
	"reentrancy-benign":       true,
	"reentrancy-events":       true,
	"controlled-delegatecall": true,
	"arbitrary-send-eth":      true,
	"arbitrary-send-erc20":    true,
	"unchecked-transfer":      true,
	"unchecked-lowlevel":      true,
	"unchecked-send":          true,
	"tx-origin":               true,
	"weak-prng":               true,
	"suicidal":                true,
	"delegatecall-loop":       true,
	"uninitialized-state":     true,
	"uninitialized-storage":   true,
	"unused-return":           true,
	"incorrect-equality":      true,
	"incorrect-modifier":      true,
	"incorrect-shift":         true,
	"incorrect-unary":         true,
}

// NewSlither serves the subset of ids slither implements.
func NewSlither(ctx context.Context, path, file string, ids []string) *Slither {
	s := &Slither{Path: path, File: file, ctx: ctx}
	for _, id := range ids {
		if slitherChecks[id] {
			s.Detectors = append(s.Detectors, id)
		}
	}
	return s
}

func (s *Slither) Lookup(id string) (plugins.Detector, bool) {
	for _, d := range s.Detectors {
		if d == id {
			return &slitherDetector{s: s, id: id}, true
		}
	}
	return nil, false
}

func (s *Slither) args() []string {
	args := []string{s.File, "--json", "-", "--detect", strings.Join(s.Detectors, ",")}
	if len(s.Remaps) > 0 {
		args = append(args, "--solc-remaps", strings.Join(s.Remaps, " "))
	}
	if len(s.SolcArgs) > 0 {
		args = append(args, "--solc-args", strings.Join(s.SolcArgs, " "))
	}
	return args
}

func (s *Slither) run() (map[string][]model.RawResult, error) {
	if s.ran {
		return s.results, s.err
	}
	s.ran = true
	bin := s.Path
	if bin == "" {
		bin = "slither"
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	res := RunWithTimeout(ctx, Command{Name: bin, Args: s.args(), Env: s.Env, Timeout: s.Timeout})
	logging.Logger.Debugw("slither finished", "file", s.File, "duration", res.Duration, "err", res.Err)
	// slither exits non-zero whenever a detector fires
	if res.Err != nil && !res.Exited() {
		s.err = fmt.Errorf("run %s: %w", bin, res.Err)
		return nil, s.err
	}
	s.results, s.err = parseSlither(res.Stdout)
	if s.err != nil {
		logging.Logger.Warnw("slither output unusable", "err", s.err, "stderr", string(res.Stderr))
	}
	return s.results, s.err
}

type slitherDetector struct {
	s  *Slither
	id string
}

func (d *slitherDetector) ID() string { return d.id }

func (d *slitherDetector) Description() string { return "slither " + d.id }

func (d *slitherDetector) Run(*model.ContractModel) ([]model.RawResult, error) {
	results, err := d.s.run()
	if err != nil {
		return nil, err
	}
	return results[d.id], nil
}
