package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ContractForgeEVM/contractforge/internal/compiler"
	"github.com/ContractForgeEVM/contractforge/internal/config"
	"github.com/ContractForgeEVM/contractforge/internal/engine"
	"github.com/ContractForgeEVM/contractforge/internal/logging"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/report"
	"github.com/ContractForgeEVM/contractforge/internal/trust"
	"github.com/ContractForgeEVM/contractforge/internal/tui"
)

// ErrPrecondition is returned after the minimal error object has been printed.
var ErrPrecondition = errors.New("precondition failed")

func AddCommands(root *cobra.Command) {
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newViewCmd())
}

const usage = "Usage: contractforge analyze <contract_file> <contract_name>"

func newAnalyzeCmd() *cobra.Command {
	var (
		format     string
		outputFile string
		failOn     string
		engineKind string
		compKind   string
	)
	cmd := &cobra.Command{
		Use:   "analyze <file> <contract>",
		Short: "Analyze one contract of a Solidity source file",
		// argument errors are reported as JSON, not by cobra
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return precondition(cmd, usage)
			}
			file, contract := args[0], args[1]
			if _, err := os.Stat(file); err != nil {
				return precondition(cmd, "Contract file not found: "+file)
			}

			cfg, cfgPath, err := config.Load(filepath.Dir(absPath(file)))
			if err != nil {
				return precondition(cmd, err.Error())
			}
			if cfgPath != "" {
				logging.Logger.Debugw("config loaded", "path", cfgPath)
			}
			flags := cmd.Flags()
			if flags.Changed("engine") {
				cfg.Engine = engineKind
			}
			if flags.Changed("compiler") {
				cfg.Compiler = compKind
			}
			if flags.Changed("fail-on") {
				cfg.FailOn = failOn
			}
			if err := cfg.Validate(); err != nil {
				return precondition(cmd, err.Error())
			}
			if format != "json" && format != "sarif" {
				return precondition(cmd, fmt.Sprintf("unknown format %q (want json or sarif)", format))
			}
			if cfg.CABundle != "" {
				if err := trust.Install(cfg.CABundle); err != nil {
					logging.Logger.Warnw("ca bundle ignored", "err", err)
				}
			}

			rep := analyze(cmd, cfg, file, contract)

			var buf bytes.Buffer
			switch format {
			case "sarif":
				data, err := report.ToSARIF(rep, file)
				if err != nil {
					return err
				}
				buf.Write(data)
				buf.WriteByte('\n')
			default:
				if err := report.WriteJSON(&buf, rep); err != nil {
					return err
				}
			}
			if outputFile != "" {
				if err := os.WriteFile(outputFile, buf.Bytes(), 0o644); err != nil {
					return err
				}
			} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}

			if cfg.FailOn != "" {
				threshold := model.ParseSeverity(cfg.FailOn)
				if hits := engine.AtOrAbove(rep.Issues, threshold); len(hits) > 0 {
					return fmt.Errorf("fail-on threshold met: %d finding(s) at or above %s", len(hits), threshold)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json|sarif")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit 1 if a finding of this severity or higher is reported (low|medium|high|critical)")
	cmd.Flags().StringVar(&engineKind, "engine", "", "Detector engine: builtin|slither")
	cmd.Flags().StringVar(&compKind, "compiler", "", "Compiler: auto|solc|heuristic")
	return cmd
}

// analyze never panics; anything the engine does not catch becomes an error report.
func analyze(cmd *cobra.Command, cfg config.Config, file, contract string) (rep model.Report) {
	defer func() {
		if p := recover(); p != nil {
			logging.Logger.Errorw("analyze panicked", "panic", p)
			rep = model.ErrorReport(contract, fmt.Sprintf("analysis failed: %v", p))
		}
	}()
	eng, err := buildEngine(cfg)
	if err != nil {
		return model.ErrorReport(contract, "analysis failed: "+err.Error())
	}
	return eng.Analyze(cmd.Context(), file, contract)
}

func buildEngine(cfg config.Config) (*engine.Engine, error) {
	c, err := compiler.New(cfg.Compiler, cfg.SolcPath)
	if err != nil {
		return nil, err
	}
	var backend engine.Backend = engine.Builtin{}
	if cfg.Engine == "slither" {
		backend = engine.Slither{Path: cfg.SlitherPath}
	}
	logging.Logger.Debugw("engine", "compiler", c.Name(), "backend", backend.Provenance().Name, "offline", cfg.Offline)
	return engine.New(c, backend, engine.WithOffline(cfg.Offline), engine.WithTimeout(cfg.Timeout())), nil
}

func precondition(cmd *cobra.Command, msg string) error {
	if err := report.WriteJSON(cmd.OutOrStdout(), model.NewPreconditionError(msg)); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrPrecondition, msg)
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <report.json>",
		Short: "Browse a saved analysis report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rep model.Report
			if err := report.Load(args[0], &rep); err != nil {
				return err
			}
			return tui.Run(rep)
		},
	}
}
