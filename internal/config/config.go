package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

const (
	FileTOML = ".contractforge.toml"
	FileJSON = ".contractforge.json"
)

type Config struct {
	Compiler    string `toml:"compiler" json:"compiler"`
	SolcPath    string `toml:"solcPath" json:"solcPath"`
	Engine      string `toml:"engine" json:"engine"`
	SlitherPath string `toml:"slitherPath" json:"slitherPath"`
	TimeoutMs   int    `toml:"timeoutMs" json:"timeoutMs"`
	Offline     bool   `toml:"offline" json:"offline"`
	CABundle    string `toml:"caBundle" json:"caBundle"`
	FailOn      string `toml:"failOn" json:"failOn"`
}

func Default() Config {
	return Config{
		Compiler:    "auto",
		SolcPath:    "solc",
		Engine:      "builtin",
		SlitherPath: "slither",
		TimeoutMs:   60000,
		Offline:     true,
	}
}

func (c Config) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

func (c Config) Validate() error {
	switch c.Compiler {
	case "auto", "solc", "heuristic":
	default:
		return fmt.Errorf("compiler: unknown value %q", c.Compiler)
	}
	switch c.Engine {
	case "builtin", "slither":
	default:
		return fmt.Errorf("engine: unknown value %q", c.Engine)
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("timeoutMs: must not be negative")
	}
	if c.FailOn != "" && model.ParseSeverity(c.FailOn) != model.Severity(strings.ToUpper(c.FailOn)) {
		return fmt.Errorf("failOn: unknown severity %q", c.FailOn)
	}
	return nil
}

// Load searches upward from startDir for a project config. Within one directory the
// TOML file wins over the JSON one. Fields the file omits keep their defaults.
func Load(startDir string) (Config, string, error) {
	cfg := Default()
	dir := startDir
	for {
		for _, name := range []string{FileTOML, FileJSON} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if err := decode(candidate, &cfg); err != nil {
				return cfg, candidate, err
			}
			return cfg, candidate, cfg.Validate()
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached root
			break
		}
		dir = parent
	}
	return cfg, "", nil
}

func decode(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == ".toml" {
		if _, err := toml.Decode(string(b), cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
