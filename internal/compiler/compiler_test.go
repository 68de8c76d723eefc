package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func write(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

func TestOptionsForWithoutRemappings(t *testing.T) {
	dir := t.TempDir()
	opts, err := OptionsFor(filepath.Join(dir, "A.sol"), true)
	if err != nil {
		t.Fatalf("OptionsFor: %v", err)
	}
	if opts.BasePath != "" || len(opts.SolcArgs()) != 0 {
		t.Errorf("unexpected path options: %+v", opts)
	}
	if !opts.Offline {
		t.Error("offline not carried")
	}
}

func TestOptionsForWithRemappings(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "remappings.txt"), "# deps\n@oz/=lib/openzeppelin/\n\nnot-a-remap\nforge-std/=lib/forge-std/src/\n", 0o644)
	opts, err := OptionsFor(filepath.Join(dir, "A.sol"), false)
	if err != nil {
		t.Fatalf("OptionsFor: %v", err)
	}
	abs, _ := filepath.Abs(dir)
	want := []string{
		"--allow-paths", abs,
		"--base-path", abs,
		"--include-path", filepath.Join(abs, "lib"),
		"@oz/=lib/openzeppelin/",
		"forge-std/=lib/forge-std/src/",
	}
	got := opts.SolcArgs()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("SolcArgs = %v, want %v", got, want)
	}
}

func TestEnvOffline(t *testing.T) {
	has := func(env []string, kv string) bool {
		for _, e := range env {
			if e == kv {
				return true
			}
		}
		return false
	}
	on := Options{Offline: true}.Env()
	if !has(on, "SLITHER_OFFLINE=1") || !has(on, "SLITHER_DISABLE_DOWNLOAD=1") {
		t.Error("offline flags missing")
	}
	if off := (Options{}).Env(); has(off, "SLITHER_OFFLINE=1") && os.Getenv("SLITHER_OFFLINE") == "" {
		t.Error("offline flag set while online")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{"heuristic", "heuristic", false},
		{"solc", "solc", false},
		{"auto", "heuristic", false},
		{"gcc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c, err := New(tt.kind, "definitely-not-a-solc-binary")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.want)
			}
		})
	}
}

func TestHeuristicCompile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.sol")
	write(t, path, "contract A {\n    address public owner;\n}\n", 0o644)
	m, err := Heuristic{}.Compile(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := m.Contract("A"); !ok {
		t.Fatal("contract A missing")
	}
}

func TestHeuristicCompilationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.sol")
	write(t, path, "contract A {\n    function f() public {\n", 0o644)
	_, err := Heuristic{}.Compile(context.Background(), path, Options{})
	var ce *CompilationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompilationError, got %v", err)
	}
	if !strings.Contains(ce.Text, "--> "+path+":2:") {
		t.Errorf("diagnostic lacks location marker: %q", ce.Text)
	}
}

func TestHeuristicMissingFile(t *testing.T) {
	_, err := Heuristic{}.Compile(context.Background(), filepath.Join(t.TempDir(), "nope.sol"), Options{})
	var ce *CompilationError
	if err == nil || errors.As(err, &ce) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestSolcFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	dir := t.TempDir()
	fake := filepath.Join(dir, "solc")
	write(t, fake, "#!/bin/sh\necho 'Error: Invalid token' >&2\necho ' --> A.sol:3:5:' >&2\nexit 1\n", 0o755)
	src := filepath.Join(dir, "A.sol")
	write(t, src, "contract A {}", 0o644)

	_, err := (&Solc{Path: fake}).Compile(context.Background(), src, Options{})
	var ce *CompilationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompilationError, got %v", err)
	}
	if !strings.Contains(ce.Text, "Invalid token") {
		t.Errorf("text = %q", ce.Text)
	}

	_, err = (&Solc{Path: filepath.Join(dir, "missing-solc")}).Compile(context.Background(), src, Options{})
	if err == nil || errors.As(err, &ce) {
		t.Fatalf("missing binary should be a plain error, got %v", err)
	}
}
