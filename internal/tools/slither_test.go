package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const slitherJSON = `{
  "success": true,
  "error": null,
  "results": {
    "detectors": [
      {
        "check": "reentrancy-eth",
        "impact": "High",
        "confidence": "Medium",
        "description": "Reentrancy in Vault.withdraw(uint256)",
        "elements": [
          {"type": "function", "name": "withdraw", "source_mapping": {"start": 120, "length": 80, "lines": [9, 10, 11, 12, 13]}},
          {"type": "node", "name": "msg.sender.call{value: amount}()", "source_mapping": {"start": 150, "length": 30, "lines": [10]}}
        ]
      },
      {
        "check": "tx-origin",
        "impact": "Medium",
        "confidence": "Medium",
        "description": "uses tx.origin",
        "elements": [{"type": "node", "name": "require(tx.origin == owner)"}]
      },
      {
        "check": "reentrancy-eth",
        "description": "second hit",
        "elements": []
      }
    ]
  }
}`

func TestParseSlither(t *testing.T) {
	got, err := parseSlither([]byte(slitherJSON))
	if err != nil {
		t.Fatalf("parseSlither: %v", err)
	}
	if len(got["reentrancy-eth"]) != 2 || len(got["tx-origin"]) != 1 {
		t.Fatalf("grouping = %v", got)
	}
	first := got["reentrancy-eth"][0]
	if len(first.Elements) != 2 || first.Elements[0].Source.FirstLine() != 9 || first.Elements[1].Kind != "node" {
		t.Errorf("elements = %+v", first.Elements)
	}
	if got["tx-origin"][0].Elements[0].Source != nil {
		t.Error("element without mapping should have nil source")
	}
}

func TestParseSlitherFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", "Traceback (most recent call last)", "decode slither output"},
		{"unsuccessful", `{"success": false, "error": "Invalid compilation"}`, "Invalid compilation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSlither([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func fakeSlither(t *testing.T, body string) (bin, counter string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	dir := t.TempDir()
	counter = filepath.Join(dir, "runs")
	bin = filepath.Join(dir, "slither")
	script := "#!/bin/sh\necho run >> " + counter + "\n" + body
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, counter
}

func TestSlitherRunsOnceAndParsesOnNonZeroExit(t *testing.T) {
	data := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(data, []byte(slitherJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	bin, counter := fakeSlither(t, "cat "+data+"\nexit 255\n")
	s := NewSlither(context.Background(), bin, "Vault.sol", []string{"reentrancy-eth", "tx-origin", "suicidal"})

	total := 0
	for _, id := range s.Detectors {
		d, ok := s.Lookup(id)
		if !ok {
			t.Fatalf("Lookup(%q) failed", id)
		}
		res, err := d.Run(nil)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		total += len(res)
	}
	if total != 3 {
		t.Errorf("total results = %d, want 3", total)
	}
	runs, _ := os.ReadFile(counter)
	if n := strings.Count(string(runs), "run"); n != 1 {
		t.Errorf("slither ran %d times", n)
	}
}

func TestSlitherFailureFailsEveryDetector(t *testing.T) {
	s := NewSlither(context.Background(), filepath.Join(t.TempDir(), "no-slither"), "Vault.sol", []string{"reentrancy-eth", "tx-origin", "incorrect-erc1400"})
	if len(s.Detectors) != 2 {
		t.Fatalf("detectors = %v", s.Detectors)
	}
	for _, id := range s.Detectors {
		d, _ := s.Lookup(id)
		if _, err := d.Run(nil); err == nil {
			t.Errorf("%s: expected error", id)
		}
	}
	if _, ok := s.Lookup("incorrect-erc1400"); ok {
		t.Error("Lookup of an id slither lacks succeeded")
	}
}

func TestSlitherArgs(t *testing.T) {
	s := &Slither{File: "A.sol", Detectors: []string{"x", "y"}, Remaps: []string{"a=b", "c=d"}, SolcArgs: []string{"--base-path", "/p"}}
	got := strings.Join(s.args(), "|")
	want := "A.sol|--json|-|--detect|x,y|--solc-remaps|a=b c=d|--solc-args|--base-path /p"
	if got != want {
		t.Errorf("args = %s", got)
	}
}

func TestRunWithTimeoutDeadline(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sleep")
	}
	res := RunWithTimeout(context.Background(), Command{Name: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond})
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", res.Err)
	}
	if res.Exited() {
		t.Error("a killed process is not an exit")
	}
}
