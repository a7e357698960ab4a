package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const loginReport = `[
  {
    "uri": "features/login.feature",
    "name": "Login",
    "elements": [
      {
        "name": "Valid password",
        "steps": [
          {"keyword": "Given", "name": "a registered user", "result": {"status": "passed"}},
          {"keyword": "Then", "name": "the dashboard opens", "result": {"status": "passed"}}
        ]
      },
      {
        "name": "Wrong password",
        "steps": [
          {"keyword": "Given", "name": "a registered user", "result": {"status": "passed"}},
          {"keyword": "Then", "name": "an error is shown", "result": {"status": "failed", "error_message": "no error"}}
        ]
      },
      {
        "name": "Locked account",
        "steps": [
          {"keyword": "Given", "name": "a locked user", "result": {"status": "passed"}}
        ]
      }
    ]
  }
]`

func writeFile(t *testing.T, pth, data string) {
	t.Helper()

	if err := os.WriteFile(pth, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	return out.String()
}

func TestRootCmd_Convert(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "records")
	writeFile(t, filepath.Join(inputDir, "login.json"), loginReport)

	out := execute(t, "-i", inputDir, "-o", outputDir, "-s", "--log-level", "error")
	if out != "" {
		t.Errorf("expected silent output, got: %s", out)
	}

	files, err := filepath.Glob(filepath.Join(outputDir, "*-result.json"))
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 3 {
		t.Fatalf("got %d result files, want 3", len(files))
	}

	var names []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}

		var envelope struct {
			Kind   string `json:"kind"`
			Source string `json:"source"`
			Record struct {
				Name string `json:"name"`
			} `json:"record"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			t.Fatal(err)
		}

		if envelope.Kind != "scenario" || envelope.Source != "login.json" {
			t.Errorf("got: %+v", envelope)
		}

		names = append(names, envelope.Record.Name)
	}

	if len(names) != 3 || !strings.Contains(strings.Join(names, ","), "Wrong password") {
		t.Errorf("got names: %v", names)
	}
}

func TestReconcileCmd(t *testing.T) {
	dir := t.TempDir()
	reportPth := filepath.Join(dir, "login.json")
	persistedPth := filepath.Join(dir, "steps.json")

	writeFile(t, reportPth, loginReport)
	writeFile(
		t, persistedPth, `{
  "Valid password": [{"cells": ["Given a registered user", "", ""]}],
  "Wrong password": [{"cells": ["Given a registered user", "", ""]}, {"cells": ["Then a message is shown", "", ""]}]
}`,
	)

	out := execute(t, "reconcile", "--persisted", persistedPth, "--log-level", "error", reportPth)

	var got []reconcileVerdict
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var v reconcileVerdict
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			t.Fatal(err)
		}

		v.Fresh = nil
		got = append(got, v)
	}

	expected := []reconcileVerdict{
		{Name: "Valid password", Tracked: true, Current: true, MismatchIndex: -1},
		{Name: "Wrong password", Tracked: true, MismatchIndex: 1},
		{Name: "Locked account", MismatchIndex: 0},
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestVersion(t *testing.T) {
	if !strings.HasPrefix(version(), BuildName+" version ") {
		t.Errorf("got: %q", version())
	}
}
