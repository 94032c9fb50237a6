package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const persScript = "on init\ndeclare pers $x\nend on\n"
const persOutput = "on init\ndeclare $x\nmake_persistent($x)\nend on\n"

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "test.ksp")
	writeFile(t, src, persScript)

	var stdout, stderr bytes.Buffer
	if err := run([]string{src}, strings.NewReader(""), &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(persOutput, stdout.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}

func TestRunOutputFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "test.ksp")
	dst := filepath.Join(dir, "out.ksp")
	writeFile(t, src, persScript)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-o", dst, src}, strings.NewReader(""), &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(persOutput, string(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if stdout.Len() != 0 {
		t.Errorf("unexpected stdout: %s", stdout.String())
	}
}

func TestRunStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(nil, strings.NewReader(persScript), &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(persOutput, stdout.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRunVerbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-v"}, strings.NewReader(persScript), &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ksp-pp: ", "persistence"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr misses %q:\n%s", want, stderr.String())
		}
	}
}

func TestRunImport(t *testing.T) {
	dir := t.TempDir()
	libs := t.TempDir()
	src := filepath.Join(dir, "main.ksp")
	writeFile(t, src, "import \"lib.ksp\"\non init\nend on\n")
	writeFile(t, filepath.Join(libs, "lib.ksp"), "define SIZE := 4\non note\nplay_note(SIZE, 0, 0, 0)\nend on\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-I", libs, src}, strings.NewReader(""), &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "on note\nplay_note(4, 0, 0, 0)\nend on\non init\nend on\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ksp")
	writeFile(t, bad, "end struct\n")

	for _, tt := range []struct {
		name  string
		args  []string
		error string
	}{
		{"parse error", []string{bad}, "structs: bad.ksp:1: end struct without struct."},
		{"too many files", []string{bad, bad}, "expected at most one input file, got 2"},
		{"missing file", []string{filepath.Join(dir, "missing.ksp")}, "no such file or directory"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, strings.NewReader(""), &stdout, &stderr)
			if err == nil {
				t.Fatalf("expected error %q", tt.error)
			}
			if !strings.Contains(err.Error(), tt.error) {
				t.Errorf("expected error containing %q, got %q", tt.error, err.Error())
			}
		})
	}
}
