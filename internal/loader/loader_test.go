package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lines(a ...string) string {
	return strings.Join(a, "\n") + "\n"
}

func TestLoad(t *testing.T) {
	for _, tt := range []struct {
		name   string
		input  string
		output []string
		lineNo []int
	}{
		{
			"plain",
			lines("on init", "  declare $x", "end on"),
			[]string{"on init", "  declare $x", "end on"},
			[]int{1, 2, 3},
		},
		{
			"continuation",
			lines("declare %a[3] := (1, ...", "    2, ...", "    3)", "end"),
			[]string{"declare %a[3] := (1, 2, 3)", "end"},
			[]int{1, 4},
		},
		{
			"comments",
			lines("on init {inline}", "declare $x // trailing", "{ spans", "lines }", "end on"),
			[]string{"on init", "declare $x", "", "", "end on"},
			[]int{1, 2, 3, 4, 5},
		},
		{
			"comment characters in strings",
			lines(`message("{not a comment} // nor this")`),
			[]string{`message("{not a comment} // nor this")`},
			[]int{1},
		},
		{
			"continuation with comment",
			lines("set_bounds($k, ... // x", "  10, 20)"),
			[]string{"set_bounds($k, 10, 20)"},
			[]int{1},
		},
		{
			"windows line endings",
			"on init\r\nend on\r\n",
			[]string{"on init", "end on"},
			[]int{1, 2},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Load("test.ksp", strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.output, got.Strings()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			var lineNo []int
			for _, l := range got {
				lineNo = append(lineNo, l.Pos().Line)
			}
			if diff := cmp.Diff(tt.lineNo, lineNo); diff != "" {
				t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBadLoad(t *testing.T) {
	for _, tt := range []struct {
		input string
		error string
	}{
		{lines("on init", "{ never closed"), "test.ksp:2: unterminated comment"},
		{"declare $x := ...", "test.ksp:1: continuation at end of file"},
		{lines(`import "missing.ksp"`), `test.ksp:1: cannot resolve import "missing.ksp"`},
	} {
		t.Run(tt.error, func(t *testing.T) {
			_, err := New().Load("test.ksp", strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("expected error %q", tt.error)
			}
			if diff := cmp.Diff(tt.error, err.Error()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	libs := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.ksp"), lines(`import "local.ksp"`, `import "shared.ksp" as shared`, "on init", "end on"))
	writeFile(t, filepath.Join(dir, "local.ksp"), lines("declare $local"))
	writeFile(t, filepath.Join(libs, "shared.ksp"), lines("{ library }", "declare $shared"))

	got, err := New(libs).LoadFile(filepath.Join(dir, "main.ksp"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"declare $local", "", "declare $shared", "on init", "end on"}, got.Strings()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	var files []string
	for _, l := range got {
		files = append(files, filepath.Base(l.Pos().File))
	}
	if diff := cmp.Diff([]string{"local.ksp", "shared.ksp", "shared.ksp", "main.ksp", "main.ksp"}, files); diff != "" {
		t.Errorf("origin mismatch (-want +got):\n%s", diff)
	}
}

func TestImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ksp"), lines(`import "b.ksp"`))
	writeFile(t, filepath.Join(dir, "b.ksp"), lines(`import "a.ksp"`))

	_, err := New().LoadFile(filepath.Join(dir, "a.ksp"))
	if err == nil {
		t.Fatal("expected an import cycle error")
	}
	if !strings.Contains(err.Error(), `import cycle detected at "a.ksp"`) {
		t.Errorf("unexpected error: %v", err)
	}
}
