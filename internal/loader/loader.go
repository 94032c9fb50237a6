// Package loader reads KSP source into a line stream: it joins continuation
// lines, removes comments and splices in imported files.
package loader

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/fwessels/ksp-pp/internal/preprocessor"
)

const continuation = "..."

var importRe = regexp.MustCompile(`^import\s+"([^"]+)"(?:\s+as\s+[a-zA-Z_][a-zA-Z0-9_]*)?$`)

type Loader struct {
	ImportDirs []string
	importing  map[string]bool
}

func New(importDirs ...string) *Loader {
	return &Loader{ImportDirs: importDirs}
}

// LoadFile reads and loads the file at path.
func (l *Loader) LoadFile(path string) (preprocessor.Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.Load(path, f)
}

// Load reads r, which holds the source of filename. filename is used for
// positions and to resolve relative imports; it need not exist.
func (l *Loader) Load(filename string, r io.Reader) (preprocessor.Lines, error) {
	if abs, err := filepath.Abs(filename); err == nil && fileExists(abs) {
		filename = abs
	}
	if l.importing == nil {
		l.importing = map[string]bool{}
	}
	if l.importing[filename] {
		return nil, errors.Errorf("import cycle detected at %q", shortPath(filename))
	}
	l.importing[filename] = true
	defer delete(l.importing, filename)

	var out preprocessor.Lines
	lr := newLineReader(r)
	var comments commentStripper
	lineNo := 0
	for {
		text, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		lineNo++
		pos := preprocessor.Position{File: filename, Line: lineNo, Text: text}
		cmd := comments.strip(text)

		for lineContinues(cmd) {
			next, ok, err := lr.next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.Errorf("%s:%d: continuation at end of file", shortPath(filename), lineNo)
			}
			lineNo++
			cmd = stripLineContinuation(cmd) + " " + strings.TrimSpace(comments.strip(next))
		}

		if m := importRe.FindStringSubmatch(strings.TrimSpace(cmd)); m != nil {
			imported, err := l.readImport(m[1], filename)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", shortPath(filename), pos.Line)
			}
			out = append(out, imported...)
			continue
		}
		out = append(out, preprocessor.NewLine(pos, cmd))
	}
	if comments.open {
		return nil, errors.Errorf("%s:%d: unterminated comment", shortPath(filename), comments.line)
	}
	return out, nil
}

// ---------------- Comments ----------------

// commentStripper removes { } block comments, which may span lines, and //
// line comments. Braces and slashes inside strings are kept.
type commentStripper struct {
	open bool
	line int
	seen int
}

func (c *commentStripper) strip(s string) string {
	c.seen++
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if c.open {
			if ch == '}' {
				c.open = false
			}
			continue
		}
		switch {
		case ch == '{':
			c.open = true
			c.line = c.seen
		case ch == '/' && i+1 < len(s) && s[i+1] == '/':
			return strings.TrimRight(b.String(), " \t")
		case ch == '"':
			end := i + 1
			for end < len(s) && s[end] != '"' {
				if s[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(s) {
				end = len(s) - 1
			}
			b.WriteString(s[i : end+1])
			i = end
		default:
			b.WriteByte(ch)
		}
	}
	return strings.TrimRight(b.String(), " \t")
}

// ---------------- Lines ----------------

type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (lr *lineReader) next() (line string, ok bool, err error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if len(s) == 0 && err == io.EOF {
		return "", false, nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), true, nil
}

func lineContinues(s string) bool {
	return strings.HasSuffix(strings.TrimRight(s, " \t"), continuation)
}

func stripLineContinuation(s string) string {
	s = strings.TrimRight(s, " \t")
	return strings.TrimRight(strings.TrimSuffix(s, continuation), " \t")
}

// ---------------- Import resolution ----------------

func (l *Loader) readImport(path, importingFile string) (preprocessor.Lines, error) {
	resolved, err := l.resolveAsFile(path, importingFile)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(resolved)
}

func (l *Loader) resolveAsFile(path, importingFile string) (string, error) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return filepath.Clean(path), nil
		}
		return "", errors.Errorf("cannot resolve import %q", path)
	}

	// 1) relative to the importing file
	if importingFile != "" && importingFile != "<stdin>" {
		cand := filepath.Join(filepath.Dir(importingFile), path)
		if fileExists(cand) {
			return filepath.Abs(cand)
		}
	}

	// 2) import dirs
	for _, dir := range l.ImportDirs {
		cand := filepath.Join(dir, path)
		if fileExists(cand) {
			return filepath.Abs(cand)
		}
	}
	return "", errors.Errorf("cannot resolve import %q", path)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func shortPath(p string) string {
	if p == "" {
		return p
	}
	return filepath.Base(p)
}
