package preprocessor

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Position is where a line came from in the original source. It never changes
// once a line has been loaded, however many passes rewrite the line.
type Position struct {
	File string
	Line int
	Text string
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", filepath.Base(p.File), p.Line)
}

// Line is one statement of the working stream.
type Line struct {
	Command string
	pos     Position
}

func NewLine(pos Position, command string) *Line {
	return &Line{Command: command, pos: pos}
}

func (l *Line) Pos() Position { return l.pos }

// Copy returns a new line with the same origin as l.
func (l *Line) Copy(command string) *Line {
	return &Line{Command: command, pos: l.pos}
}

type Lines []*Line

// FromStrings builds a stream with 1-based line numbers, mostly for tests and
// callers that have no file.
func FromStrings(file string, text ...string) Lines {
	out := make(Lines, len(text))
	for i, s := range text {
		out[i] = NewLine(Position{File: file, Line: i + 1, Text: s}, s)
	}
	return out
}

// Strings returns the commands of the stream.
func (ls Lines) Strings() []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Command
	}
	return out
}

// replaceLines copies lines into a new stream, adding inserts[i] directly after
// lines[positions[i]]. positions must be strictly increasing.
func replaceLines(lines Lines, positions []int, inserts []Lines) Lines {
	if len(positions) == 0 {
		return lines
	}
	n := len(lines)
	for _, ins := range inserts {
		n += len(ins)
	}
	out := make(Lines, 0, n)
	next := 0
	for i, pos := range positions {
		out = append(out, lines[next:pos+1]...)
		out = append(out, inserts[i]...)
		next = pos + 1
	}
	return append(out, lines[next:]...)
}

// insertions collects lines to add after given stream indices and applies them
// in a single rebuild.
type insertions map[int]Lines

func (ins insertions) add(pos int, lines ...*Line) {
	ins[pos] = append(ins[pos], lines...)
}

func (ins insertions) apply(lines Lines) Lines {
	positions := make([]int, 0, len(ins))
	for pos := range ins {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	inserts := make([]Lines, len(positions))
	for i, pos := range positions {
		inserts[i] = ins[pos]
	}
	return replaceLines(lines, positions, inserts)
}
