package preprocessor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	directionRe     = regexp.MustCompile(`\b(downto|to)\b`)
	stepRe          = regexp.MustCompile(`\s+step\s+`)
	iterateRe       = regexp.MustCompile(`^iterate_macro\s*\(`)
	literateRe      = regexp.MustCompile(`^literate_macro\s*\(`)
	literateOnRe    = regexp.MustCompile(`^on\b`)
	startIncRe      = regexp.MustCompile(`^START_INC\s*\(`)
	endIncRe        = regexp.MustCompile(`^END_INC\b`)
	incrementNameRe = regexp.MustCompile(`^` + nameFrag + `$`)
)

const (
	iterateToken  = "#n#"
	literateToken = "#l#"
)

type iterateMacro struct {
	call     string
	min, max int
	step     int
	downto   bool
}

// parseIterateMacro parses "iterate_macro(call) := min to|downto max [step s]".
func (p *Preprocessor) parseIterateMacro(line *Line, cmd string) (*iterateMacro, error) {
	syntaxErr := func() error {
		return parseError(line, SyntaxError,
			"Incorrect iterate_macro syntax. Expected: iterate_macro(<macro>) := <min> to|downto <max> [step <step>]")
	}
	rest := strings.TrimSpace(strings.TrimPrefix(cmd, "iterate_macro"))
	end, ok := scanParenEnd(rest)
	if !ok {
		return nil, syntaxErr()
	}
	it := &iterateMacro{call: strings.TrimSpace(rest[1 : end-1]), step: 1}
	rest = strings.TrimSpace(rest[end:])
	if it.call == "" || !strings.HasPrefix(rest, ":=") {
		return nil, syntaxErr()
	}
	rest = rest[2:]

	loc := directionRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		return nil, syntaxErr()
	}
	minText := rest[:loc[0]]
	it.downto = rest[loc[2]:loc[3]] == "downto"
	maxText := rest[loc[1]:]
	var stepText string
	if s := stepRe.FindStringIndex(maxText); s != nil {
		maxText, stepText = maxText[:s[0]], maxText[s[1]:]
	}

	var err error
	if it.min, err = p.evaluate(line, minText, "min"); err != nil {
		return nil, err
	}
	if it.max, err = p.evaluate(line, maxText, "max"); err != nil {
		return nil, err
	}
	if stepText != "" {
		if it.step, err = p.evaluate(line, stepText, "step"); err != nil {
			return nil, err
		}
		if it.step <= 0 {
			return nil, parseError(line, RangeError, "The step value of iterate_macro must be positive.")
		}
	}
	if (it.min > it.max && !it.downto) || (it.min < it.max && it.downto) {
		return nil, parseError(line, RangeError,
			"Min and max values are incorrectly weighted (For example, min > max when it should be min < max).")
	}
	return it, nil
}

func (it *iterateMacro) text(i int) string {
	n := strconv.Itoa(i)
	if strings.Contains(it.call, iterateToken) {
		return strings.ReplaceAll(it.call, iterateToken, n)
	}
	return it.call + "(" + n + ")"
}

func (it *iterateMacro) buildLines(line *Line) Lines {
	var out Lines
	if it.downto {
		for i := it.min; i >= it.max; i -= it.step {
			out = append(out, line.Copy(it.text(i)))
		}
		return out
	}
	for i := it.min; i <= it.max; i += it.step {
		out = append(out, line.Copy(it.text(i)))
	}
	return out
}

func (p *Preprocessor) handleIterateMacro(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if !iterateRe.MatchString(cmd) {
			out = append(out, line)
			continue
		}
		it, err := p.parseIterateMacro(line, cmd)
		if err != nil {
			return nil, err
		}
		out = append(out, it.buildLines(line)...)
	}
	return out, nil
}

// handleLiterateMacro expands "literate_macro(call) on a, b, c", one line per value.
func (p *Preprocessor) handleLiterateMacro(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if !literateRe.MatchString(cmd) {
			out = append(out, line)
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(cmd, "literate_macro"))
		end, ok := scanParenEnd(rest)
		if !ok {
			return nil, parseError(line, SyntaxError, "Incorrect literate_macro syntax: unbalanced parentheses.")
		}
		call := strings.TrimSpace(rest[1 : end-1])
		rest = strings.TrimSpace(rest[end:])
		if !literateOnRe.MatchString(rest) {
			return nil, parseError(line, SyntaxError,
				"Incorrect values in literate_macro statement. Expected: literate_macro(<macro>) on <literal>, ...")
		}
		values := strings.TrimSpace(rest[2:])
		if strings.HasPrefix(values, "(") {
			if e, ok := scanParenEnd(values); ok && e == len(values) {
				values = values[1 : e-1]
			}
		}
		for _, v := range splitArgs(values) {
			text := call + "(" + v + ")"
			if strings.Contains(call, literateToken) {
				text = strings.ReplaceAll(call, literateToken, v)
			}
			out = append(out, line.Copy(text))
		}
	}
	return out, nil
}

// handleIncrementor replaces the names opened by START_INC(name, start, step)
// with a running value until the matching END_INC. Each line that uses a name
// advances it by its step.
func (p *Preprocessor) handleIncrementor(lines Lines) (Lines, error) {
	var names []string
	var values, steps []int
	var opened []*Line
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		switch {
		case startIncRe.MatchString(cmd):
			_, args, ok := callArgs(cmd)
			if !ok || len(args) != 3 || !incrementNameRe.MatchString(args[0]) {
				return nil, parseError(line, SyntaxError,
					"Incorrect parameters. Expected: START_INC(<name>, <num-or-define>, <num-or-define>)")
			}
			start, err := p.evaluate(line, args[1], "start")
			if err != nil {
				return nil, err
			}
			step, err := p.evaluate(line, args[2], "step")
			if err != nil {
				return nil, err
			}
			names = append(names, args[0])
			values = append(values, start)
			steps = append(steps, step)
			opened = append(opened, line)
			line.Command = ""
		case endIncRe.MatchString(cmd):
			if len(names) == 0 {
				return nil, parseError(line, StructureError, "END_INC without START_INC.")
			}
			names = names[:len(names)-1]
			values = values[:len(values)-1]
			steps = steps[:len(steps)-1]
			opened = opened[:len(opened)-1]
			line.Command = ""
		default:
			for i, name := range names {
				if containsWord(line.Command, name) {
					line.Command = replaceWord(line.Command, name, strconv.Itoa(values[i]))
					values[i] += steps[i]
				}
			}
		}
	}
	if len(opened) > 0 {
		return nil, parseError(opened[len(opened)-1], StructureError, "START_INC without END_INC.")
	}
	return lines, nil
}
