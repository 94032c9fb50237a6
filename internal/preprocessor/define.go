package preprocessor

import (
	"regexp"
	"strings"
)

var (
	defineRe         = regexp.MustCompile(`^define\s+(` + sigilFrag + `?` + nameFrag + `)\b\s*(?:\((.+)\))?\s*:=(.+)$`)
	defineLiteralsRe = regexp.MustCompile(`^define\s+literals\s+`)
	literalsHeadRe   = regexp.MustCompile(`^define\s+literals\s+(` + varFrag + `)\s*:=(.*)$`)
	literalsValueRe  = regexp.MustCompile(`^\(((?:[a-zA-Z_][a-zA-Z0-9_.]*)?(?:\s*,\s*[a-zA-Z_][a-zA-Z0-9_.]*)*)\)$`)
)

// maxDefineDepth bounds nested expansion of a parameterised define within its
// own arguments.
const maxDefineDepth = 64

type defineConst struct {
	name   string
	value  string
	params []string
	line   *Line
}

func newDefineConst(line *Line, name, params, value string) (*defineConst, error) {
	if len(value) >= 2 && strings.HasPrefix(value, "#") && strings.HasSuffix(value, "#") {
		value = value[1 : len(value)-1]
	}
	d := &defineConst{name: name, value: value, line: line}
	if params != "" {
		d.params = splitArgs(params)
	}
	if containsWord(d.value, d.name) {
		return nil, parseError(line, ReferenceError, "Define constant cannot call itself.")
	}
	return d, nil
}

// substitute replaces every use of d in cmd. Uses of a parameterised define
// must be followed by an argument list; the expanded body is folded when it is
// constant.
func (d *defineConst) substitute(line *Line, cmd string, fold func(string) (string, bool)) (string, error) {
	return d.substituteNested(line, cmd, fold, 0)
}

func (d *defineConst) substituteNested(line *Line, cmd string, fold func(string) (string, bool), depth int) (string, error) {
	if !strings.Contains(cmd, d.name) {
		return cmd, nil
	}
	re := wordRe(d.name)
	if len(d.params) == 0 {
		return re.ReplaceAllLiteralString(cmd, d.value), nil
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(cmd, -1) {
		if loc[0] < last {
			continue
		}
		rest := cmd[loc[1]:]
		open := len(rest) - len(strings.TrimLeft(rest, " \t"))
		end, ok := scanParenEnd(rest[open:])
		if !ok {
			return "", parseError(line, SyntaxError, "No arguments found for define macro: %s", strings.TrimSpace(cmd[loc[0]:]))
		}
		call := cmd[loc[0] : loc[1]+open+end]
		args := splitArgs(rest[open+1 : open+end-1])
		if len(args) != len(d.params) {
			return "", parseError(line, SyntaxError, "Incorrect number of arguments in define macro: %s. Expected %d, got %d.",
				call, len(d.params), len(args))
		}
		body, err := d.expand(line, args, fold, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(cmd[last:loc[0]])
		b.WriteString(body)
		last = loc[1] + open + end
	}
	b.WriteString(cmd[last:])
	return b.String(), nil
}

func (d *defineConst) expand(line *Line, args []string, fold func(string) (string, bool), depth int) (string, error) {
	if depth >= maxDefineDepth {
		return "", parseError(line, ReferenceError, "Define macro %s is nested too deeply.", d.name)
	}
	body := d.value
	words := map[string]string{}
	for i, param := range d.params {
		if len(param) >= 2 && strings.HasPrefix(param, "#") && strings.HasSuffix(param, "#") {
			body = strings.ReplaceAll(body, param, args[i])
		} else {
			words[param] = args[i]
		}
	}
	body = replaceIdents(body, words)
	// arguments may hold further calls of d
	body, err := d.substituteNested(line, body, fold, depth+1)
	if err != nil {
		return "", err
	}
	body, _ = fold(body)
	return body, nil
}

// replaceIdents replaces identifiers found in repl, leaving string literals alone.
func replaceIdents(s string, repl map[string]string) string {
	if len(repl) == 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		ch := s[i]
		if ch == '"' {
			j := skipString(s, i) + 1
			b.WriteString(s[i:j])
			i = j
			continue
		}
		if isIdentStart(ch) {
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			name := s[i:j]
			if val, ok := repl[name]; ok {
				b.WriteString(val)
			} else {
				b.WriteString(name)
			}
			i = j
			continue
		}
		if ch >= '0' && ch <= '9' {
			// keep the tail of tokens such as 2a or 0FFh intact
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			b.WriteString(s[i:j])
			i = j
			continue
		}
		b.WriteByte(ch)
		i++
	}
	return b.String()
}

// handleDefineConstants removes define lines, resolves the defines against each
// other once (all pairs, no fixed point) and substitutes them everywhere.
func (p *Preprocessor) handleDefineConstants(lines Lines) (Lines, error) {
	var defines []*defineConst
	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if strings.HasPrefix(cmd, "define") {
			if m := defineRe.FindStringSubmatch(cmd); m != nil {
				d, err := newDefineConst(line, m[1], m[2], strings.TrimSpace(m[3]))
				if err != nil {
					return nil, err
				}
				defines = append(defines, d)
				continue
			}
		}
		out = append(out, line)
	}
	if len(defines) == 0 {
		return out, nil
	}

	for _, d := range defines {
		for _, other := range defines {
			if other == d {
				continue
			}
			v, err := other.substitute(d.line, d.value, p.fold)
			if err != nil {
				return nil, err
			}
			// a define reached through another one
			if containsWord(v, d.name) {
				return nil, parseError(d.line, ReferenceError, "Define constant cannot call itself.")
			}
			d.value = v
		}
		d.value, _ = p.fold(d.value)
	}

	for _, line := range out {
		for _, d := range defines {
			cmd, err := d.substitute(line, line.Command, p.fold)
			if err != nil {
				return nil, err
			}
			line.Command = cmd
		}
	}
	return out, nil
}

// handleDefineLiterals expands "define literals NAME := (a, b, c)".
func (p *Preprocessor) handleDefineLiterals(lines Lines) (Lines, error) {
	var titles, values []string
	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if !defineLiteralsRe.MatchString(cmd) {
			out = append(out, line)
			continue
		}
		m := literalsHeadRe.FindStringSubmatch(cmd)
		if m == nil {
			return nil, parseError(line, SyntaxError, "Syntax error in define literals.")
		}
		v := literalsValueRe.FindStringSubmatch(strings.TrimSpace(m[2]))
		if v == nil {
			return nil, parseError(line, SyntaxError,
				"Syntax error in define literals: Comma separated identifier list in () expected.")
		}
		titles = append(titles, m[1])
		values = append(values, v[1])
	}
	if len(titles) == 0 {
		return out, nil
	}
	for _, line := range out {
		for i, title := range titles {
			line.Command = replaceWord(line.Command, title, values[i])
		}
	}
	return out, nil
}
