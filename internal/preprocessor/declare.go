package preprocessor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	activateLoggerRe = regexp.MustCompile(`^activate_logger\s*\(`)
	printRe          = regexp.MustCompile(`^print\s*\(`)

	constBlockStartRe  = regexp.MustCompile(`^const\s+(` + varFrag + `)$`)
	constBlockEndRe    = regexp.MustCompile(`^end\s+const$`)
	constBlockMemberRe = regexp.MustCompile(`^(` + varFrag + `)(?:$|\s*:=\s*(.+))`)

	inlineDeclareRe = regexp.MustCompile(`^declare\s+(?:(?:polyphonic|global|local)\s+)*` + persFrag + `(` + sigilFrag + `?)(` + nameFrag + `)\b\s*:=`)
	stringValueRe   = regexp.MustCompile(stringFrag)
	concatCallRe    = regexp.MustCompile(`\bconcat\s*\(`)

	// pers and read only count among the modifiers in front of the name
	persistenceRe = regexp.MustCompile(`^declare\s+(?:(?:polyphonic|global|local|const)\s+)*(pers|read)\s+`)
)

// removePrint blanks print() lines unless the script calls activate_logger().
func (p *Preprocessor) removePrint(lines Lines) (Lines, error) {
	var prints []*Line
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if activateLoggerRe.MatchString(cmd) {
			return lines, nil
		}
		if printRe.MatchString(cmd) {
			prints = append(prints, line)
		}
	}
	for _, line := range prints {
		line.Command = ""
	}
	return lines, nil
}

type constBlock struct {
	name   string
	names  []string
	values []string
	line   *Line
}

func (c *constBlock) add(name, value string) {
	if value == "" {
		prev := "-1"
		if len(c.values) > 0 {
			prev = c.values[len(c.values)-1]
		}
		value = prev + "+1"
	}
	c.names = append(c.names, name)
	c.values = append(c.values, simplifyAddition(value))
}

func (c *constBlock) buildLines(line *Line) Lines {
	n := strconv.Itoa(len(c.names))
	out := Lines{
		line.Copy("declare " + c.name + "[" + n + "] := (" + strings.Join(c.values, ", ") + ")"),
		line.Copy("declare const " + c.name + ".SIZE := " + n),
	}
	for i, name := range c.names {
		out = append(out, line.Copy("declare const "+c.name+"."+name+" := "+c.values[i]))
	}
	return out
}

// handleConstBlocks expands const ... end const blocks into an array of the
// values, a SIZE constant and one constant per member.
func (p *Preprocessor) handleConstBlocks(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	var block *constBlock
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if m := constBlockStartRe.FindStringSubmatch(cmd); m != nil {
			if block != nil {
				return nil, parseError(line, StructureError, "Const blocks cannot be nested.")
			}
			block = &constBlock{name: m[1], line: line}
			continue
		}
		if constBlockEndRe.MatchString(cmd) {
			if block == nil {
				return nil, parseError(line, StructureError, "end const without const.")
			}
			out = append(out, block.buildLines(line)...)
			block = nil
			continue
		}
		if block == nil {
			out = append(out, line)
			continue
		}
		if cmd == "" {
			continue
		}
		m := constBlockMemberRe.FindStringSubmatch(cmd)
		if m == nil {
			return nil, parseError(line, SyntaxError,
				"Incorrect syntax. In a const block, list constant names and optionally assign them a constant value.")
		}
		block.add(m[1], strings.TrimSpace(m[2]))
	}
	if block != nil {
		return nil, parseError(block.line, StructureError, "const %s has no end const.", block.name)
	}
	return out, nil
}

// inlineDeclareAssignment moves a non-constant initial value of a variable
// declaration to its own assignment line.
func (p *Preprocessor) inlineDeclareAssignment(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		m := inlineDeclareRe.FindStringSubmatch(cmd)
		if m == nil || concatCallRe.MatchString(cmd) {
			out = append(out, line)
			continue
		}
		assign := strings.Index(cmd, ":=")
		value := cmd[assign+2:]
		if !stringValueRe.MatchString(cmd) {
			if _, ok := p.fold(value); ok {
				out = append(out, line)
				continue
			}
		}
		out = append(out,
			line.Copy(strings.TrimSpace(cmd[:assign])),
			line.Copy(m[2]+m[3]+" "+cmd[assign:]))
	}
	return out, nil
}

// persistenceShorthand rewrites "declare pers x" to "declare x" followed by
// make_persistent(x), and "read" additionally to read_persistent_var(x).
func (p *Preprocessor) persistenceShorthand(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	var family familyScope
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if err := family.visit(line, cmd); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(cmd, "declare") {
			out = append(out, line)
			continue
		}
		loc := persistenceRe.FindStringSubmatchIndex(cmd)
		if loc == nil {
			out = append(out, line)
			continue
		}
		sigil, name, ok := declaredName(cmd)
		if !ok {
			out = append(out, line)
			continue
		}
		keyword := cmd[loc[2]:loc[3]]
		stripped := cmd[:loc[2]] + cmd[loc[1]:]
		name = sigil + family.prefix() + name
		out = append(out,
			line.Copy(stripped),
			line.Copy("make_persistent("+name+")"))
		if keyword == readKeyword {
			out = append(out, line.Copy("read_persistent_var("+name+")"))
		}
	}
	return out, nil
}
