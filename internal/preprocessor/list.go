package preprocessor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	listBlockStartRe = regexp.MustCompile(`^list\s*(` + varFrag + `)\s*(?:\[([^\]]*)\])?$`)
	listBlockEndRe   = regexp.MustCompile(`^end\s+list$`)
	listDeclRe       = regexp.MustCompile(`^declare\s+` + persFrag + `list\s*(` + sigilFrag + `?)(` + nameFrag + `)\s*(?:\[([^\]]*)\])?$`)
	listAddRe        = regexp.MustCompile(`^list_add\s*\(`)
)

type listBlock struct {
	name    string
	size    string
	members []*Line
	line    *Line
}

// buildLines emits the declaration and one list_add per member. A member with a
// top-level comma is declared as an array of its own first. Generated lines
// keep the origin of the member they come from.
func (b *listBlock) buildLines() Lines {
	out := Lines{b.line.Copy("declare list " + b.name + "[" + b.size + "]")}
	for k, line := range b.members {
		member := strings.TrimSpace(line.Command)
		if hasTopLevelComma(member) {
			anon := stripSigil(b.name) + strconv.Itoa(k)
			out = append(out, line.Copy("declare "+anon+"[] := ("+member+")"))
			member = anon
		}
		out = append(out, line.Copy("list_add("+b.name+", "+member+")"))
	}
	return out
}

// findListBlocks desugars list ... end list blocks into a list declaration and
// list_add calls.
func (p *Preprocessor) findListBlocks(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	var block *listBlock
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if m := listBlockStartRe.FindStringSubmatch(cmd); m != nil {
			if block != nil {
				return nil, parseError(line, StructureError, "List blocks cannot be nested.")
			}
			block = &listBlock{name: m[1], size: strings.TrimSpace(m[2]), line: line}
			continue
		}
		if listBlockEndRe.MatchString(cmd) {
			if block == nil {
				return nil, parseError(line, StructureError, "end list without list.")
			}
			out = append(out, block.buildLines()...)
			block = nil
			continue
		}
		if block == nil {
			out = append(out, line)
			continue
		}
		if cmd != "" {
			block.members = append(block.members, line)
		}
	}
	if block != nil {
		return nil, parseError(block.line, StructureError, "list %s has no end list.", block.name)
	}
	return out, nil
}

// list is a declared list while handleLists lowers it.
type list struct {
	title    string // name without sigil
	target   string // the backing array
	matrix   bool
	iterator string
	rows     []string // element count of every array added to a matrix list
	index    int
	line     *Line
}

func (l *list) advance(amount string) {
	l.iterator = simplifyAddition(l.iterator + " + " + amount)
}

// tail is inserted after the declaration once the whole stream has been seen.
func (l *list) tail() Lines {
	var out Lines
	size := l.iterator
	if l.matrix {
		n := strconv.Itoa(len(l.rows))
		pos := []string{"0"}
		offset := "0"
		for _, r := range l.rows[:len(l.rows)-1] {
			offset = simplifyAddition(offset + " + " + r)
			pos = append(pos, offset)
		}
		element := l.target + "[" + l.title + ".pos[d1] + d2]"
		for _, text := range []string{
			"declare " + l.title + ".sizes[" + n + "] := (" + strings.Join(l.rows, ", ") + ")",
			"declare " + l.title + ".pos[" + n + "] := (" + strings.Join(pos, ", ") + ")",
			"property " + l.title,
			"function get(d1, d2) -> result",
			"result := " + element,
			"end function",
			"function set(d1, d2, val)",
			element + " := val",
			"end function",
			"end property",
		} {
			out = append(out, l.line.Copy(text))
		}
		size = n
	}
	return append(out, l.line.Copy("declare const "+l.title+".SIZE := "+size))
}

// handleLists lowers "declare list" and list_add() to a flat array filled by
// indexed assignments and copy loops. The array is sized at the end of the init
// callback with the number of elements added.
func (p *Preprocessor) handleLists(lines Lines) (Lines, error) {
	arrays := findArrays(lines)
	ins := insertions{}
	var lists []*list
	byTitle := map[string]*list{}
	var depth blockDepth
	inInit := false
	initIdx := -1

	for i, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		depth.visit(cmd)
		switch {
		case initRe.MatchString(cmd):
			inInit = true
			initIdx = i
		case endOnRe.MatchString(cmd):
			if !inInit {
				continue
			}
			inInit = false
			for _, l := range lists {
				decl := lines[l.index]
				if open := strings.Index(decl.Command, "[]"); open >= 0 {
					decl.Command = decl.Command[:open+1] + l.iterator + decl.Command[open+1:]
				}
			}
		case listDeclRe.MatchString(cmd):
			m := listDeclRe.FindStringSubmatch(cmd)
			if !inInit {
				return nil, parseError(line, StructureError, "Lists can only be declared in the init callback.")
			}
			l := &list{
				title:    m[3],
				target:   m[2] + m[3],
				matrix:   hasTopLevelComma(m[4]),
				iterator: "0",
				index:    i,
				line:     line,
			}
			if l.matrix {
				l.target = m[2] + "_" + m[3]
			}
			decl := "declare "
			if m[1] != "" {
				decl += m[1] + " "
			}
			line.Command = decl + l.target + "[]"
			lists = append(lists, l)
			byTitle[l.title] = l
		case listAddRe.MatchString(cmd):
			_, args, ok := callArgs(cmd)
			if !ok || len(args) != 2 {
				return nil, parseError(line, SyntaxError, "Incorrect list_add syntax. Expected: list_add(<list>, <value>)")
			}
			l, found := byTitle[stripSigil(args[0])]
			if !found {
				titles := make([]string, 0, len(byTitle))
				for t := range byTitle {
					titles = append(titles, t)
				}
				return nil, parseError(line, ReferenceError, "%s had not been declared.%s",
					args[0], didYouMean(stripSigil(args[0]), titles))
			}
			if depth > 0 {
				return nil, parseError(line, StructureError, "list_add() cannot be used in loops or if statements.")
			}
			if !inInit {
				return nil, parseError(line, StructureError, "list_add() can only be used in the init callback.")
			}
			value := args[1]
			size, isArray := arrays[stripSigil(value)]
			if !isArray {
				if l.matrix {
					return nil, parseError(line, SyntaxError,
						"Only arrays can be added to the matrix list %s, got %s.", l.title, value)
				}
				line.Command = l.target + "[" + l.iterator + "] := " + value
				l.advance("1")
				continue
			}
			line.Command = "for list_it := 0 to " + size + " - 1"
			ins.add(i,
				line.Copy(l.target+"[list_it + "+l.iterator+"] := "+value+"[list_it]"),
				line.Copy("end for"))
			l.advance(size)
			if l.matrix {
				l.rows = append(l.rows, size)
			}
		}
	}
	if len(lists) == 0 {
		return lines, nil
	}
	for _, l := range lists {
		if l.matrix && len(l.rows) == 0 {
			return nil, parseError(l.line, SyntaxError, "Matrix list %s has no arrays added to it.", l.title)
		}
		ins.add(l.index, l.tail()...)
	}
	ins.add(initIdx, lines[initIdx].Copy("declare list_it"))
	return ins.apply(lines), nil
}
