package preprocessor

import (
	"regexp"
	"strconv"
	"strings"
)

const concatSyntax = "concat"

var (
	multiDimRe    = regexp.MustCompile(`^declare\s+` + persFrag + `(` + sigilFrag + `?)(` + nameFrag + `)\b\s*\[([^\]]+)\](\s*:=.+)?$`)
	openSizeRe    = regexp.MustCompile(`^declare\s+` + persFrag + `(` + varFrag + `)\s*\[\s*\]\s*:=\s*\(`)
	arrayDeclRe   = regexp.MustCompile(`^declare\s+` + persFrag + `(` + sigilFrag + `?)(` + nameFrag + `)\s*\[([^\]]*)\]`)
	stringArrayRe = regexp.MustCompile(`^declare\s+(` + sigilFrag + `?)(` + nameFrag + `)\s*\[\s*[^\]]+\s*\]\s*:=\s*\(\s*` +
		stringFrag + `(?:\s*,\s*` + stringFrag + `)*\s*\)$`)
	concatRe = regexp.MustCompile(`^(declare\s+)?(` + varFrag + `)\s*(\[(.*)\])?\s*:=\s*` + concatSyntax + `\s*\(([^)]*)\)$`)
)

const stringFrag = `(?:\{\d+\}|"[^"]*")`

type multiDimArray struct {
	name        string
	prefix      string
	persistence string
	assignment  string
	family      string
	dims        []string
}

func (a *multiDimArray) rawName() string {
	return a.family + "_" + a.name
}

// offset is the row-major index into the backing array:
// d1*(dim2)*(dim3) + d2*(dim3) + d3.
func (a *multiDimArray) offset() string {
	terms := make([]string, len(a.dims))
	for k := range a.dims {
		var b strings.Builder
		b.WriteString("d" + strconv.Itoa(k+1))
		for _, d := range a.dims[k+1:] {
			b.WriteString("*(" + d + ")")
		}
		terms[k] = b.String()
	}
	return strings.Join(terms, "+")
}

func (a *multiDimArray) buildLines(line *Line) Lines {
	total := make([]string, len(a.dims))
	params := make([]string, len(a.dims))
	for k, d := range a.dims {
		total[k] = "(" + d + ")"
		params[k] = "d" + strconv.Itoa(k+1)
	}
	decl := "declare "
	if a.persistence != "" {
		decl += a.persistence + " "
	}
	decl += a.prefix + "_" + a.name + "[" + strings.Join(total, "*") + "]"
	if a.assignment != "" {
		decl += " " + a.assignment
	}

	out := Lines{line.Copy(decl)}
	for k, d := range a.dims {
		out = append(out, line.Copy("declare const "+a.name+".SIZE_D"+strconv.Itoa(k+1)+" := "+d))
	}
	dimList := strings.Join(params, ",")
	element := a.rawName() + "[" + a.offset() + "]"
	for _, text := range []string{
		"property " + a.name,
		"function get(" + dimList + ") -> result",
		"result := " + element,
		"end function",
		"function set(" + dimList + ", val)",
		element + " := val",
		"end function",
		"end property",
	} {
		out = append(out, line.Copy(text))
	}
	return out
}

// multiDimensionalArrays replaces declarations with two or more dimensions in
// the init callback by a flat array and an indexing property.
func (p *Preprocessor) multiDimensionalArrays(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	var family familyScope
	inInit := false
	for i, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if !inInit {
			inInit = initRe.MatchString(cmd)
			out = append(out, line)
			continue
		}
		if endOnRe.MatchString(cmd) {
			out = append(out, lines[i:]...)
			break
		}
		if err := family.visit(line, cmd); err != nil {
			return nil, err
		}
		m := multiDimRe.FindStringSubmatch(cmd)
		if m == nil || !hasTopLevelComma(m[4]) {
			out = append(out, line)
			continue
		}
		a := &multiDimArray{
			persistence: m[1],
			prefix:      m[2],
			name:        m[3],
			dims:        splitArgs(m[4]),
			assignment:  strings.TrimSpace(m[5]),
			family:      family.prefix(),
		}
		out = append(out, a.buildLines(line)...)
	}
	return out, nil
}

// calculateOpenSizeArrays sizes "declare a[] := (...)" from its initialisers and
// adds a SIZE constant.
func (p *Preprocessor) calculateOpenSizeArrays(lines Lines) (Lines, error) {
	ins := insertions{}
	for i, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		m := openSizeRe.FindStringSubmatchIndex(cmd)
		if m == nil {
			continue
		}
		open := m[1] - 1
		end, ok := scanParenEnd(cmd[open:])
		if !ok {
			return nil, parseError(line, SyntaxError, "Unbalanced parentheses in array initialiser.")
		}
		n := len(splitArgs(cmd[open+1 : open+end-1]))
		if n == 0 {
			return nil, parseError(line, SyntaxError, "Array initialiser is empty.")
		}
		size := strconv.Itoa(n)
		bracket := strings.IndexByte(cmd, '[')
		line.Command = cmd[:bracket+1] + size + cmd[bracket+1:]
		name := stripSigil(cmd[m[4]:m[5]])
		ins.add(i, line.Copy("declare const "+name+".SIZE := "+size))
	}
	return ins.apply(lines), nil
}

// expandStringArrayDeclarations turns "declare !s[n] := ("a", "b")" into a
// declaration and one assignment per string.
func (p *Preprocessor) expandStringArrayDeclarations(lines Lines) (Lines, error) {
	ins := insertions{}
	for i, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		m := stringArrayRe.FindStringSubmatch(cmd)
		if m == nil {
			continue
		}
		if m[1] != "!" {
			return nil, parseError(line, SyntaxError, "Expected integers, got strings.")
		}
		assign := strings.Index(cmd, ":=")
		open := strings.IndexByte(cmd[assign:], '(') + assign
		values := splitArgs(cmd[open+1 : len(cmd)-1])
		line.Command = strings.TrimSpace(cmd[:assign])
		for k, v := range values {
			ins.add(i, line.Copy("!"+m[2]+"["+strconv.Itoa(k)+"] := "+v))
		}
	}
	return ins.apply(lines), nil
}

// arraySizes maps array names without sigil to their declared sizes.
type arraySizes map[string]string

func (s arraySizes) visit(cmd string) {
	m := arrayDeclRe.FindStringSubmatch(cmd)
	if m == nil || strings.TrimSpace(m[4]) == "" {
		return
	}
	if _, ok := s[m[3]]; !ok {
		s[m[3]] = strings.TrimSpace(m[4])
	}
}

func (s arraySizes) names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}

func findArrays(lines Lines) arraySizes {
	sizes := arraySizes{}
	for _, line := range lines {
		sizes.visit(strings.TrimSpace(line.Command))
	}
	return sizes
}

// handleArrayConcatenate lowers "a[] := concat(b, c)" to copy loops. A declared
// destination without a size gets the sum of the sizes of its sources.
func (p *Preprocessor) handleArrayConcatenate(lines Lines) (Lines, error) {
	ins := insertions{}
	sizes := arraySizes{}
	initIdx := -1
	var first *Line
	for i, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if initIdx < 0 && initRe.MatchString(cmd) {
			initIdx = i
		}
		m := concatRe.FindStringSubmatch(cmd)
		if m == nil {
			sizes.visit(cmd)
			continue
		}
		if first == nil {
			first = line
		}
		parent := m[2]
		args := splitArgs(m[5])
		if len(args) == 0 {
			return nil, parseError(line, SyntaxError, "%s() needs at least one array.", concatSyntax)
		}
		if m[1] != "" {
			if m[3] == "" {
				return nil, parseError(line, SyntaxError,
					"No array size given. Leave brackets [] empty to have the size auto generated.")
			}
			size := strings.TrimSpace(m[4])
			if size == "" {
				var found, missing []string
				for _, arg := range args {
					if s, ok := sizes[stripSigil(arg)]; ok {
						found = append(found, s)
					} else {
						missing = append(missing, arg)
					}
				}
				if len(missing) > 0 {
					return nil, parseError(line, ReferenceError, "Undeclared array(s) in %s function: %s%s",
						concatSyntax, strings.Join(missing, ", "), didYouMean(stripSigil(missing[0]), sizes.names()))
				}
				size = simplifyAddition(strings.Join(found, "+"))
			}
			line.Command = "declare " + parent + "[" + size + "]"
			sizes.visit(line.Command)
		} else {
			line.Command = ""
		}
		ins.add(i, concatLoops(line, parent, args)...)
	}
	if first == nil {
		return lines, nil
	}
	if initIdx < 0 {
		return nil, parseError(first, StructureError, "%s() needs an init callback.", concatSyntax)
	}
	ins.add(initIdx, lines[initIdx].Copy("declare concat_it"), lines[initIdx].Copy("declare concat_offset"))
	return ins.apply(lines), nil
}

func concatLoops(line *Line, parent string, args []string) Lines {
	var out Lines
	offset := ""
	if len(args) != 1 {
		offset = " + concat_offset"
		out = append(out, line.Copy("concat_offset := 0"))
	}
	for j, arg := range args {
		if j != 0 && len(args) != 1 {
			out = append(out, line.Copy("concat_offset := concat_offset + num_elements("+args[j-1]+")"))
		}
		out = append(out,
			line.Copy("for concat_it := 0 to num_elements("+arg+")-1"),
			line.Copy(parent+"[concat_it"+offset+"] := "+arg+"[concat_it]"),
			line.Copy("end for"))
	}
	return out
}
