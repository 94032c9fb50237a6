package preprocessor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	structStartRe = regexp.MustCompile(`^struct\s+(` + nameFrag + `)$`)
	structEndRe   = regexp.MustCompile(`^end\s+struct$`)
	structTypeRe  = regexp.MustCompile(`&\s*(` + nameFrag + `)\s+`)
	// a struct-typed member name, optionally behind the dotted path it was
	// inlined under: "a.b.&Point p"
	structRefRe  = regexp.MustCompile(`^([^&]+\.)?&\s*(` + nameFrag + `)\s+(` + nameFrag + `)$`)
	structDeclRe = regexp.MustCompile(`^declare\s+&\s*(` + nameFrag + `)\s+(` + nameFrag + `)\s*(?:\[(.*)\])?$`)
)

const defaultMaxStructIterations = 10000

type structMember struct {
	name    string
	command string
	prefix  string // the sigil of the member, if any
}

// makeArray turns the member into an array of dims elements, in front of any
// dimensions it already has.
func (m *structMember) makeArray(dims string) {
	if i := strings.IndexByte(m.command, '['); i >= 0 {
		m.command = m.command[:i+1] + dims + ", " + m.command[i+1:]
	} else {
		m.command = replaceWord(m.command, m.name, m.name+"["+dims+"]")
	}
	if m.prefix == "@" {
		m.prefix = "!"
	}
}

func (m *structMember) addNamePrefix(prefix string) {
	m.command = replaceWord(m.command, m.name, m.prefix+prefix+"."+m.name)
}

// ref reports the struct type and instance path of a struct-typed member.
func (m *structMember) ref() (structName, instance string, ok bool) {
	r := structRefRe.FindStringSubmatch(m.name)
	if r == nil {
		return "", "", false
	}
	return r[2], r[1] + r[3], true
}

type structDef struct {
	name    string
	members []*structMember
	line    *Line
}

func parseStructMember(line *Line, cmd string) (*structMember, error) {
	if !strings.HasPrefix(cmd, "declare ") && !strings.HasPrefix(cmd, "declare\t") {
		return nil, parseError(line, StructureError, "Structs may only consist of variable declarations.")
	}
	sigil, name, ok := declaredName(cmd)
	if !ok {
		return nil, parseError(line, SyntaxError, "Cannot find the member name in struct declaration: %s", cmd)
	}
	if t := structTypeRe.FindStringSubmatch(cmd); t != nil {
		return &structMember{name: "&" + t[1] + " " + name, command: cmd}, nil
	}
	return &structMember{
		name:    name,
		command: strings.Replace(cmd, sigil+name, name, 1),
		prefix:  sigil,
	}, nil
}

// handleStructs parses struct blocks, flattens struct-typed members and expands
// every "declare &Struct name[dims]".
func (p *Preprocessor) handleStructs(lines Lines) (Lines, error) {
	var structs []*structDef
	var current *structDef
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if m := structStartRe.FindStringSubmatch(cmd); m != nil {
			if current != nil {
				return nil, parseError(line, StructureError, "Struct definitions cannot be nested.")
			}
			current = &structDef{name: m[1], line: line}
			line.Command = ""
			continue
		}
		if structEndRe.MatchString(cmd) {
			if current == nil {
				return nil, parseError(line, StructureError, "end struct without struct.")
			}
			structs = append(structs, current)
			current = nil
			line.Command = ""
			continue
		}
		if current == nil {
			continue
		}
		if cmd != "" {
			member, err := parseStructMember(line, cmd)
			if err != nil {
				return nil, err
			}
			current.members = append(current.members, member)
		}
		line.Command = ""
	}
	if current != nil {
		return nil, parseError(current.line, StructureError, "struct %s has no end struct.", current.name)
	}

	byName := make(map[string]*structDef, len(structs))
	names := make([]string, 0, len(structs))
	for _, s := range structs {
		byName[s.name] = s
		names = append(names, s.name)
	}
	if err := findStructCycle(structs, byName); err != nil {
		return nil, err
	}
	for _, s := range structs {
		if err := p.flattenStruct(s, byName, names); err != nil {
			return nil, err
		}
	}

	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		m := structDeclRe.FindStringSubmatch(strings.TrimSpace(line.Command))
		if m == nil {
			out = append(out, line)
			continue
		}
		s, ok := byName[m[1]]
		if !ok {
			return nil, parseError(line, ReferenceError, "Undeclared struct %s%s", m[1], didYouMean(m[1], names))
		}
		out = append(out, instantiateStruct(line, s, m[2], strings.TrimSpace(m[3]))...)
	}
	return out, nil
}

// findStructCycle walks the struct-typed members depth first and reports the
// first chain of structs that leads back to itself. Direct self-reference and
// unknown struct types are left to flattenStruct.
func findStructCycle(structs []*structDef, byName map[string]*structDef) error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(structs))
	var path []string
	var visit func(s *structDef) error
	visit = func(s *structDef) error {
		state[s.name] = visiting
		path = append(path, s.name)
		for _, m := range s.members {
			ref, _, ok := m.ref()
			if !ok || ref == s.name {
				continue
			}
			next, found := byName[ref]
			if !found {
				continue
			}
			switch state[ref] {
			case visiting:
				start := 0
				for path[start] != ref {
					start++
				}
				chain := append(append([]string{}, path[start:]...), ref)
				return parseError(next.line, ReferenceError, "Struct cycle detected: %s.", strings.Join(chain, " -> "))
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[s.name] = visited
		return nil
	}
	for _, s := range structs {
		if state[s.name] == unvisited {
			if err := visit(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// flattenStruct replaces struct-typed members with the members of their struct
// until none are left.
func (p *Preprocessor) flattenStruct(s *structDef, byName map[string]*structDef, names []string) error {
	for _, m := range s.members {
		if ref, _, ok := m.ref(); ok && ref == s.name {
			return parseError(s.line, ReferenceError, "Declared struct cannot be the same as struct parent: %s", s.name)
		}
	}
	limit := p.MaxStructIterations
	if limit <= 0 {
		limit = defaultMaxStructIterations
	}
	for iterations := 0; ; iterations++ {
		j, ref, instance := -1, "", ""
		for i, m := range s.members {
			if r, inst, ok := m.ref(); ok {
				j, ref, instance = i, r, inst
				break
			}
		}
		if j < 0 {
			return nil
		}
		if iterations >= limit {
			return parseError(s.line, LimitError, "Too many iterations while building structs.")
		}
		inner, ok := byName[ref]
		if !ok {
			return parseError(s.line, ReferenceError, "Undeclared struct %s%s", ref, didYouMean(ref, names))
		}
		inlined := make([]*structMember, 0, len(s.members)+len(inner.members)-1)
		inlined = append(inlined, s.members[:j]...)
		for _, im := range inner.members {
			name := instance + "." + im.name
			inlined = append(inlined, &structMember{
				name:    name,
				command: replaceWord(im.command, im.name, name),
				prefix:  im.prefix,
			})
		}
		s.members = append(inlined, s.members[j+1:]...)
	}
}

func instantiateStruct(line *Line, s *structDef, instance, dims string) Lines {
	var out Lines
	members := make([]structMember, len(s.members))
	for i, m := range s.members {
		members[i] = *m
	}
	if dims != "" {
		for i := range members {
			members[i].makeArray(dims)
		}
		if hasTopLevelComma(dims) {
			for k, d := range splitArgs(dims) {
				out = append(out, line.Copy("declare const "+instance+".SIZE_D"+strconv.Itoa(k+1)+" := "+d))
			}
		} else {
			out = append(out, line.Copy("declare const "+instance+".SIZE := "+dims))
		}
	}
	for i := range members {
		members[i].addNamePrefix(instance)
		out = append(out, line.Copy(members[i].command))
	}
	return out
}
