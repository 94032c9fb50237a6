package preprocessor

import (
	"regexp"
	"strings"
)

// Regular fragments shared by the line recognisers.
const (
	sigilFrag   = `[$%!@]`
	nameFrag    = `[a-zA-Z_][a-zA-Z0-9_.]*`
	varFrag     = `(?:\b|[$%!@])` + nameFrag + `\b`
	persFrag    = `(?:\b(pers|read)\s+)?`
	persKeyword = "pers"
	readKeyword = "read"
)

var (
	initRe        = regexp.MustCompile(`^on\s+init$`)
	endOnRe       = regexp.MustCompile(`^end\s+on$`)
	familyStartRe = regexp.MustCompile(`^family\s+(.+)$`)
	familyEndRe   = regexp.MustCompile(`^end\s+family$`)
	forRe         = regexp.MustCompile(`^for(\(|\s+)`)
	whileRe       = regexp.MustCompile(`^while(\(|\s+)`)
	ifRe          = regexp.MustCompile(`^if(\(|\s+)`)
	endBlockRe    = regexp.MustCompile(`^end\s+(for|while|if)\b`)

	// a declared name: the first identifier followed by [, (, : or the end
	declNameRe = regexp.MustCompile(`(?:^|[^a-zA-Z0-9_.$%!@])(` + sigilFrag + `?)(` + nameFrag + `)\s*(?:[\[(:]|$)`)
)

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isSigil(b byte) bool {
	return b == '$' || b == '%' || b == '!' || b == '@'
}

// splitSigil splits "%name" into "%" and "name".
func splitSigil(name string) (string, string) {
	if name != "" && isSigil(name[0]) {
		return name[:1], name[1:]
	}
	return "", name
}

func stripSigil(name string) string {
	_, bare := splitSigil(strings.TrimSpace(name))
	return bare
}

// scanParenEnd returns the index just past the parenthesis that closes s[0].
func scanParenEnd(s string) (int, bool) {
	if s == "" || s[0] != '(' {
		return 0, false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '(' {
			depth++
		} else if ch == ')' {
			depth--
			if depth == 0 {
				return i + 1, true
			}
		} else if ch == '"' {
			i = skipString(s, i)
		}
	}
	return 0, false
}

// skipString returns the index of the quote closing the string at s[i].
func skipString(s string, i int) int {
	quote := s[i]
	for i++; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == quote {
			return i
		}
	}
	return len(s) - 1
}

// splitArgs splits on commas outside parentheses, brackets and strings. Every
// argument is trimmed; an empty string has no arguments.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '"':
			i = skipString(s, i)
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

func hasTopLevelComma(s string) bool {
	return len(splitArgs(s)) > 1
}

// callArgs parses "name(args)" with nothing after the closing parenthesis. It
// returns the name, the arguments and whether s had that shape.
func callArgs(s string) (string, []string, bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return "", nil, false
	}
	end, ok := scanParenEnd(s[open:])
	if !ok || strings.TrimSpace(s[open+end:]) != "" {
		return "", nil, false
	}
	return strings.TrimSpace(s[:open]), splitArgs(s[open+1 : open+end-1]), true
}

func wordRe(word string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
}

// replaceWord replaces whole-word occurrences of word with repl.
func replaceWord(s, word, repl string) string {
	if !strings.Contains(s, word) {
		return s
	}
	return wordRe(word).ReplaceAllLiteralString(s, repl)
}

func containsWord(s, word string) bool {
	return strings.Contains(s, word) && wordRe(word).MatchString(s)
}

// declaredName finds the variable a declaration line declares.
func declaredName(line string) (sigil, name string, ok bool) {
	line = strings.TrimSpace(line)
	for _, m := range declNameRe.FindAllStringSubmatch(line, -1) {
		if isDeclKeyword(m[2]) {
			continue
		}
		return m[1], m[2], true
	}
	return "", "", false
}

func isDeclKeyword(w string) bool {
	switch w {
	case "declare", "const", "polyphonic", "global", "local", "list", persKeyword, readKeyword:
		return true
	}
	return strings.HasPrefix(w, "ui_")
}

// blockDepth tracks for/while/if nesting.
type blockDepth int

func (d *blockDepth) visit(line string) {
	switch {
	case forRe.MatchString(line), whileRe.MatchString(line), ifRe.MatchString(line):
		*d++
	case endBlockRe.MatchString(line):
		if *d > 0 {
			*d--
		}
	}
}
