package preprocessor

import "strings"

// familyScope tracks the stack of open family blocks while a pass scans the
// stream top to bottom.
type familyScope struct {
	names []string
}

// visit updates the scope for the trimmed command of line.
func (f *familyScope) visit(line *Line, cmd string) error {
	if m := familyStartRe.FindStringSubmatch(cmd); m != nil {
		f.names = append(f.names, strings.TrimSpace(m[1]))
		return nil
	}
	if familyEndRe.MatchString(cmd) {
		if len(f.names) == 0 {
			return parseError(line, StructureError, "end family without family")
		}
		f.names = f.names[:len(f.names)-1]
	}
	return nil
}

// prefix returns the dotted family prefix including the trailing dot, or "".
func (f *familyScope) prefix() string {
	if len(f.names) == 0 {
		return ""
	}
	return strings.Join(f.names, ".") + "."
}
