package preprocessor

import (
	"regexp"
	"strconv"
	"strings"
)

const uiTypeFrag = `\b(ui_button|ui_switch|ui_knob|ui_label|ui_level_meter|ui_menu|ui_slider|ui_table|ui_text_edit|ui_waveform|ui_value_edit)\b`

var uiArrayRe = regexp.MustCompile(`^declare\s+` + persFrag + uiTypeFrag + `\s+(` + varFrag + `)\s*\[([^\]]+)\]\s*((\[[^\]]+\]\s*)?\(.*)?`)

type uiArray struct {
	name        string
	uiType      string
	size        string
	count       int
	persistence string
	family      string
	params      string
}

func (p *Preprocessor) newUIArray(line *Line, m []string, family string) (*uiArray, error) {
	a := &uiArray{
		persistence: m[1],
		uiType:      m[2],
		name:        m[3],
		size:        strings.TrimSpace(m[4]),
		params:      strings.TrimSpace(m[5]),
		family:      family,
	}
	count := a.size
	if a.multiDim() {
		dims := splitArgs(a.size)
		for i := range dims {
			dims[i] = "(" + dims[i] + ")"
		}
		count = strings.Join(dims, "*")
	}
	n, err := p.evaluate(line, count, "UI array size")
	if err != nil {
		return nil, err
	}
	a.count = n
	return a, nil
}

func (a *uiArray) multiDim() bool {
	return hasTopLevelComma(a.size)
}

// buildLines declares the id array and, for every element, the control and the
// assignment of its id.
func (a *uiArray) buildLines(line *Line) Lines {
	sigil, bare := splitSigil(a.name)
	if a.uiType == "ui_text_edit" {
		sigil = "@"
	}
	if a.multiDim() {
		bare = "_" + bare
	}
	out := Lines{line.Copy("declare " + stripSigil(a.name) + "[" + a.size + "]")}
	for i := 0; i < a.count; i++ {
		n := strconv.Itoa(i)
		decl := []string{"declare"}
		if a.persistence != "" {
			decl = append(decl, a.persistence)
		}
		decl = append(decl, a.uiType, sigil+bare+n)
		if a.params != "" {
			decl = append(decl, a.params)
		}
		out = append(out,
			line.Copy(strings.Join(decl, " ")),
			line.Copy(a.family+bare+"["+n+"] := get_ui_id("+sigil+a.family+bare+n+")"))
	}
	return out
}

// handleUIArrays expands arrays of UI controls. A ui_table is only an array when
// it has a second bracket with the table size.
func (p *Preprocessor) handleUIArrays(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	var family familyScope
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if err := family.visit(line, cmd); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(cmd, "decl") {
			out = append(out, line)
			continue
		}
		m := uiArrayRe.FindStringSubmatch(cmd)
		if m == nil || (m[2] == "ui_table" && m[6] == "") {
			out = append(out, line)
			continue
		}
		a, err := p.newUIArray(line, m, family.prefix())
		if err != nil {
			return nil, err
		}
		out = append(out, a.buildLines(line)...)
	}
	return out, nil
}

type uiPropertyFunction struct {
	name       string
	properties []string
}

var uiPropertyFunctions = []uiPropertyFunction{
	{"set_bounds", []string{"x", "y", "width", "height"}},
	{"set_slider_properties", []string{"default", "picture", "mouse_behaviour"}},
	{"set_switch_properties", []string{"text", "picture", "text_alignment", "font_type", "textpos_y"}},
	{"set_label_properties", []string{"text", "picture", "text_alignment", "font_type", "textpos_y"}},
	{"set_menu_properties", []string{"picture", "font_type", "text_alignment", "textpos_y"}},
	{"set_table_properties", []string{"bar_color", "zero_line_color"}},
	{"set_button_properties", []string{"text", "picture", "text_alignment", "font_type", "textpos_y"}},
	{"set_level_meter_properties", []string{"bg_color", "off_color", "on_color", "overload_color"}},
	{"set_waveform_properties", []string{"bar_color", "zero_line_color"}},
	{"set_knob_properties", []string{"text", "default"}},
}

func (f *uiPropertyFunction) buildLines(line *Line, args []string) (Lines, error) {
	if len(args) < 2 {
		return nil, parseError(line, SyntaxError, "Function requires at least 2 arguments.")
	}
	values := args[1:]
	if len(values) > len(f.properties) {
		return nil, parseError(line, SyntaxError, "Too many arguments, maximum is %d, got %d.", len(f.properties), len(values))
	}
	out := make(Lines, len(values))
	for i, v := range values {
		out[i] = line.Copy(args[0] + " -> " + f.properties[i] + " := " + v)
	}
	return out, nil
}

// uiPropertyFunctions expands set_*_properties(ui-id, ...) into one property
// assignment per given value.
func (p *Preprocessor) uiPropertyFunctions(lines Lines) (Lines, error) {
	out := make(Lines, 0, len(lines))
	for _, line := range lines {
		cmd := strings.TrimSpace(line.Command)
		if !strings.HasPrefix(cmd, "set_") {
			out = append(out, line)
			continue
		}
		open := strings.IndexByte(cmd, '(')
		if open < 0 {
			out = append(out, line)
			continue
		}
		f := lookupUIPropertyFunction(strings.TrimSpace(cmd[:open]))
		if f == nil {
			out = append(out, line)
			continue
		}
		_, args, ok := callArgs(cmd)
		if !ok {
			return nil, parseError(line, SyntaxError, "Malformed call of %s.", f.name)
		}
		expanded, err := f.buildLines(line, args)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func lookupUIPropertyFunction(name string) *uiPropertyFunction {
	for i := range uiPropertyFunctions {
		if uiPropertyFunctions[i].name == name {
			return &uiPropertyFunctions[i]
		}
	}
	return nil
}
