package preprocessor

import "testing"

func TestMultiDimensionalArrays(t *testing.T) {
	testPass(t, (*Preprocessor).multiDimensionalArrays, []passTest{
		{
			"two dimensions",
			lines(
				"on init",
				"declare arr[2,3]",
				"end on",
			),
			[]string{
				"on init",
				"declare _arr[(2)*(3)]",
				"declare const arr.SIZE_D1 := 2",
				"declare const arr.SIZE_D2 := 3",
				"property arr",
				"function get(d1,d2) -> result",
				"result := _arr[d1*(3)+d2]",
				"end function",
				"function set(d1,d2, val)",
				"_arr[d1*(3)+d2] := val",
				"end function",
				"end property",
				"end on",
			},
		},
		{
			"three dimensions with persistence and initialiser",
			lines(
				"on init",
				"declare pers %cube[2, 3, 4] := (0)",
				"end on",
			),
			[]string{
				"on init",
				"declare pers %_cube[(2)*(3)*(4)] := (0)",
				"declare const cube.SIZE_D1 := 2",
				"declare const cube.SIZE_D2 := 3",
				"declare const cube.SIZE_D3 := 4",
				"property cube",
				"function get(d1,d2,d3) -> result",
				"result := _cube[d1*(3)*(4)+d2*(4)+d3]",
				"end function",
				"function set(d1,d2,d3, val)",
				"_cube[d1*(3)*(4)+d2*(4)+d3] := val",
				"end function",
				"end property",
				"end on",
			},
		},
		{
			"family prefixes the backing array",
			lines(
				"on init",
				"family fx",
				"declare m[2,2]",
				"end family",
				"end on",
			),
			[]string{
				"on init",
				"family fx",
				"declare _m[(2)*(2)]",
				"declare const m.SIZE_D1 := 2",
				"declare const m.SIZE_D2 := 2",
				"property m",
				"function get(d1,d2) -> result",
				"result := fx._m[d1*(2)+d2]",
				"end function",
				"function set(d1,d2, val)",
				"fx._m[d1*(2)+d2] := val",
				"end function",
				"end property",
				"end family",
				"end on",
			},
		},
		{
			"one dimension and outside init untouched",
			lines(
				"declare glob[2,2]",
				"on init",
				"declare flat[8]",
				"end on",
			),
			[]string{"declare glob[2,2]", "on init", "declare flat[8]", "end on"},
		},
	})
}

func TestOpenSizeArrays(t *testing.T) {
	testPass(t, (*Preprocessor).calculateOpenSizeArrays, []passTest{
		{
			"integers",
			lines("declare arr[] := (1,2,3)"),
			[]string{"declare arr[3] := (1,2,3)", "declare const arr.SIZE := 3"},
		},
		{
			"strings with commas",
			lines(`declare !names[] := ("a, b", "c")`),
			[]string{`declare !names[2] := ("a, b", "c")`, "declare const names.SIZE := 2"},
		},
		{
			"calls in initialiser",
			lines("declare pers %v[] := (max(1, 2), 3)"),
			[]string{"declare pers %v[2] := (max(1, 2), 3)", "declare const v.SIZE := 2"},
		},
	})
}

func TestBadOpenSizeArrays(t *testing.T) {
	testBadPass(t, (*Preprocessor).calculateOpenSizeArrays, []badPassTest{
		{
			"empty",
			lines("declare arr[] := ()"),
			SyntaxError, 1,
			"Array initialiser is empty.",
		},
		{
			"unbalanced",
			lines("declare arr[] := (1, 2"),
			SyntaxError, 1,
			"Unbalanced parentheses in array initialiser.",
		},
	})
}

func TestStringArrays(t *testing.T) {
	testPass(t, (*Preprocessor).expandStringArrayDeclarations, []passTest{
		{
			"strings",
			lines(`declare !s[2] := ("a", "b")`),
			[]string{`declare !s[2]`, `!s[0] := "a"`, `!s[1] := "b"`},
		},
		{
			"integers untouched",
			lines(`declare %s[2] := (1, 2)`),
			[]string{`declare %s[2] := (1, 2)`},
		},
	})
}

func TestBadStringArrays(t *testing.T) {
	testBadPass(t, (*Preprocessor).expandStringArrayDeclarations, []badPassTest{
		{
			"strings into integer array",
			lines(`declare %s[2] := ("a", "b")`),
			SyntaxError, 1,
			"Expected integers, got strings.",
		},
	})
}

func TestArrayConcatenate(t *testing.T) {
	testPass(t, (*Preprocessor).handleArrayConcatenate, []passTest{
		{
			"sized from sources",
			lines(
				"on init",
				"declare a[4]",
				"declare b[5]",
				"declare c[] := concat(a, b)",
				"end on",
			),
			[]string{
				"on init",
				"declare concat_it",
				"declare concat_offset",
				"declare a[4]",
				"declare b[5]",
				"declare c[9]",
				"concat_offset := 0",
				"for concat_it := 0 to num_elements(a)-1",
				"c[concat_it + concat_offset] := a[concat_it]",
				"end for",
				"concat_offset := concat_offset + num_elements(a)",
				"for concat_it := 0 to num_elements(b)-1",
				"c[concat_it + concat_offset] := b[concat_it]",
				"end for",
				"end on",
			},
		},
		{
			"assignment from one array",
			lines(
				"on init",
				"declare a[4]",
				"declare c[4]",
				"end on",
				"on note",
				"c := concat(a)",
				"end on",
			),
			[]string{
				"on init",
				"declare concat_it",
				"declare concat_offset",
				"declare a[4]",
				"declare c[4]",
				"end on",
				"on note",
				"",
				"for concat_it := 0 to num_elements(a)-1",
				"c[concat_it] := a[concat_it]",
				"end for",
				"end on",
			},
		},
		{
			"no concat",
			lines("on init", "declare a[4]", "end on"),
			[]string{"on init", "declare a[4]", "end on"},
		},
	})
}

func TestBadArrayConcatenate(t *testing.T) {
	testBadPass(t, (*Preprocessor).handleArrayConcatenate, []badPassTest{
		{
			"no brackets",
			lines("on init", "declare c := concat(a)", "end on"),
			SyntaxError, 2,
			"No array size given. Leave brackets [] empty to have the size auto generated.",
		},
		{
			"undeclared source",
			lines(
				"on init",
				"declare alpha[3]",
				"declare c[] := concat(alpha, alpah)",
				"end on",
			),
			ReferenceError, 3,
			"Undeclared array(s) in concat function: alpah (did you mean alpha?)",
		},
		{
			"no init callback",
			lines("declare a[2]", "declare c[] := concat(a)"),
			StructureError, 2,
			"concat() needs an init callback.",
		},
	})
}
