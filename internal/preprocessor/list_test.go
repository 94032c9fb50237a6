package preprocessor

import "testing"

func TestListBlocks(t *testing.T) {
	testPass(t, (*Preprocessor).findListBlocks, []passTest{
		{
			"scalars",
			lines(
				"on init",
				"list l[]",
				"1",
				"2",
				"",
				"3",
				"end list",
				"end on",
			),
			[]string{
				"on init",
				"declare list l[]",
				"list_add(l, 1)",
				"list_add(l, 2)",
				"list_add(l, 3)",
				"end on",
			},
		},
		{
			"rows become arrays",
			lines(
				"list m[2, 2]",
				"1, 2",
				"3, 4",
				"end list",
			),
			[]string{
				"declare list m[2, 2]",
				"declare m0[] := (1, 2)",
				"list_add(m, m0)",
				"declare m1[] := (3, 4)",
				"list_add(m, m1)",
			},
		},
	})
}

func TestBadListBlocks(t *testing.T) {
	testBadPass(t, (*Preprocessor).findListBlocks, []badPassTest{
		{
			"unclosed",
			lines("list l[]", "1"),
			StructureError, 1,
			"list l has no end list.",
		},
		{
			"stray end",
			lines("end list"),
			StructureError, 1,
			"end list without list.",
		},
		{
			"nested",
			lines("list a[]", "list b[]"),
			StructureError, 2,
			"List blocks cannot be nested.",
		},
	})
}

func TestLists(t *testing.T) {
	testPass(t, (*Preprocessor).handleLists, []passTest{
		{
			"scalars",
			lines(
				"on init",
				"declare list l[]",
				"list_add(l, 1)",
				"list_add(l, 2)",
				"list_add(l, 3)",
				"end on",
			),
			[]string{
				"on init",
				"declare list_it",
				"declare l[3]",
				"declare const l.SIZE := 3",
				"l[0] := 1",
				"l[1] := 2",
				"l[2] := 3",
				"end on",
			},
		},
		{
			"whole array",
			lines(
				"on init",
				"declare arr[3] := (1, 2, 3)",
				"declare list l[]",
				"list_add(l, 9)",
				"list_add(l, arr)",
				"end on",
			),
			[]string{
				"on init",
				"declare list_it",
				"declare arr[3] := (1, 2, 3)",
				"declare l[4]",
				"declare const l.SIZE := 4",
				"l[0] := 9",
				"for list_it := 0 to 3 - 1",
				"l[list_it + 1] := arr[list_it]",
				"end for",
				"end on",
			},
		},
		{
			"matrix",
			lines(
				"on init",
				"declare m0[2] := (1, 2)",
				"declare m1[3] := (3, 4, 5)",
				"declare list m[2, 2]",
				"list_add(m, m0)",
				"list_add(m, m1)",
				"end on",
			),
			[]string{
				"on init",
				"declare list_it",
				"declare m0[2] := (1, 2)",
				"declare m1[3] := (3, 4, 5)",
				"declare _m[5]",
				"declare m.sizes[2] := (2, 3)",
				"declare m.pos[2] := (0, 2)",
				"property m",
				"function get(d1, d2) -> result",
				"result := _m[m.pos[d1] + d2]",
				"end function",
				"function set(d1, d2, val)",
				"_m[m.pos[d1] + d2] := val",
				"end function",
				"end property",
				"declare const m.SIZE := 2",
				"for list_it := 0 to 2 - 1",
				"_m[list_it + 0] := m0[list_it]",
				"end for",
				"for list_it := 0 to 3 - 1",
				"_m[list_it + 2] := m1[list_it]",
				"end for",
				"end on",
			},
		},
		{
			"persistent list",
			lines(
				"on init",
				"declare pers list %saved[]",
				"list_add(%saved, 7)",
				"end on",
			),
			[]string{
				"on init",
				"declare list_it",
				"declare pers %saved[1]",
				"declare const saved.SIZE := 1",
				"%saved[0] := 7",
				"end on",
			},
		},
	})
}

func TestBadLists(t *testing.T) {
	testBadPass(t, (*Preprocessor).handleLists, []badPassTest{
		{
			"in a conditional",
			lines(
				"on init",
				"declare list l[]",
				"if (1 = 1)",
				"list_add(l, 1)",
				"end if",
				"end on",
			),
			StructureError, 4,
			"list_add() cannot be used in loops or if statements.",
		},
		{
			"outside init",
			lines(
				"on init",
				"declare list l[]",
				"end on",
				"on note",
				"list_add(l, 1)",
				"end on",
			),
			StructureError, 5,
			"list_add() can only be used in the init callback.",
		},
		{
			"undeclared",
			lines(
				"on init",
				"declare list notes[]",
				"list_add(nots, 1)",
				"end on",
			),
			ReferenceError, 3,
			"nots had not been declared. (did you mean notes?)",
		},
		{
			"scalar into matrix",
			lines(
				"on init",
				"declare list m[2, 2]",
				"list_add(m, 1)",
				"end on",
			),
			SyntaxError, 3,
			"Only arrays can be added to the matrix list m, got 1.",
		},
		{
			"declared outside init",
			lines("declare list l[]"),
			StructureError, 1,
			"Lists can only be declared in the init callback.",
		},
		{
			"empty matrix",
			lines(
				"on init",
				"declare list m[2, 2]",
				"end on",
			),
			SyntaxError, 2,
			"Matrix list m has no arrays added to it.",
		},
	})
}
