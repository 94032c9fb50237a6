package preprocessor

import (
	"log"
	"time"

	"github.com/pkg/errors"
)

// ---------------- Preprocessor ----------------

// Preprocessor rewrites a KSP line stream into the lower-level form the
// compiler understands. A zero value is not usable; use NewPreprocessor.
type Preprocessor struct {
	Evaluator Evaluator
	Expander  MacroExpander

	// MaxStructIterations bounds struct flattening. Zero means the default.
	MaxStructIterations int

	// Logger, when set, receives one line per pass.
	Logger *log.Logger
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		Evaluator:           NewEvaluator(),
		Expander:            IdentityExpander{},
		MaxStructIterations: defaultMaxStructIterations,
	}
}

// MacroExpander is the language's own macro stage, run between the two pass
// lists.
type MacroExpander interface {
	ExpandMacros(lines Lines) (Lines, error)
}

// IdentityExpander leaves the stream unchanged.
type IdentityExpander struct{}

func (IdentityExpander) ExpandMacros(lines Lines) (Lines, error) { return lines, nil }

type pass struct {
	name string
	run  func(Lines) (Lines, error)
}

func (p *Preprocessor) prePasses() []pass {
	return []pass{
		{"remove print", p.removePrint},
		{"define constants", p.handleDefineConstants},
		{"define literals", p.handleDefineLiterals},
		{"iterate_macro", p.handleIterateMacro},
		{"literate_macro", p.handleLiterateMacro},
	}
}

func (p *Preprocessor) postPasses() []pass {
	return []pass{
		{"structs", p.handleStructs},
		{"incrementor", p.handleIncrementor},
		{"const blocks", p.handleConstBlocks},
		{"ui arrays", p.handleUIArrays},
		{"inline declare assignment", p.inlineDeclareAssignment},
		{"multidimensional arrays", p.multiDimensionalArrays},
		{"list blocks", p.findListBlocks},
		{"open size arrays", p.calculateOpenSizeArrays},
		{"lists", p.handleLists},
		{"persistence", p.persistenceShorthand},
		{"ui property functions", p.uiPropertyFunctions},
		{"string arrays", p.expandStringArrayDeclarations},
		{"concat", p.handleArrayConcatenate},
	}
}

// PreMacro runs the passes that must see the source before the macro stage.
func (p *Preprocessor) PreMacro(lines Lines) (Lines, error) {
	return p.run(lines, p.prePasses())
}

// PostMacro runs the passes that lower the expanded stream.
func (p *Preprocessor) PostMacro(lines Lines) (Lines, error) {
	return p.run(lines, p.postPasses())
}

// Process runs the pre passes, the macro expander and the post passes. The
// first error aborts the run; the cause is a *ParseError.
func (p *Preprocessor) Process(lines Lines) (Lines, error) {
	lines, err := p.PreMacro(lines)
	if err != nil {
		return nil, err
	}
	expander := p.Expander
	if expander == nil {
		expander = IdentityExpander{}
	}
	if lines, err = expander.ExpandMacros(lines); err != nil {
		return nil, errors.Wrap(err, "macros")
	}
	return p.PostMacro(lines)
}

func (p *Preprocessor) run(lines Lines, passes []pass) (Lines, error) {
	if p.Evaluator == nil {
		p.Evaluator = NewEvaluator()
	}
	for _, ps := range passes {
		start := time.Now()
		out, err := ps.run(lines)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", ps.name)
		}
		if p.Logger != nil {
			p.Logger.Printf("%-26s %4d -> %4d lines in %v", ps.name, len(lines), len(out), time.Since(start))
		}
		lines = out
	}
	return lines, nil
}
