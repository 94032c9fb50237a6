/*
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ksp_pp

import (
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/fwessels/ksp-pp/internal/loader"
	"github.com/fwessels/ksp-pp/internal/preprocessor"
)

type (
	Line          = preprocessor.Line
	Lines         = preprocessor.Lines
	Position      = preprocessor.Position
	ParseError    = preprocessor.ParseError
	MacroExpander = preprocessor.MacroExpander
	Evaluator     = preprocessor.Evaluator
)

type Options struct {
	// ImportDirs are searched for imports not found next to the importing file.
	ImportDirs []string

	// MaxStructIterations bounds struct flattening; zero uses the default.
	MaxStructIterations int

	// Logger receives per-pass timing when set.
	Logger *log.Logger

	// Expander is the macro stage between the pre and post passes. Nil keeps
	// the stream unchanged.
	Expander MacroExpander

	// Evaluator folds constant expressions. Nil uses the built-in evaluator.
	Evaluator Evaluator
}

func (o Options) preprocessor() *preprocessor.Preprocessor {
	p := preprocessor.NewPreprocessor()
	if o.MaxStructIterations > 0 {
		p.MaxStructIterations = o.MaxStructIterations
	}
	if o.Expander != nil {
		p.Expander = o.Expander
	}
	if o.Evaluator != nil {
		p.Evaluator = o.Evaluator
	}
	p.Logger = o.Logger
	return p
}

// Preprocess loads the source read from r and returns the rewritten program,
// one statement per line. filename locates errors and relative imports.
func Preprocess(filename string, r io.Reader, opts Options) (string, error) {
	lines, err := loader.New(opts.ImportDirs...).Load(filename, r)
	if err != nil {
		return "", errors.Wrap(err, "load")
	}
	out, err := ProcessLines(lines, opts)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, line := range out {
		cmd := strings.TrimSpace(line.Command)
		if cmd == "" {
			continue
		}
		b.WriteString(cmd)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ProcessLines runs the whole pass pipeline over an already loaded stream.
func ProcessLines(lines Lines, opts Options) (Lines, error) {
	return opts.preprocessor().Process(lines)
}

// FromStrings builds a stream from statements, numbering them from 1.
func FromStrings(file string, text ...string) Lines {
	return preprocessor.FromStrings(file, text...)
}

// AsParseError returns the located error behind err, if any.
func AsParseError(err error) (*ParseError, bool) {
	pe, ok := errors.Cause(err).(*ParseError)
	return pe, ok
}
