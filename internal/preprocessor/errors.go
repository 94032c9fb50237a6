package preprocessor

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
)

// Kind classifies a ParseError.
type Kind int

const (
	StructureError Kind = iota // unmatched or nested blocks, bad statements inside blocks
	ReferenceError             // undeclared or self-referencing names
	SyntaxError                // argument counts and malformed constructs
	RangeError                 // bad iteration bounds, non-constant required values
	LimitError                 // runaway fixed-point iteration
)

func (k Kind) String() string {
	switch k {
	case StructureError:
		return "structure error"
	case ReferenceError:
		return "reference error"
	case SyntaxError:
		return "syntax error"
	case RangeError:
		return "range error"
	case LimitError:
		return "limit error"
	}
	return "error"
}

// ParseError is a fatal error located at the original source line.
type ParseError struct {
	Pos  Position
	Kind Kind
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func parseError(line *Line, kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&ParseError{
		Pos:  line.Pos(),
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	})
}

// didYouMean returns " (did you mean X?)" for the closest candidate, or "".
func didYouMean(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return fmt.Sprintf(" (did you mean %s?)", ranks[0].Target)
	}
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", best)
}
