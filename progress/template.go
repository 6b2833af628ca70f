package progress

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/viant/parsly"

	"github.com/cotask/cotask/internal/clock"
)

// Template renders progress snapshots into human-readable lines.  A template
// is plain text with ${placeholder} expansions, e.g.
//
//	"${task}: ${message} ${current}/${max} (${percent}, ${elapsed})"
//
// Supported placeholders: task, message, current, max, percent, elapsed.
type Template struct {
	segments []segment
}

type segment struct {
	field field
	text  string
}

type field int

const (
	fieldLiteral field = iota
	fieldTask
	fieldMessage
	fieldCurrent
	fieldMax
	fieldPercent
	fieldElapsed
)

var fieldNames = map[string]field{
	"task":    fieldTask,
	"message": fieldMessage,
	"current": fieldCurrent,
	"max":     fieldMax,
	"percent": fieldPercent,
	"elapsed": fieldElapsed,
}

// Token codes
const (
	placeholderCode = iota + 1
	literalCode
)

var (
	placeholderToken = parsly.NewToken(placeholderCode, "Placeholder", &placeholderMatcher{})
	literalToken     = parsly.NewToken(literalCode, "Literal", &literalMatcher{})
)

// placeholderMatcher matches a complete ${name} expansion.
type placeholderMatcher struct{}

func (m *placeholderMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos+1 >= size || input[pos] != '$' || input[pos+1] != '{' {
		return 0
	}
	for i := pos + 2; i < size; i++ {
		if input[i] == '}' {
			return i - pos + 1
		}
	}
	return 0
}

// literalMatcher consumes text up to the next expansion start.
type literalMatcher struct{}

func (m *literalMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if input[i] == '$' && i+1 < size && input[i+1] == '{' {
			break
		}
		matched++
	}
	return matched
}

// NewTemplate parses the template expression.  Unknown placeholder names are
// rejected so typos surface at construction time rather than as silent
// literals in the middle of a run.
func NewTemplate(expr string) (*Template, error) {
	cursor := parsly.NewCursor("", []byte(expr), 0)
	var segments []segment
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAny(placeholderToken, literalToken)
		switch matched.Code {
		case placeholderToken.Code:
			text := matched.Text(cursor)
			name := strings.TrimSuffix(strings.TrimPrefix(text, "${"), "}")
			f, ok := fieldNames[name]
			if !ok {
				return nil, fmt.Errorf("unknown placeholder %q", name)
			}
			segments = append(segments, segment{field: f})
		case literalToken.Code:
			segments = append(segments, segment{field: fieldLiteral, text: matched.Text(cursor)})
		default:
			return nil, cursor.NewError(placeholderToken, literalToken)
		}
	}
	return &Template{segments: segments}, nil
}

// MustTemplate is NewTemplate that panics on a malformed expression; intended
// for package-level template variables.
func MustTemplate(expr string) *Template {
	t, err := NewTemplate(expr)
	if err != nil {
		panic(err)
	}
	return t
}

// Render expands the template against the supplied snapshot.
func (t *Template) Render(s Snapshot) string {
	var b strings.Builder
	for _, seg := range t.segments {
		switch seg.field {
		case fieldLiteral:
			b.WriteString(seg.text)
		case fieldTask:
			b.WriteString(s.TaskName)
		case fieldMessage:
			b.WriteString(s.Message)
		case fieldCurrent:
			b.WriteString(strconv.FormatInt(s.Current, 10))
		case fieldMax:
			b.WriteString(strconv.FormatInt(s.Max, 10))
		case fieldPercent:
			if s.Indeterminate || s.Max == 0 {
				b.WriteString("n/a")
			} else {
				b.WriteString(strconv.FormatFloat(s.Fraction()*100, 'f', 0, 64))
				b.WriteString("%")
			}
		case fieldElapsed:
			b.WriteString(clock.Now().Sub(s.StartedAt).Round(time.Millisecond).String())
		}
	}
	return b.String()
}
