package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed N-Triples line.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ntriples: line %d: %s", e.Line, e.Message)
}

// ParseNTriples reads N-Triples statements from r and adds them to ds.
// It returns the number of triples added.
//
// IRIs are interned without their angle brackets. Literals are interned as
// their unescaped lexical form; language tags and datatypes are accepted
// but not retained, so "25"^^xsd:integer and "25" share one id.
func ParseNTriples(r io.Reader, ds *Dataset) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	count := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		terms, err := splitStatement(line)
		if err != nil {
			return count, &SyntaxError{Line: lineNo, Message: err.Error()}
		}
		ds.Add(terms[0], terms[1], terms[2])
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("ntriples: read: %w", err)
	}
	return count, nil
}

// splitStatement tokenizes "<s> <p> <o> ." into three interned values.
func splitStatement(line string) ([3]string, error) {
	var out [3]string
	rest := line
	for i := 0; i < 3; i++ {
		rest = strings.TrimLeft(rest, " \t")
		value, remaining, err := readTerm(rest, i)
		if err != nil {
			return out, err
		}
		out[i] = value
		rest = remaining
	}
	rest = strings.TrimSpace(rest)
	if rest != "." {
		return out, fmt.Errorf("expected '.' at end of statement, got %q", rest)
	}
	return out, nil
}

func readTerm(s string, position int) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("missing term at position %d", position)
	}
	switch {
	case s[0] == '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IRI")
		}
		return s[1:end], s[end+1:], nil

	case strings.HasPrefix(s, "_:"):
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated blank node")
		}
		return s[:end], s[end:], nil

	case s[0] == '"':
		if position != 2 {
			return "", "", fmt.Errorf("literal not allowed at position %d", position)
		}
		end := closingQuote(s)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated literal")
		}
		value, err := strconv.Unquote(s[:end+1])
		if err != nil {
			return "", "", fmt.Errorf("invalid literal %s: %w", s[:end+1], err)
		}
		rest := s[end+1:]
		switch {
		case strings.HasPrefix(rest, "@"):
			stop := strings.IndexAny(rest, " \t")
			if stop < 0 {
				stop = len(rest)
			}
			rest = rest[stop:]
		case strings.HasPrefix(rest, "^^<"):
			stop := strings.IndexByte(rest, '>')
			if stop < 0 {
				return "", "", fmt.Errorf("unterminated datatype IRI")
			}
			rest = rest[stop+1:]
		}
		return value, rest, nil

	default:
		return "", "", fmt.Errorf("unexpected character %q at position %d", s[0], position)
	}
}

// closingQuote returns the index of the unescaped quote ending the literal
// that starts at s[0].
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
