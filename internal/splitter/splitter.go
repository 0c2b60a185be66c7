// Package splitter turns a raw procedure body into an ordered sequence
// of individual statements.
//
// The splitter is deliberately tolerant: it understands just enough SQL
// surface syntax (comments, string literals, quoted and bracketed
// identifiers, dollar-quoted bodies, GO batch separators) to find
// statement boundaries without parsing. A fragment it cannot confidently
// split is returned whole rather than rejected.
//
// Known limitation: `USE <database>` statements are not interpreted as
// changing the default-database context for later statements. Every
// statement is resolved against the procedure's original defaults.
package splitter

import "strings"

// Split splits a procedure body into trimmed statements, preserving
// source order. Statement-terminating semicolons are removed. Empty
// statements are dropped.
func Split(body string) []string {
	s := &scanner{input: body}
	return s.split()
}

type scanner struct {
	input string
	pos   int
	start int // start of the current statement
	out   []string
}

func (s *scanner) split() []string {
	for s.pos < len(s.input) {
		switch c := s.input[s.pos]; {
		case c == ';':
			s.emit(s.pos)
			s.pos++
			s.start = s.pos
		case c == '\'':
			s.skipString('\'')
		case c == '"':
			s.skipString('"')
		case c == '[':
			s.skipUntil(']')
		case c == '-' && s.peek() == '-':
			s.skipUntil('\n')
		case c == '/' && s.peek() == '*':
			s.skipBlockComment()
		case c == '$' && s.peek() == '$':
			s.skipDollarQuoted()
		case s.atBatchSeparator():
			s.emit(s.pos)
			s.pos += 2
			s.start = s.pos
		default:
			s.pos++
		}
	}
	s.emit(len(s.input))
	return s.out
}

func (s *scanner) peek() byte {
	if s.pos+1 >= len(s.input) {
		return 0
	}
	return s.input[s.pos+1]
}

// emit appends the statement between start and end, trimmed.
func (s *scanner) emit(end int) {
	stmt := strings.TrimSpace(s.input[s.start:end])
	stmt = strings.TrimRight(stmt, ";")
	stmt = strings.TrimSpace(stmt)
	if stmt != "" {
		s.out = append(s.out, stmt)
	}
}

// skipString advances past a quoted region. Doubled quotes are escapes.
// An unterminated quote consumes the rest of the input; the fragment is
// then returned whole, which is the tolerant behavior we want.
func (s *scanner) skipString(quote byte) {
	s.pos++
	for s.pos < len(s.input) {
		if s.input[s.pos] == quote {
			if s.pos+1 < len(s.input) && s.input[s.pos+1] == quote {
				s.pos += 2
				continue
			}
			s.pos++
			return
		}
		s.pos++
	}
}

func (s *scanner) skipUntil(end byte) {
	s.pos++
	for s.pos < len(s.input) && s.input[s.pos] != end {
		s.pos++
	}
	if s.pos < len(s.input) {
		s.pos++
	}
}

func (s *scanner) skipBlockComment() {
	s.pos += 2
	depth := 1
	for s.pos < len(s.input) && depth > 0 {
		if s.input[s.pos] == '/' && s.peek() == '*' {
			depth++
			s.pos += 2
			continue
		}
		if s.input[s.pos] == '*' && s.peek() == '/' {
			depth--
			s.pos += 2
			continue
		}
		s.pos++
	}
}

// skipDollarQuoted advances past a $$-quoted body (PostgreSQL procedure
// definitions). Only the bare $$ tag is recognized.
func (s *scanner) skipDollarQuoted() {
	s.pos += 2
	for s.pos < len(s.input) {
		if s.input[s.pos] == '$' && s.peek() == '$' {
			s.pos += 2
			return
		}
		s.pos++
	}
}

// atBatchSeparator reports whether the scanner sits on a GO batch
// separator: the word GO alone on its line.
func (s *scanner) atBatchSeparator() bool {
	c := s.input[s.pos]
	if c != 'g' && c != 'G' {
		return false
	}
	if s.pos+1 >= len(s.input) {
		return false
	}
	if o := s.input[s.pos+1]; o != 'o' && o != 'O' {
		return false
	}
	// Must start a line.
	for i := s.pos - 1; i >= 0; i-- {
		switch s.input[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
		default:
			return false
		}
		break
	}
	// Must end the line.
	for i := s.pos + 2; i < len(s.input); i++ {
		switch s.input[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
		default:
			return false
		}
		break
	}
	return true
}
