// Package fuzzycparser is Clink's character-level C/C++ scanner (§4.3.3),
// used when the structural tree-sitter parser is not wanted. Its line/column
// tracking follows the eat_eol/eat_one/eat_ws style of
// libclink/src/scanner.c; its classification rules (leader words, type
// words, brace/paren depth as a surrogate for "inside a function body") are
// the heuristics §4.3.3 specifies directly.
package fuzzycparser

import (
	"github.com/smattr/clink/internal/symbol"
)

// keywords never themselves emit a symbol.
var keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"extern": true, "float": true, "for": true, "goto": true, "if": true,
	"inline": true, "int": true, "long": true, "register": true, "restrict": true,
	"return": true, "short": true, "signed": true, "sizeof": true, "static": true,
	"struct": true, "switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true, "while": true, "_Bool": true, "_Complex": true,
	"_Imaginary": true,
	// C++ additions
	"class": true, "namespace": true, "public": true, "private": true, "protected": true,
	"template": true, "typename": true, "virtual": true, "new": true, "delete": true,
	"try": true, "catch": true, "throw": true, "using": true, "operator": true,
	"explicit": true, "friend": true, "mutable": true, "this": true,
}

// typeWords are treated as preceding-type leaders for the "Definition if
// previous token is a type word" rule.
var typeWords = map[string]bool{
	"int": true, "char": true, "short": true, "long": true, "float": true,
	"double": true, "void": true, "unsigned": true, "signed": true,
	"const": true, "static": true, "struct": true, "enum": true, "union": true,
	"auto": true, "bool": true, "size_t": true,
}

// leaderWords introduce a struct/union/enum-style definition when followed
// by "{".
var leaderWords = map[string]bool{"enum": true, "struct": true, "union": true}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type scanner struct {
	src    []byte
	offset int
	line   int
	col    int
}

func (s *scanner) eof() bool { return s.offset >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.offset]
}

func (s *scanner) peekAt(n int) byte {
	if s.offset+n >= len(s.src) {
		return 0
	}
	return s.src[s.offset+n]
}

// eatOne advances one byte, tracking line/col the way eat_one/eat_eol do.
func (s *scanner) eatOne() {
	if s.eof() {
		return
	}
	if s.src[s.offset] == '\n' {
		s.line++
		s.col = 1
		s.offset++
		return
	}
	s.col++
	s.offset++
}

func (s *scanner) eatWhile(pred func(byte) bool) {
	for !s.eof() && pred(s.peek()) {
		s.eatOne()
	}
}

// Parse scans content as C/C++ source, emitting Definition, FunctionCall, and
// Reference symbols per §4.3.3's heuristics.
func Parse(path string, content []byte, emit func(symbol.Symbol) error) error {
	s := &scanner{src: content, line: 1, col: 1}

	braceDepth := 0
	parenDepth := 0
	var parent string
	var prevToken string
	var prevWasType bool

	for !s.eof() {
		c := s.peek()

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.eatOne()
			continue

		case c == '/' && s.peekAt(1) == '/':
			for !s.eof() && s.peek() != '\n' {
				s.eatOne()
			}
			continue

		case c == '/' && s.peekAt(1) == '*':
			s.eatOne()
			s.eatOne()
			for !s.eof() && !(s.peek() == '*' && s.peekAt(1) == '/') {
				s.eatOne()
			}
			if !s.eof() {
				s.eatOne()
				s.eatOne()
			}
			continue

		case c == '"':
			drainLiteral(s, '"')
			continue

		case c == '\'':
			drainLiteral(s, '\'')
			continue

		case c == '{':
			braceDepth++
			prevToken, prevWasType = "", false
			s.eatOne()
			continue

		case c == '}':
			if braceDepth > 0 {
				braceDepth--
			}
			if braceDepth == 0 {
				parent = ""
			}
			prevToken, prevWasType = "", false
			s.eatOne()
			continue

		case c == '(':
			parenDepth++
			prevToken, prevWasType = "", false
			s.eatOne()
			continue

		case c == ')':
			if parenDepth > 0 {
				parenDepth--
			}
			prevToken, prevWasType = "", false
			s.eatOne()
			continue

		case isIdentStart(c):
			line, col := s.line, s.col
			start := s.offset
			s.eatWhile(isIdentCont)
			tok := string(s.src[start:s.offset])

			if keywords[tok] {
				prevToken = tok
				prevWasType = typeWords[tok]
				continue
			}

			nextNonSpace := peekNonSpace(s)

			switch {
			case leaderWords[prevToken] && nextNonSpace == '{':
				if err := emit(symbol.Symbol{Category: symbol.Definition, Name: tok, Path: path, Line: line, Col: col, Parent: parent}); err != nil {
					return err
				}

			case prevWasType && !typeWords[tok]:
				if err := emit(symbol.Symbol{Category: symbol.Definition, Name: tok, Path: path, Line: line, Col: col, Parent: parent}); err != nil {
					return err
				}
				if braceDepth == 0 && nextNonSpace == '(' {
					parent = tok
				}

			case braceDepth > 0 && nextNonSpace == '(':
				if err := emit(symbol.Symbol{Category: symbol.FunctionCall, Name: tok, Path: path, Line: line, Col: col, Parent: parent}); err != nil {
					return err
				}

			default:
				if err := emit(symbol.Symbol{Category: symbol.Reference, Name: tok, Path: path, Line: line, Col: col, Parent: parent}); err != nil {
					return err
				}
			}

			prevToken = tok
			prevWasType = typeWords[tok]
			continue

		default:
			s.eatOne()
		}
	}
	return nil
}

// drainLiteral consumes a string or character literal starting at the
// opening quote, recognising only the standard \\, \", \' escapes.
func drainLiteral(s *scanner, quote byte) {
	s.eatOne() // opening quote
	for !s.eof() {
		c := s.peek()
		if c == '\\' {
			s.eatOne()
			if !s.eof() {
				s.eatOne()
			}
			continue
		}
		if c == quote {
			s.eatOne()
			return
		}
		if c == '\n' {
			return
		}
		s.eatOne()
	}
}

func peekNonSpace(s *scanner) byte {
	off := s.offset
	for off < len(s.src) {
		c := s.src[off]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			off++
			continue
		}
		return c
	}
	return 0
}
