// Package genericparser is §4.3.5's parameterised keyword/identifier parser,
// shared by languages that are close enough to C for the §4.3.3 scanner
// approach but differ in keywords, definition leaders, or comment/string
// delimiters: TableGen, Python, Module-Definition files, and standalone
// C-preprocessor text.
package genericparser

import (
	"github.com/smattr/clink/internal/symbol"
)

// Delimiter describes one comment or string span: Open/Close bracket the
// span, Escapes says whether a backslash escapes the next character inside it.
type Delimiter struct {
	Open    string
	Close   string
	Escapes bool
}

// Language parameterises the scanner: the identifier predicate defaults to
// [A-Za-z_][A-Za-z0-9_]* when IsIdentStart/IsIdentCont are nil.
type Language struct {
	IsIdentStart     func(byte) bool
	IsIdentCont      func(byte) bool
	Keywords         map[string]bool
	DefinitionLeaders map[string]bool
	Delimiters       []Delimiter
}

func defaultIsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func defaultIsIdentCont(c byte) bool {
	return defaultIsIdentStart(c) || (c >= '0' && c <= '9')
}

// Python is a ready-made Language for Python source.
func Python() Language {
	return Language{
		Keywords: stringSet(
			"False", "None", "True", "and", "as", "assert", "async", "await",
			"break", "class", "continue", "def", "del", "elif", "else", "except",
			"finally", "for", "from", "global", "if", "import", "in", "is",
			"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
			"while", "with", "yield",
		),
		DefinitionLeaders: stringSet("def", "class"),
		Delimiters: []Delimiter{
			{Open: "#", Close: "\n"},
			{Open: `"""`, Close: `"""`, Escapes: true},
			{Open: "'''", Close: "'''", Escapes: true},
			{Open: `"`, Close: `"`, Escapes: true},
			{Open: "'", Close: "'", Escapes: true},
		},
	}
}

// ModuleDefinition is a ready-made Language for Windows .def module-definition
// files: LIBRARY is the definition leader (EXPORTS and the other section
// words are plain keywords), ; line comments.
func ModuleDefinition() Language {
	return Language{
		Keywords:          stringSet("LIBRARY", "EXPORTS", "DATA", "PRIVATE", "NONAME"),
		DefinitionLeaders: stringSet("LIBRARY"),
		Delimiters:        []Delimiter{{Open: ";", Close: "\n"}},
	}
}

// CPreprocessorText is a ready-made Language for standalone preprocessor
// text (no surrounding C grammar): #define introduces a Definition.
func CPreprocessorText() Language {
	return Language{
		Keywords:          stringSet("define", "include", "ifdef", "ifndef", "endif", "else", "elif", "undef", "pragma"),
		DefinitionLeaders: stringSet("define"),
		Delimiters: []Delimiter{
			{Open: "//", Close: "\n"},
			{Open: "/*", Close: "*/"},
			{Open: `"`, Close: `"`, Escapes: true},
		},
	}
}

func stringSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Parse tokenises content per lang's rules: the token immediately following
// any definition-leader word is a Definition; every other non-keyword
// identifier is a Reference; delimiter spans are drained literally.
func Parse(lang Language, path string, content []byte, emit func(symbol.Symbol) error) error {
	isStart := lang.IsIdentStart
	if isStart == nil {
		isStart = defaultIsIdentStart
	}
	isCont := lang.IsIdentCont
	if isCont == nil {
		isCont = defaultIsIdentCont
	}

	line, col := 1, 1
	offset := 0
	size := len(content)
	prevLeader := false

	step := func() {
		if offset >= size {
			return
		}
		if content[offset] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		offset++
	}

	for offset < size {
		c := content[offset]

		if matched, delim := matchDelimiter(content, offset, lang.Delimiters); matched {
			skip := len(delim.Open)
			for i := 0; i < skip; i++ {
				step()
			}
			for offset < size {
				if len(delim.Close) > 0 && hasPrefixAt(content, offset, delim.Close) {
					for i := 0; i < len(delim.Close); i++ {
						step()
					}
					break
				}
				if delim.Escapes && content[offset] == '\\' && offset+1 < size {
					step()
					step()
					continue
				}
				if delim.Close == "\n" && content[offset] == '\n' {
					step()
					break
				}
				step()
			}
			continue
		}

		if isStart(c) {
			startOffset := line
			startCol := col
			begin := offset
			for offset < size && isCont(content[offset]) {
				step()
			}
			tok := string(content[begin:offset])

			if lang.Keywords[tok] {
				prevLeader = lang.DefinitionLeaders[tok]
				continue
			}

			if prevLeader {
				if err := emit(symbol.Symbol{Category: symbol.Definition, Name: tok, Path: path, Line: startOffset, Col: startCol}); err != nil {
					return err
				}
			} else {
				if err := emit(symbol.Symbol{Category: symbol.Reference, Name: tok, Path: path, Line: startOffset, Col: startCol}); err != nil {
					return err
				}
			}
			prevLeader = false
			continue
		}

		// blanks between a leader word and its name on the same line keep
		// the leader pending; any other character clears it
		if c != ' ' && c != '\t' {
			prevLeader = false
		}
		step()
	}
	return nil
}

func hasPrefixAt(content []byte, offset int, prefix string) bool {
	if offset+len(prefix) > len(content) {
		return false
	}
	return string(content[offset:offset+len(prefix)]) == prefix
}

func matchDelimiter(content []byte, offset int, delims []Delimiter) (bool, Delimiter) {
	for _, d := range delims {
		if hasPrefixAt(content, offset, d.Open) {
			return true, d
		}
	}
	return false, Delimiter{}
}
