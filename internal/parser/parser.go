// Package parser is the dispatch layer over Clink's parser family: pick the
// right parser for a file extension and run it, producing a stream of
// categorised Symbols. Modeled on the teacher's internal/analysis registry
// (Parser interface + ParserRegistry + package-level Analyze), generalised
// from a language-detection dispatch to Clink's extension-based one.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/smattr/clink/internal/asmparser"
	"github.com/smattr/clink/internal/cparser"
	"github.com/smattr/clink/internal/cscopeparser"
	"github.com/smattr/clink/internal/fuzzycparser"
	"github.com/smattr/clink/internal/genericparser"
	"github.com/smattr/clink/internal/symbol"
)

// Kind names which backend handled a file, for logging and tests.
type Kind string

const (
	KindCTreeSitter Kind = "c-tree-sitter"
	KindCPPTreeSitter Kind = "cpp-tree-sitter"
	KindFuzzyC      Kind = "fuzzy-c"
	KindAsm         Kind = "asm"
	KindCscope      Kind = "cscope"
	KindGeneric     Kind = "generic"
	KindNone        Kind = ""
)

// Options configures which backend the registry picks for C/C++ files, and
// whether the cscope-driven fallback (§4.3.4) may be used.
type Options struct {
	// UseFuzzyC selects the §4.3.3 scanner instead of the tree-sitter parser
	// for .c/.h files (not .cpp/.hpp, which always use tree-sitter since the
	// fuzzy scanner does not model C++ declarator grammar).
	UseFuzzyC bool
	// UseCscope selects the cscope-driven parser (§4.3.4) for C/C++/asm
	// files when a cscope binary is available, overriding both of the above.
	UseCscope bool
}

// extensionKind maps a file extension, exactly as filepath.Ext returns it
// (case-sensitive), to the Kind that parses it by default.
var extensionKind = map[string]Kind{
	".c":   KindCTreeSitter,
	".h":   KindCTreeSitter,
	".cpp": KindCPPTreeSitter,
	".cc":  KindCPPTreeSitter,
	".cxx": KindCPPTreeSitter,
	".hpp": KindCPPTreeSitter,
	".hh":  KindCPPTreeSitter,
	".s":   KindAsm,
	".S":   KindAsm,
	".asm": KindAsm,
	".py":  KindGeneric,
	".def": KindGeneric,
	".td":  KindGeneric, // TableGen
	".pp":  KindGeneric, // standalone C-preprocessor text
}

// genericLanguages maps an extension handled by KindGeneric to its Language.
var genericLanguages = map[string]genericparser.Language{
	".py":  genericparser.Python(),
	".def": genericparser.ModuleDefinition(),
	".td":  genericparser.CPreprocessorText(),
	".pp":  genericparser.CPreprocessorText(),
}

// KindFor reports which parser would handle path under opts.
func KindFor(path string, opts Options) Kind {
	ext := filepath.Ext(path)
	kind, ok := extensionKind[ext]
	if !ok {
		return KindNone
	}
	if opts.UseCscope && (kind == KindCTreeSitter || kind == KindCPPTreeSitter || kind == KindAsm) && cscopeparser.Available() {
		return KindCscope
	}
	if opts.UseFuzzyC && kind == KindCTreeSitter {
		return KindFuzzyC
	}
	return kind
}

// Parse runs the appropriate parser for path (whose extension selects the
// backend) over content, invoking emit for every Symbol produced.
func Parse(ctx context.Context, path string, content []byte, opts Options, emit func(symbol.Symbol) error) (Kind, error) {
	kind := KindFor(path, opts)

	switch kind {
	case KindCTreeSitter:
		return kind, cparser.New(cparser.DialectC).Parse(path, content, emit)
	case KindCPPTreeSitter:
		return kind, cparser.New(cparser.DialectCPP).Parse(path, content, emit)
	case KindFuzzyC:
		return kind, fuzzycparser.Parse(path, content, emit)
	case KindAsm:
		return kind, asmparser.Parse(path, strings.NewReader(string(content)), emit)
	case KindCscope:
		return kind, cscopeparser.Parse(ctx, path, emit)
	case KindGeneric:
		lang := genericLanguages[filepath.Ext(path)]
		return kind, genericparser.Parse(lang, path, content, emit)
	default:
		return KindNone, nil
	}
}
