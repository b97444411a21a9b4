// Package clinkconfig loads and validates Clink's project configuration
// file, `.clink.jsonc`: scan roots, ignore globs, worker count, and
// highlighter/parser strategy selection. Modelled on the teacher's
// internal/config (JSONC decoding via github.com/muhammadmuzzammil1998/jsonc,
// schema validation via github.com/santhosh-tekuri/jsonschema/v6), replacing
// its curated palace.jsonc/Guardrails/rooms surface with Clink's own.
package clinkconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/smattr/clink/internal/clinkconfig/schema"
	"github.com/smattr/clink/internal/clinkerr"
)

// FileName is the configuration file Clink looks for at the top of a scan
// root.
const FileName = ".clink.jsonc"

// Config is the decoded, defaulted contents of .clink.jsonc.
type Config struct {
	SchemaVersion string   `json:"schemaVersion"`
	Roots         []string `json:"roots"`
	IgnoreGlobs   []string `json:"ignoreGlobs"`
	Jobs          int      `json:"jobs"`
	Highlighter   string   `json:"highlighter"`
	UseFuzzyC     bool     `json:"useFuzzyC"`
	UseCscope     bool     `json:"useCscope"`
}

// defaultIgnoreGlobs excludes the directories a C/C++ tree almost always
// wants skipped: VCS metadata and common build/vendor output.
var defaultIgnoreGlobs = []string{
	".git/**",
	"**/.git/**",
	"build/**",
	"**/build/**",
	"vendor/**",
	"**/vendor/**",
}

// Load reads and validates root's .clink.jsonc. A missing file is not an
// error: Load returns a Config defaulted to scanning root itself.
func Load(root string) (Config, error) {
	path := filepath.Join(root, FileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{Roots: []string{root}, IgnoreGlobs: defaultIgnoreGlobs, Highlighter: "html"}, nil
	}

	var generic any
	clean, err := decodeJSONC(path, &generic)
	if err != nil {
		return Config{}, err
	}
	if err := schema.Validate(generic); err != nil {
		return Config{}, clinkerr.Errorf(clinkerr.InvalidArgument, "%s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(clean, &cfg); err != nil {
		return Config{}, clinkerr.Errorf(clinkerr.InvalidArgument, "parse %s: %w", path, err)
	}

	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{root}
	}
	if cfg.Highlighter == "" {
		cfg.Highlighter = "html"
	}
	cfg.IgnoreGlobs = mergeGlobs(defaultIgnoreGlobs, cfg.IgnoreGlobs)

	return cfg, nil
}

// mergeGlobs combines defaults with user-supplied globs, dropping
// duplicates while preserving the defaults-first ordering.
func mergeGlobs(defaults, user []string) []string {
	seen := make(map[string]bool, len(defaults)+len(user))
	var merged []string
	for _, g := range append(append([]string{}, defaults...), user...) {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		merged = append(merged, g)
	}
	return merged
}
