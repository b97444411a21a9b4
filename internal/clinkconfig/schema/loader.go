// Package schema compiles and exposes Clink's project-configuration JSON
// schema, embedded at build time, mirroring the teacher's apps/cli/schemas
// loader: a sync.Once-guarded jsonschema.Compiler built from an embedded
// .schema.json resource.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed clink.schema.json
var schemaFS embed.FS

const (
	schemaFile = "clink.schema.json"
	schemaURL  = "mem://schemas/clink.schema.json"
)

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Compile returns the compiled configuration schema, compiling it once and
// caching the result.
func Compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile(schemaFile)
		if err != nil {
			compileErr = fmt.Errorf("read schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("decode schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register schema: %w", err)
			return
		}
		s, err := c.Compile(schemaURL)
		if err != nil {
			compileErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiled = s
	})
	return compiled, compileErr
}

// Validate checks doc (already decoded to Go values, e.g. via
// jsonschema.UnmarshalJSON or a map[string]any from encoding/json) against
// the configuration schema.
func Validate(doc any) error {
	s, err := Compile()
	if err != nil {
		return err
	}
	return s.Validate(doc)
}
