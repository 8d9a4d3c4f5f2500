package cache

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed cache.schema.json
var schemaJSON []byte

const schemaURL = "https://articlesync.dev/schemas/cache.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	errSchema      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			errSchema = fmt.Errorf("failed to parse cache schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			errSchema = fmt.Errorf("failed to add cache schema: %w", err)
			return
		}
		compiledSchema, errSchema = c.Compile(schemaURL)
	})
	return compiledSchema, errSchema
}

// Validate checks a decoded JSON document against the cache schema. Both the
// current and the legacy layout are accepted.
func Validate(data []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("cache is not valid JSON: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("cache does not match schema: %w", err)
	}
	return nil
}
