package decoder

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*jsonschema.Schema{}
)

func compiled(name string) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[name]; ok {
		return s, nil
	}

	data, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %q: %w", name, err)
	}
	schemaCache[name] = schema
	return schema, nil
}

func validate(name string, doc any) error {
	schema, err := compiled(name)
	if err != nil {
		return err
	}

	result := schema.Validate(doc)
	if result.IsValid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors))
	for field, evalErr := range result.Errors {
		violations = append(violations, fmt.Sprintf("%s: %s", field, evalErr.Error()))
	}
	if len(violations) == 0 {
		violations = append(violations, "document does not match schema")
	}
	sort.Strings(violations)
	return &ContractViolationError{Schema: name, Violations: violations}
}
