package record

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Preflight checks a decoded reply against the response schema the model was
// asked to honor. It is diagnostic only: callers log the returned error and
// proceed, since the per-field normalizer absorbs every deviation anyway.
func Preflight(responseSchema map[string]any, reply any) error {
	doc, err := json.Marshal(responseSchema)
	if err != nil {
		return fmt.Errorf("marshal response schema: %w", err)
	}

	compiled, err := jsonschema.CompileString("response.schema.json", string(doc))
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}

	if err := compiled.Validate(reply); err != nil {
		return fmt.Errorf("reply deviates from response schema: %w", err)
	}
	return nil
}
