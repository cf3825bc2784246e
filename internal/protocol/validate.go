package protocol

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments checks the arguments against the tool's input schema.
// A tool without a schema accepts any arguments.
func ValidateArguments(tool Tool, args Arguments) error {
	if len(tool.InputSchema) == 0 {
		return nil
	}

	doc, err := args.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal arguments for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(tool.InputSchema)
	docLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("failed to validate arguments for tool '%s': %w", tool.Name, err)
	}

	if !result.Valid() {
		errs := result.Errors()
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid arguments for tool '%s': %v", tool.Name, msgs)
	}

	return nil
}
