package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"infospace/internal/domain/entity"
)

// compileOutputContract compiles an AnnotationSchema's OutputContract (an
// open entity.Metadata map holding a JSON schema document) into a reusable
// validator. Grounded on the goa-ai registry's resource-compile-validate
// sequence: round-trip the map through its JSON encoding so the compiler
// sees plain `any` values rather than Go's typed Metadata map.
func compileOutputContract(contract entity.Metadata) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(contract)
	if err != nil {
		return nil, fmt.Errorf("marshal output_contract: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal output_contract: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("output_contract.json", doc); err != nil {
		return nil, fmt.Errorf("add output_contract resource: %w", err)
	}
	schema, err := c.Compile("output_contract.json")
	if err != nil {
		return nil, fmt.Errorf("compile output_contract: %w", err)
	}
	return schema, nil
}

// validateValue checks a candidate annotation value against a compiled
// schema (spec §8: "∀ Annotation A: A.value validates against
// A.schema.output_contract").
func validateValue(schema *jsonschema.Schema, value entity.Metadata) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal annotation value: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal annotation value: %w", err)
	}

	return schema.Validate(doc)
}

// ValidateOutputContract reports whether contract compiles as a JSON
// schema, exported so usecase/schema can reject a malformed contract at
// creation time rather than waiting for the first Execute to fail.
func ValidateOutputContract(contract entity.Metadata) error {
	_, err := compileOutputContract(contract)
	return err
}
