package userinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator checks a user info configuration document (search id,
// container id, messages, splunk endpoint) against a widget definition.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config map[string]any) error
}

// ConfigProblem is one schema violation, addressed by JSON pointer into the
// configuration document (for example "/splunk/base_url").
type ConfigProblem struct {
	Path    string
	Message string
}

// ConfigError lists every violation found in a configuration document.
type ConfigError struct {
	Widget   string
	Problems []ConfigProblem
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Path + ": " + p.Message
	}
	return fmt.Sprintf("userinfo: invalid configuration for %s: %s", e.Widget, strings.Join(parts, "; "))
}

// JSONSchemaValidator validates documents with jsonschema v5. Schemas are
// compiled on first use and kept per widget code.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate returns a *ConfigError when config violates def.Schema. A
// definition without a schema accepts any document.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	doc, err := normalizeJSON(config)
	if err != nil {
		return fmt.Errorf("userinfo: normalize config for %s: %w", def.Code, err)
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("userinfo: validate config for %s: %w", def.Code, err)
	}
	return &ConfigError{Widget: def.Code, Problems: configProblems(verr)}
}

// configProblems flattens the validation tree to its leaf causes.
func configProblems(verr *jsonschema.ValidationError) []ConfigProblem {
	var problems []ConfigProblem
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := e.InstanceLocation
			if path == "" {
				path = "/"
			}
			problems = append(problems, ConfigProblem{Path: path, Message: e.Message})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Path < problems[j].Path })
	return problems
}

func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Code]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}

	raw, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("userinfo: marshal schema %s: %w", def.Code, err)
	}
	url := "mem://userinfo/" + def.Code + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("userinfo: load schema %s: %w", def.Code, err)
	}
	schema, err = compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("userinfo: compile schema %s: %w", def.Code, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if existing, ok := v.compiled[def.Code]; ok {
		return existing, nil
	}
	v.compiled[def.Code] = schema
	return schema, nil
}

// normalizeJSON turns a Config or decoded document into plain JSON values
// (float64, []any, map[string]any) as the schema validator expects.
func normalizeJSON(value any) (map[string]any, error) {
	doc := map[string]any{}
	if value == nil {
		return doc, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
