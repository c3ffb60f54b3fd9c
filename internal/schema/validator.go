// Package schema validates EVDS JSON documents against the record shapes the
// client depends on, so malformed payloads fail before they are decoded.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Known schema names.
const (
	Category     = "category"
	Datagroup    = "datagroup"
	Series       = "series"
	Observations = "observations"
)

//go:embed schemas/*.yaml
var schemaFiles embed.FS

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// String joins the validation errors into one line.
func (r *Result) String() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Path+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

var (
	registry   = make(map[string]*gojsonschema.Schema)
	loadErrors = make(map[string]error)
)

func init() {
	for _, name := range []string{Category, Datagroup, Series, Observations} {
		s, err := compile("schemas/" + name + ".yaml")
		if err != nil {
			loadErrors[name] = err
			continue
		}
		registry[name] = s
	}
}

// compile converts a YAML schema to JSON and compiles it.
func compile(path string) (*gojsonschema.Schema, error) {
	schemaBytes, err := schemaFiles.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var schemaData interface{}
	if err := yaml.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return s, nil
}

// Validate validates data against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	s, ok := registry[schemaName]
	if !ok {
		if err, failed := loadErrors[schemaName]; failed {
			return nil, err
		}
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	if !result.Valid() {
		for _, verr := range result.Errors() {
			field := verr.Field()
			if field == "" || field == "(root)" {
				field = "root"
			}
			res.Errors = append(res.Errors, ValidationError{
				Path:    field,
				Message: verr.Description(),
			})
		}
	}
	return res, nil
}

// Check validates data and returns an error describing every violation.
func Check(data interface{}, schemaName string) error {
	res, err := Validate(data, schemaName)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("%s: %s", schemaName, res.String())
	}
	return nil
}

// CheckEach validates every element of items against the named schema.
func CheckEach(items []interface{}, schemaName string) error {
	for i, item := range items {
		if err := Check(item, schemaName); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
