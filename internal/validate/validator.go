// Package validate checks records against the fixed Record schema. It is
// the acceptance gate every strategy passes before returning a record.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ppiankov/assignparse/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "assignment.json"

// Validator validates records against the compiled schema. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	schema     *jsonschema.Schema
	maxWorkers int
}

// NewValidator compiles the Record schema.
func NewValidator() (*Validator, error) {
	b, err := json.Marshal(RecordSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema, maxWorkers: 8}, nil
}

// MustNewValidator is NewValidator for package-level initialization.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate reports whether rec conforms to the schema, with the first
// violation as message.
func (v *Validator) Validate(rec *model.Record) (bool, string) {
	if rec == nil {
		return false, "record is nil"
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Sprintf("marshal record: %v", err)
	}
	return v.ValidateJSON(data)
}

// ValidateJSON validates raw JSON against the schema.
func (v *Validator) ValidateJSON(data []byte) (bool, string) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return false, describe(err)
	}
	return true, ""
}

// Check is Validate returning a ValidationError on rejection.
func (v *Validator) Check(op string, rec *model.Record) error {
	if ok, msg := v.Validate(rec); !ok {
		return model.ValidationError(op, msg)
	}
	return nil
}

// describe reduces a schema error to its most specific cause.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, strings.TrimSpace(ve.Message))
}

// FileResult is the outcome of validating one JSON file
type FileResult struct {
	Path    string
	Valid   bool
	Message string
}

// ValidateFiles validates JSON record files concurrently, bounded by a
// semaphore. Results keep the order of paths.
func (v *Validator) ValidateFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, p := range paths {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = FileResult{Path: path, Message: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			data, err := os.ReadFile(path)
			if err != nil {
				results[idx] = FileResult{Path: path, Message: fmt.Sprintf("read file: %v", err)}
				return
			}
			ok, msg := v.ValidateJSON(data)
			results[idx] = FileResult{Path: path, Valid: ok, Message: msg}
		}(i, p)
	}

	wg.Wait()
	return results
}
