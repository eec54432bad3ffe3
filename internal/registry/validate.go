package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/entry.schema.json
var entrySchemaBytes []byte

var (
	entrySchema     *jsonschema.Schema
	entrySchemaOnce sync.Once
	entrySchemaErr  error
	printer         = message.NewPrinter(language.English)
)

// ErrEmptyPayload is returned when a snapshot holds no entries.
var ErrEmptyPayload = errors.New("registry payload is empty")

// ValidationIssue is a single schema violation inside one element.
type ValidationIssue struct {
	Path    string // instance location, e.g. "/slug"
	Message string
}

// ValidationError describes why one snapshot element was rejected.
type ValidationError struct {
	Index  int
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path != "" {
			msgs = append(msgs, issue.Path+": "+issue.Message)
		} else {
			msgs = append(msgs, issue.Message)
		}
	}
	return fmt.Sprintf("entry %d: %s", e.Index, strings.Join(msgs, "; "))
}

// Result is the typed outcome of validating one snapshot element: exactly
// one of Entry or Err is set.
type Result struct {
	Entry *Entry
	Err   *ValidationError
}

// OK reports whether the element passed validation.
func (r Result) OK() bool { return r.Err == nil && r.Entry != nil }

func getEntrySchema() (*jsonschema.Schema, error) {
	entrySchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(entrySchemaBytes))
		if err != nil {
			entrySchemaErr = fmt.Errorf("unmarshaling entry schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("entry.schema.json", doc); err != nil {
			entrySchemaErr = fmt.Errorf("adding entry schema resource: %w", err)
			return
		}
		entrySchema, entrySchemaErr = c.Compile("entry.schema.json")
		if entrySchemaErr != nil {
			entrySchemaErr = fmt.Errorf("compiling entry schema: %w", entrySchemaErr)
		}
	})
	return entrySchema, entrySchemaErr
}

// Validate checks every element of a JSON array snapshot against the entry
// schema. The error return is reserved for payloads that are not a JSON array
// or a schema that fails to compile; element problems are reported per Result.
// A slug that repeats an earlier element's slug is an element error.
func Validate(data []byte) ([]Result, error) {
	schema, err := getEntrySchema()
	if err != nil {
		return nil, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("registry payload is not a JSON array: %w", err)
	}

	results := make([]Result, 0, len(elements))
	seen := make(map[string]int, len(elements))
	for i, raw := range elements {
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			results = append(results, Result{Err: &ValidationError{Index: i, Issues: []ValidationIssue{{Message: err.Error()}}}})
			continue
		}
		if err := schema.Validate(inst); err != nil {
			results = append(results, Result{Err: &ValidationError{Index: i, Issues: issuesFrom(err)}})
			continue
		}

		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			results = append(results, Result{Err: &ValidationError{Index: i, Issues: []ValidationIssue{{Message: err.Error()}}}})
			continue
		}
		if prev, dup := seen[e.Slug]; dup {
			results = append(results, Result{Err: &ValidationError{Index: i, Issues: []ValidationIssue{{
				Path:    "/slug",
				Message: fmt.Sprintf("duplicate slug %q (first seen at entry %d)", e.Slug, prev),
			}}}})
			continue
		}
		seen[e.Slug] = i
		results = append(results, Result{Entry: &e})
	}
	return results, nil
}

// Accept returns the entries of a validated snapshot if, and only if, the
// snapshot is non-empty and every element is valid. Unknown categories are
// normalized to "other".
func Accept(results []Result) ([]Entry, error) {
	if len(results) == 0 {
		return nil, ErrEmptyPayload
	}
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		e := *r.Entry
		if !IsCategory(e.Category) {
			e.Category = CategoryOther
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Parse validates and accepts a raw snapshot in one step.
func Parse(data []byte) ([]Entry, error) {
	results, err := Validate(data)
	if err != nil {
		return nil, err
	}
	return Accept(results)
}

func issuesFrom(err error) []ValidationIssue {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []ValidationIssue{{Message: err.Error()}}
	}
	var issues []ValidationIssue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return issues
}

// collectIssues walks the error tree and keeps leaf errors.
func collectIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		msg := ve.Error()
		if ve.ErrorKind != nil {
			msg = ve.ErrorKind.LocalizedString(printer)
		}
		*issues = append(*issues, ValidationIssue{Path: path, Message: msg})
		return
	}
	for _, cause := range ve.Causes {
		collectIssues(cause, issues)
	}
}
