package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const envelopeSchema = `{
  "oneOf": [
    {"type": "array", "items": {"type": "object"}},
    {
      "type": "object",
      "required": ["data"],
      "properties": {
        "success": {"type": "boolean"},
        "data": {"type": "array", "items": {"type": "object"}}
      }
    }
  ]
}`

const rejectionSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {"success": {"const": false}}
}`

var (
	envelope  = mustCompile("envelope.json", envelopeSchema)
	rejection = mustCompile("rejection.json", rejectionSchema)
)

func mustCompile(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(url)
}

// rows extracts the record list of a decoded read payload: either
// {"success": true, "data": [...]} or a bare array.
func rows(doc any) ([]map[string]any, error) {
	if err := rejection.Validate(doc); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrRejected, message(doc))
	}
	if err := envelope.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: unexpected payload: %s", ErrRejected, schemaMessage(err))
	}

	var list []any
	switch t := doc.(type) {
	case []any:
		list = t
	case map[string]any:
		list, _ = t["data"].([]any)
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		out = append(out, item.(map[string]any))
	}
	return out, nil
}

func message(doc any) string {
	m, _ := doc.(map[string]any)
	for _, k := range []string{"error", "message"} {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return "success=false"
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	collect(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collect(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collect(c, msgs)
	}
}
