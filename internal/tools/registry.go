// Package tools declares the catalog actions offered to the model and
// executes the calls it sends back.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/chris/shopbot/internal/llm"
)

const (
	GetAllProducts        = "getAllProducts"
	GetProductByID        = "getProductById"
	GetProductsByCategory = "getProductsByCategory"
	AddProduct            = "addProduct"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Argument shapes offered to the model.
type (
	noArgs struct{}

	productByIDArgs struct {
		ID float64 `json:"id" jsonschema:"required,description=Product ID"`
	}

	categoryArgs struct {
		Category string `json:"category" jsonschema:"required,description=Product category"`
	}

	addProductArgs struct {
		Title    string `json:"title" jsonschema:"required,description=Product title"`
		Category string `json:"category" jsonschema:"required,description=Product category"`
	}
)

type definition struct {
	name        string
	description string
	args        any
	// resolved names arguments the handler defaults itself when missing or
	// null, so validation lets them through.
	resolved []string
}

var definitions = []definition{
	{GetAllProducts, "Fetches all products from the catalog", noArgs{}, nil},
	{GetProductByID, "Fetches a specific product by ID from the catalog", productByIDArgs{}, nil},
	{GetProductsByCategory, "Fetches products in a specific category from the catalog", categoryArgs{}, []string{"category"}},
	{AddProduct, "Adds a new product to the catalog", addProductArgs{}, []string{"category"}},
}

// numericString matches what decode turns into a number.
const numericString = `^-?[0-9]+(\.[0-9]+)?$`

// Registry is the fixed, read-only set of tools offered on every first turn.
type Registry struct {
	tools   []llm.Tool
	schemas map[string]*gojsonschema.Schema
}

func NewRegistry() (*Registry, error) {
	r := &Registry{schemas: make(map[string]*gojsonschema.Schema, len(definitions))}
	for _, d := range definitions {
		params, err := parametersFor(d.args)
		if err != nil {
			return nil, fmt.Errorf("building schema for %s: %w", d.name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(validationSchema(params, d.resolved)))
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", d.name, err)
		}
		r.tools = append(r.tools, llm.Tool{Name: d.name, Description: d.description, Parameters: params})
		r.schemas[d.name] = schema
	}
	return r, nil
}

// Tools returns the tool specs in declaration order.
func (r *Registry) Tools() []llm.Tool {
	out := make([]llm.Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

func (r *Registry) Lookup(name string) (llm.Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return llm.Tool{}, false
}

// Validate checks params against the schema offered for name, loosened the
// way the handlers read them: resolved arguments may be missing or null and
// numbers may arrive as numeric strings.
func (r *Registry) Validate(name string, params map[string]any) error {
	schema, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if params == nil {
		params = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("validating %s arguments: %w", name, err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w for %s: %s", ErrInvalidArguments, name, strings.Join(problems, "; "))
	}
	return nil
}

// parametersFor reflects an argument struct into a plain JSON Schema object.
func parametersFor(args any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	b, err := json.Marshal(reflector.Reflect(args))
	if err != nil {
		return nil, err
	}
	var reflected map[string]any
	if err := json.Unmarshal(b, &reflected); err != nil {
		return nil, err
	}

	properties, _ := reflected["properties"].(map[string]any)
	if properties == nil {
		properties = map[string]any{}
	}
	params := map[string]any{"type": "object", "properties": properties}
	if required, ok := reflected["required"].([]any); ok && len(required) > 0 {
		params["required"] = required
	}
	return params, nil
}

// validationSchema copies params with resolved arguments made optional and
// nullable, and number properties widened to numeric strings.
func validationSchema(params map[string]any, resolved []string) map[string]any {
	optional := make(map[string]bool, len(resolved))
	for _, name := range resolved {
		optional[name] = true
	}

	properties := map[string]any{}
	src, _ := params["properties"].(map[string]any)
	for name, raw := range src {
		prop, ok := raw.(map[string]any)
		if !ok {
			properties[name] = raw
			continue
		}
		loose := make(map[string]any, len(prop))
		for k, v := range prop {
			loose[k] = v
		}
		switch {
		case optional[name]:
			loose["type"] = []any{prop["type"], "null"}
		case prop["type"] == "number" || prop["type"] == "integer":
			delete(loose, "type")
			loose["anyOf"] = []any{
				map[string]any{"type": prop["type"]},
				map[string]any{"type": "string", "pattern": numericString},
			}
		}
		properties[name] = loose
	}

	out := map[string]any{"type": "object", "properties": properties}
	if required, ok := params["required"].([]any); ok {
		var keep []any
		for _, name := range required {
			if n, _ := name.(string); !optional[n] {
				keep = append(keep, name)
			}
		}
		if len(keep) > 0 {
			out["required"] = keep
		}
	}
	return out
}
