package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"

	"github.com/chris/shopbot/internal/llm"
)

type Catalog interface {
	Products(ctx context.Context) (json.RawMessage, error)
	Product(ctx context.Context, id string) (json.RawMessage, error)
	ProductsByCategory(ctx context.Context, category string) (json.RawMessage, error)
	AddProduct(ctx context.Context, title, category string) (json.RawMessage, error)
}

type CategoryResolver interface {
	Resolve(ctx context.Context, userCategory string) string
}

// Executor runs one tool call against the catalog.
type Executor struct {
	registry *Registry
	catalog  Catalog
	resolver CategoryResolver
}

func NewExecutor(registry *Registry, catalog Catalog, resolver CategoryResolver) *Executor {
	return &Executor{registry: registry, catalog: catalog, resolver: resolver}
}

type handler func(e *Executor, ctx context.Context, params map[string]any) (json.RawMessage, error)

// handlers is the closed set of executable tools; it must match definitions.
var handlers = map[string]handler{
	GetAllProducts:        (*Executor).getAllProducts,
	GetProductByID:        (*Executor).getProductByID,
	GetProductsByCategory: (*Executor).getProductsByCategory,
	AddProduct:            (*Executor).addProduct,
}

// Execute validates call against the registry and dispatches it by name.
// Names outside the registry fail with ErrUnknownTool.
func (e *Executor) Execute(ctx context.Context, call llm.ToolCall) (json.RawMessage, error) {
	h, ok := handlers[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	if err := e.registry.Validate(call.Name, call.Params); err != nil {
		return nil, err
	}
	return h(e, ctx, call.Params)
}

func (e *Executor) getAllProducts(ctx context.Context, _ map[string]any) (json.RawMessage, error) {
	return e.catalog.Products(ctx)
}

func (e *Executor) getProductByID(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	var args productByIDArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	return e.catalog.Product(ctx, strconv.FormatFloat(args.ID, 'f', -1, 64))
}

// getProductsByCategory returns only the first product of the listing; the
// answer turn presents a single product. Without one it returns the listing.
func (e *Executor) getProductsByCategory(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	var args categoryArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	category := e.resolver.Resolve(ctx, args.Category)
	listing, err := e.catalog.ProductsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if products := gjson.GetBytes(listing, "products"); products.IsArray() {
		if top := products.Get("0"); top.Exists() && top.Type != gjson.Null {
			return json.RawMessage(top.Raw), nil
		}
	}
	return listing, nil
}

func (e *Executor) addProduct(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	var args addProductArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	return e.catalog.AddProduct(ctx, args.Title, e.resolver.Resolve(ctx, args.Category))
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
