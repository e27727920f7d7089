// Package catalog talks to the product catalog service (dummyjson.com by
// default) and resolves free-form categories against its live category list.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the catalog at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Categories lists the catalog's categories in catalog order. Entries that
// are not strings are flattened by categoryName.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/products/categories")
	if err != nil {
		return nil, err
	}
	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		return nil, fmt.Errorf("listing categories: expected array, got %s", list.Type)
	}
	var names []string
	list.ForEach(func(_, v gjson.Result) bool {
		names = append(names, categoryName(v))
		return true
	})
	return names, nil
}

// Products returns the full product listing as sent by the catalog.
func (c *Client) Products(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/products")
}

// Product returns the catalog's answer for one product id, which may be a
// "not found" payload.
func (c *Client) Product(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/products/"+url.PathEscape(id))
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) (json.RawMessage, error) {
	return c.get(ctx, "/products/category/"+url.PathEscape(category))
}

// AddProduct posts {"title", "category"} to the creation endpoint.
func (c *Client) AddProduct(ctx context.Context, title, category string) (json.RawMessage, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "title", title)
	if err == nil {
		body, err = sjson.SetBytes(body, "category", category)
	}
	if err != nil {
		return nil, fmt.Errorf("building product body: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/products/add", body)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// do sends one request and returns the JSON body whatever the status code;
// the catalog reports misses as JSON payloads. A body that is not JSON is an
// error.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("%s %s: %s: response is not JSON", method, path, resp.Status)
	}
	return json.RawMessage(respBody), nil
}

// categoryName turns one entry of the category list into a comparable
// string. Current dummyjson returns {"slug","name","url"} objects; older
// versions returned plain strings. Null yields "" and never matches.
func categoryName(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return ""
	case gjson.JSON:
		if v.IsObject() {
			for _, key := range []string{"slug", "name"} {
				if f := v.Get(key); f.Type == gjson.String {
					return f.String()
				}
			}
		}
	}
	return v.Raw
}
