package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/chris/shopbot/internal/catalog"
	"github.com/chris/shopbot/internal/llm"
	"github.com/chris/shopbot/internal/tools"
)

// shopModel routes a few known prompts to tool calls and, on the second
// turn, describes the last tool result in a sentence.
type shopModel struct {
	routes map[string]llm.ToolCall
}

func (m *shopModel) Chat(_ context.Context, req llm.Request) (*llm.Response, error) {
	if len(req.Tools) > 0 {
		prompt := req.Messages[len(req.Messages)-1].Content
		call, ok := m.routes[prompt]
		if !ok {
			return &llm.Response{Content: "Hello! I can look up products for you."}, nil
		}
		return &llm.Response{ToolCalls: []llm.ToolCall{call}}, nil
	}
	var result string
	for _, msg := range req.Messages {
		if msg.Role == llm.RoleTool {
			result = msg.Content
		}
	}
	product := gjson.Parse(result)
	return &llm.Response{Content: fmt.Sprintf("The %s costs $%.2f.", product.Get("title").String(), product.Get("price").Float())}, nil
}

type catalogServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls []string
	posts []string
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()
	s := &catalogServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			s.posts = append(s.posts, string(body))
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products/categories":
			io.WriteString(w, `[{"slug":"laptops","name":"Laptops"},{"slug":"smartphones","name":"Smartphones"}]`)
		case "/products/category/smartphones":
			io.WriteString(w, `{"products":[{"id":121,"title":"iPhone 5s","price":199.99,"description":"A classic."},{"id":122,"title":"iPhone 6","price":299.99}],"total":2}`)
		case "/products/add":
			resp, _ := sjson.SetBytes([]byte(`{"id":195,"price":0}`), "title", gjson.GetBytes(body, "title").String())
			w.Write(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"not found"}`)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func newShopAgent(t *testing.T, srv *catalogServer) *Agent {
	t.Helper()
	client := catalog.NewClient(srv.URL, srv.Client())
	resolver, err := catalog.NewResolver(client, 0)
	require.NoError(t, err)
	registry, err := tools.NewRegistry()
	require.NoError(t, err)

	model := &shopModel{routes: map[string]llm.ToolCall{
		"show me a phone": {ID: "call_1", Name: tools.GetProductsByCategory, Params: map[string]any{"category": "phone"}},
		"add a product called Foo in category bar": {ID: "call_2", Name: tools.AddProduct,
			Params: map[string]any{"title": "Foo", "category": "bar"}},
		"delete everything": {ID: "call_3", Name: "deleteAllProducts", Params: map[string]any{}},
		"show me something": {ID: "call_4", Name: tools.GetProductsByCategory, Params: map[string]any{}},
	}}
	return New(model, tools.NewExecutor(registry, client, resolver), registry.Tools(), Options{RouterModel: "r", AnswerModel: "a"})
}

func TestScenario_PhoneLookup(t *testing.T) {
	srv := newCatalogServer(t)
	reply := newShopAgent(t, srv).HandlePrompt(context.Background(), "show me a phone")

	assert.Equal(t, "The iPhone 5s costs $199.99.", reply)
	assert.NotContains(t, reply, "{")
	assert.Equal(t, []string{"GET /products/categories", "GET /products/category/smartphones"}, srv.calls)
}

func TestScenario_Greeting(t *testing.T) {
	srv := newCatalogServer(t)
	reply := newShopAgent(t, srv).HandlePrompt(context.Background(), "hello")

	assert.Equal(t, "Hello! I can look up products for you.", reply)
	assert.Empty(t, srv.calls)
}

func TestScenario_AddProductFallsBackCategory(t *testing.T) {
	srv := newCatalogServer(t)
	reply := newShopAgent(t, srv).HandlePrompt(context.Background(), "add a product called Foo in category bar")

	assert.True(t, strings.HasPrefix(reply, "The Foo costs"), reply)
	require.Len(t, srv.posts, 1)
	assert.JSONEq(t, `{"title":"Foo","category":"smartphones"}`, srv.posts[0])
}

func TestScenario_MissingCategoryUsesFallback(t *testing.T) {
	srv := newCatalogServer(t)
	reply := newShopAgent(t, srv).HandlePrompt(context.Background(), "show me something")

	assert.Equal(t, "The iPhone 5s costs $199.99.", reply)
	assert.Equal(t, []string{"GET /products/category/smartphones"}, srv.calls)
}

func TestScenario_UnknownToolYieldsFallback(t *testing.T) {
	srv := newCatalogServer(t)
	assert.Equal(t, FallbackReply, newShopAgent(t, srv).HandlePrompt(context.Background(), "delete everything"))
	assert.Empty(t, srv.calls)
}

func TestScenario_SamePromptSameCalls(t *testing.T) {
	srv := newCatalogServer(t)
	ag := newShopAgent(t, srv)

	ag.HandlePrompt(context.Background(), "show me a phone")
	first := append([]string(nil), srv.calls...)
	ag.HandlePrompt(context.Background(), "show me a phone")

	require.Len(t, srv.calls, 2*len(first))
	assert.Equal(t, first, srv.calls[len(first):])
}
