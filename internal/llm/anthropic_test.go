package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestToAnthropicMessages(t *testing.T) {
	system, msgs := toAnthropicMessages([]Message{
		SystemMessage("router"),
		UserMessage("show me two phones"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "tu_1", Name: "getProductById", Arguments: `{"id":1}`},
			{ID: "tu_2", Name: "getProductById", Arguments: `{"id":2}`},
		}},
		ToolMessage("tu_1", `{"id":1}`),
		ToolMessage("tu_2", `{"id":2}`),
		SystemMessage("answer"),
	})

	require.Len(t, system, 2)
	assert.Equal(t, "router", system[0].Text)
	assert.Equal(t, "answer", system[1].Text)

	b, err := json.Marshal(msgs)
	require.NoError(t, err)
	got := gjson.ParseBytes(b)

	// user, assistant, one user turn holding both tool results
	require.Equal(t, int64(3), got.Get("#").Int())
	assert.Equal(t, "user", got.Get("0.role").String())
	assert.Equal(t, "assistant", got.Get("1.role").String())
	assert.Equal(t, "tool_use", got.Get("1.content.0.type").String())
	assert.Equal(t, "getProductById", got.Get("1.content.1.name").String())
	assert.Equal(t, int64(2), got.Get("1.content.1.input.id").Int())
	assert.Equal(t, "user", got.Get("2.role").String())
	assert.Equal(t, int64(2), got.Get("2.content.#").Int())
	assert.Equal(t, "tu_2", got.Get("2.content.1.tool_use_id").String())
}

func TestToAnthropicTools(t *testing.T) {
	tools := toAnthropicTools([]Tool{{
		Name:        "addProduct",
		Description: "Adds a new product",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"title": map[string]any{"type": "string"}},
			"required":   []any{"title", 7},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "addProduct", tools[0].OfTool.Name)
	assert.Equal(t, []string{"title"}, tools[0].OfTool.InputSchema.Required)
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a"}, stringList([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, stringList([]any{"a", "b"}))
	assert.Nil(t, stringList(nil))
	assert.Nil(t, stringList("a"))
}
