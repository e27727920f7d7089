package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoPrompter struct {
	prompts []string
}

func (e *echoPrompter) HandlePrompt(_ context.Context, prompt string) string {
	e.prompts = append(e.prompts, prompt)
	return "echo: " + prompt
}

func TestRunChat_Interactive(t *testing.T) {
	p := &echoPrompter{}
	var out bytes.Buffer

	err := runChat(context.Background(), p, strings.NewReader("hello\n\n  phones  \nQUIT\nignored\n"), &out, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "phones"}, p.prompts)
	assert.Equal(t, "shopbot> echo: hello\nshopbot> shopbot> echo: phones\nshopbot> ", out.String())
}

func TestRunChat_EOFEnds(t *testing.T) {
	p := &echoPrompter{}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), p, strings.NewReader("one\ntwo"), &out, true))
	assert.Equal(t, []string{"one", "two"}, p.prompts)
}

func TestRunChat_ExitIsCaseInsensitive(t *testing.T) {
	for _, word := range []string{"exit", "Exit", "QUIT", "quit"} {
		p := &echoPrompter{}
		require.NoError(t, runChat(context.Background(), p, strings.NewReader(word+"\nafter\n"), &bytes.Buffer{}, true))
		assert.Empty(t, p.prompts, word)
	}
}

func TestRunChat_PipedSingleExchange(t *testing.T) {
	p := &echoPrompter{}
	var out bytes.Buffer

	err := runChat(context.Background(), p, strings.NewReader("\nfirst\nsecond\n"), &out, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"first"}, p.prompts)
	assert.Equal(t, "echo: first\n", out.String())
}

func TestRunChat_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &echoPrompter{}

	require.NoError(t, runChat(ctx, p, strings.NewReader("one\ntwo\n"), &bytes.Buffer{}, true))
	assert.Equal(t, []string{"one"}, p.prompts)
}
