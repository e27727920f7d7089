package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/chris/shopbot/internal/llm"
	"github.com/chris/shopbot/internal/metrics"
)

// FallbackReply is the only thing a user sees when handling a prompt fails.
const FallbackReply = "An error occurred while processing your request."

type ToolExecutor interface {
	Execute(ctx context.Context, call llm.ToolCall) (json.RawMessage, error)
}

// ToolResult pairs a tool call id with the JSON its execution produced.
type ToolResult struct {
	ToolCallID string
	Result     json.RawMessage
}

type Options struct {
	RouterModel   string // turn 1
	AnswerModel   string // turn 2
	ParallelTools bool
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// Agent answers one prompt with at most two LLM turns: the first offers the
// tools, the second (only when tools were called) turns their results into
// prose.
type Agent struct {
	client   llm.Client
	executor ToolExecutor
	tools    []llm.Tool
	opts     Options
}

func New(client llm.Client, executor ToolExecutor, tools []llm.Tool, opts Options) *Agent {
	return &Agent{client: client, executor: executor, tools: tools, opts: opts}
}

type state int

const (
	awaitingFirstResponse state = iota
	executingTools
	awaitingFinalResponse
	done
)

func (s state) String() string {
	switch s {
	case awaitingFirstResponse:
		return "awaiting_first_response"
	case executingTools:
		return "executing_tools"
	case awaitingFinalResponse:
		return "awaiting_final_response"
	case done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// exchange is the message state for one prompt. It is never reused.
type exchange struct {
	state    state
	opening  []llm.Message // system + user
	response *llm.Response // turn 1
	results  []ToolResult
	reply    string
}

// HandlePrompt answers prompt. Every failure, panics included, is logged and
// replaced by FallbackReply.
func (a *Agent) HandlePrompt(ctx context.Context, prompt string) (reply string) {
	log := a.opts.Logger.With().Str("prompt_id", uuid.NewString()).Logger()
	ctx = log.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("handling prompt")
			a.opts.Metrics.Prompt("failed")
			reply = FallbackReply
		}
	}()

	reply, err := a.Run(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("handling prompt")
		a.opts.Metrics.Prompt("failed")
		return FallbackReply
	}
	return reply
}

// Run drives the exchange for prompt to completion and returns the final
// text, or the first error met.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	ex := &exchange{
		state:   awaitingFirstResponse,
		opening: []llm.Message{llm.SystemMessage(llm.RouterPrompt), llm.UserMessage(prompt)},
	}
	for ex.state != done {
		if err := a.step(ctx, ex); err != nil {
			return "", err
		}
	}
	return ex.reply, nil
}

// step performs the work of the current state and advances it.
func (a *Agent) step(ctx context.Context, ex *exchange) error {
	switch ex.state {
	case awaitingFirstResponse:
		resp, err := a.chat(ctx, "first", llm.Request{
			Model:      a.opts.RouterModel,
			Messages:   ex.opening,
			Tools:      a.tools,
			ToolChoice: llm.ToolChoiceAuto,
		})
		if err != nil {
			return err
		}
		ex.response = resp
		if len(resp.ToolCalls) == 0 {
			ex.reply = resp.Content
			ex.state = done
			a.opts.Metrics.Prompt("direct")
			return nil
		}
		ex.state = executingTools

	case executingTools:
		results, err := a.executeTools(ctx, ex.response.ToolCalls)
		if err != nil {
			return err
		}
		ex.results = results
		ex.state = awaitingFinalResponse

	case awaitingFinalResponse:
		resp, err := a.chat(ctx, "final", llm.Request{
			Model:    a.opts.AnswerModel,
			Messages: finalMessages(ex),
		})
		if err != nil {
			return err
		}
		ex.reply = resp.Content
		ex.state = done
		a.opts.Metrics.Prompt("answered")

	default:
		return fmt.Errorf("step called in state %s", ex.state)
	}
	return nil
}

// finalMessages assembles turn 2: the opening messages, the assistant's
// tool-call message as received, one tool message per result, and the answer
// instructions last.
func finalMessages(ex *exchange) []llm.Message {
	msgs := make([]llm.Message, 0, len(ex.opening)+len(ex.results)+2)
	msgs = append(msgs, ex.opening...)
	msgs = append(msgs, ex.response.Message())
	for _, r := range ex.results {
		msgs = append(msgs, llm.ToolMessage(r.ToolCallID, string(r.Result)))
	}
	return append(msgs, llm.SystemMessage(llm.AnswerPrompt))
}

func (a *Agent) chat(ctx context.Context, turn string, req llm.Request) (*llm.Response, error) {
	log := a.logger(ctx)
	start := time.Now()
	a.opts.Metrics.Turn(turn)

	resp, err := a.client.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm %s turn: %w", turn, err)
	}
	log.Debug().
		Str("turn", turn).
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Int("est_tokens", llm.EstimateRequestTokens(req)).
		Int("tool_calls", len(resp.ToolCalls)).
		Dur("took", time.Since(start)).
		Msg("llm turn")
	return resp, nil
}

// executeTools runs calls in request order, or concurrently when
// ParallelTools is set. Results always come back in request order. The first
// failure aborts the exchange.
func (a *Agent) executeTools(ctx context.Context, calls []llm.ToolCall) ([]ToolResult, error) {
	results := make([]ToolResult, len(calls))

	if !a.opts.ParallelTools || len(calls) < 2 {
		for i, tc := range calls {
			r, err := a.executeTool(ctx, tc)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, tc := range calls {
		p.Go(func(ctx context.Context) error {
			r, err := a.executeTool(ctx, tc)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Agent) executeTool(ctx context.Context, tc llm.ToolCall) (ToolResult, error) {
	log := a.logger(ctx)
	start := time.Now()

	result, err := a.executor.Execute(ctx, tc)
	if err != nil {
		a.opts.Metrics.ToolCall(tc.Name, "error")
		return ToolResult{}, fmt.Errorf("tool %s (%s): %w", tc.Name, tc.ID, err)
	}
	a.opts.Metrics.ToolCall(tc.Name, "ok")

	log.Info().
		Str("tool", tc.Name).
		Str("tool_call_id", tc.ID).
		Str("size", humanize.Bytes(uint64(len(result)))).
		Dur("took", time.Since(start)).
		Msg("tool call")
	log.Debug().Str("tool", tc.Name).Str("result", truncate(string(result), 500)).Msg("tool result")

	return ToolResult{ToolCallID: tc.ID, Result: result}, nil
}

// logger prefers the per-prompt logger stored by HandlePrompt.
func (a *Agent) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.opts.Logger
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
