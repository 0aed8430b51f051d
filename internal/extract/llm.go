package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
	logx "github.com/otrade-bot/server/pkg/logger"
)

// LLMExtractor implements Extractor on top of a chat-completion model. One
// call produces both the natural reply and the metadata line; the parser
// splits them and the validation boundary types the rest.
type LLMExtractor struct {
	client ModelClient
	cfg    Config
	prompt PromptConfig
}

func NewLLMExtractor(client ModelClient, cfg Config, prompt PromptConfig) *LLMExtractor {
	return &LLMExtractor{client: client, cfg: cfg, prompt: prompt}
}

func (e *LLMExtractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if e.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	messages, err := e.buildMessages(ctx, req)
	if err != nil {
		return nil, errx.WrapExtraction(err)
	}

	out, err := e.client.Generate(ctx, messages)
	if err != nil {
		logx.Error().
			Err(err).
			Str("session_id", req.SessionID).
			Str("model", e.client.ModelName()).
			Msg("extraction call failed")
		return nil, errx.WrapExtraction(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, errx.WrapExtraction(errEmptyCompletion)
	}

	reply, md := ParseReply(out.Content)
	result := &Result{
		Category: md.Category,
		Fields:   md.Fields,
		Reply:    reply,
	}

	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		usage := out.ResponseMeta.Usage
		inC, outC, totalC := ComputeCost(usage, ResolvePricing(e.client.ModelName()))
		result.CostUSD = totalC
		logx.Debug().
			Str("session_id", req.SessionID).
			Str("model", e.client.ModelName()).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
	}

	return result, nil
}

var errEmptyCompletion = errors.New("model returned an empty completion")

func (e *LLMExtractor) buildMessages(ctx context.Context, req Request) ([]*schema.Message, error) {
	systemPrompt, err := RenderExtractSystem(ctx)
	if err != nil {
		return nil, err
	}
	governor, err := RenderGovernor(ctx, e.prompt)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.SystemMessage(governor),
		schema.SystemMessage("Current session state: " + encodeKnown(req.Known)),
	}

	if len(req.Catalog) > 0 {
		trimmed := req.Catalog
		if e.cfg.MaxCatalogItems > 0 && len(trimmed) > e.cfg.MaxCatalogItems {
			trimmed = trimmed[:e.cfg.MaxCatalogItems]
		}
		if b, err := json.Marshal(trimmed); err == nil {
			messages = append(messages, schema.SystemMessage("Product catalog (subset): "+string(b)))
		}
	}

	messages = append(messages, historyMessages(req.History, e.cfg.HistoryTurns)...)
	messages = append(messages, schema.UserMessage(req.Message))
	return messages, nil
}

// historyMessages replays the last maxTurns exchanges, oldest first.
func historyMessages(history []order.Turn, maxTurns int) []*schema.Message {
	if maxTurns > 0 && len(history) > maxTurns*2 {
		history = history[len(history)-maxTurns*2:]
	}
	out := make([]*schema.Message, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		switch t.Role {
		case order.RoleUser:
			out = append(out, schema.UserMessage(t.Text))
		case order.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Text, nil))
		}
	}
	return out
}

func encodeKnown(known map[order.FieldName]string) string {
	if len(known) == 0 {
		return "{}"
	}
	b, err := json.Marshal(known)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var _ Extractor = (*LLMExtractor)(nil)
