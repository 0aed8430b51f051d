package extract

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/otrade-bot/server/internal/order"
)

//go:embed template/extract_prompt.txt
var extractSystemPrompt string

//go:embed template/governor_prompt.txt
var governorPrompt string

// PromptConfig parameterises the governor persona.
type PromptConfig struct {
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"OTRADE"`
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"wholesale trading"`
}

// RenderExtractSystem renders the extraction contract prompt via the Eino
// prompt component. Known tokens are replaced with a Replacer so the JSON
// braces in the template stay untouched.
func RenderExtractSystem(ctx context.Context) (string, error) {
	content := strings.NewReplacer(
		"{DEFAULT_CATEGORY}", order.CategoryDefault.String(),
	).Replace(extractSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("extract prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("extract prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderGovernor renders the persona prompt with the business identity.
func RenderGovernor(ctx context.Context, cfg PromptConfig) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(governorPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"BusinessName": cfg.BusinessName,
		"BusinessType": cfg.BusinessType,
	})
	if err != nil {
		return "", fmt.Errorf("governor prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("governor prompt render: empty result")
	}
	return msgs[0].Content, nil
}
