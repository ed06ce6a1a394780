package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/bank"
)

//go:embed template/generic_prompt.txt
var genericSystemPrompt string

// RenderGenericSystem renders the open-generation persona prompt with the
// active customer's display fields.
func RenderGenericSystem(ctx context.Context, cfg model.BankPromptConfig, customer *bank.Customer) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(genericSystemPrompt),
	)
	vars := map[string]any{
		"BankName": cfg.BankName,
		"Nome":     customer.Name,
		"Conta":    customer.Account,
		"Saldo":    fmt.Sprintf("%.2f", customer.Balance),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("generic prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("generic prompt render: empty result")
	}
	return msgs[0].Content, nil
}
