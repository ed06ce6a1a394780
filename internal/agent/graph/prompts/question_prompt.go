package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/bank"
)

//go:embed template/question_prompt.txt
var questionSystemPrompt string

// RenderQuestionSystem renders the grounded-answer prompt for the retrieval
// fallback via the Eino prompt component (enables prompt callbacks). The
// snippets are the only knowledge the model may answer from.
func RenderQuestionSystem(ctx context.Context, cfg model.BankPromptConfig, customer *bank.Customer, snippets []model.Snippet, question string) (string, error) {
	if len(snippets) == 0 {
		return "", fmt.Errorf("question prompt requires at least one snippet")
	}

	var contextStr strings.Builder
	for i, s := range snippets {
		fmt.Fprintf(&contextStr, "[%d] (%s) %s\n", i+1, s.SourceID, s.Text)
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(questionSystemPrompt),
	)
	vars := map[string]any{
		"BankName":   cfg.BankName,
		"Nome":       customer.Name,
		"Conta":      customer.Account,
		"ContextStr": contextStr.String(),
		"Question":   question,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("question prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("question prompt render: empty result")
	}
	return msgs[0].Content, nil
}
