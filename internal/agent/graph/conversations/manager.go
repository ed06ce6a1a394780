package conversations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
)

// MessagesManager mediates all history access for the graph nodes: it appends
// user messages, classification records, operation results and assistant
// replies, and assembles contexts for the fallback responders.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	fallbackMaxTurns int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		fallbackMaxTurns: config.Fallback.MaxTurns,
	}
}

// RecordUserMessage appends the incoming user message to history.
func (cm *MessagesManager) RecordUserMessage(ctx context.Context, conversationID string, query string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(query))
}

// RecordClassification appends the turn's classification record as a
// tool-role message so the visible history carries the intent decision.
func (cm *MessagesManager) RecordClassification(ctx context.Context, conversationID string, c model.Classification) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	msg := &schema.Message{
		Role:    schema.Tool,
		Name:    model.ClassifierRecordName,
		Content: string(b),
	}
	return cm.conversationRepo.AddMessage(ctx, conversationID, msg)
}

// RecordOperationResult appends a ledger operation result under the
// operation's name, mirroring the classification record format.
func (cm *MessagesManager) RecordOperationResult(ctx context.Context, conversationID string, operation string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s result: %w", operation, err)
	}
	msg := &schema.Message{
		Role:    schema.Tool,
		Name:    operation,
		Content: string(b),
	}
	return cm.conversationRepo.AddMessage(ctx, conversationID, msg)
}

// SaveResponse appends the assistant reply that ends the turn.
func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID string, content string) error {
	assistantMsg := schema.AssistantMessage(content, nil)
	return cm.conversationRepo.AddMessage(ctx, conversationID, assistantMsg)
}

// BuildFallbackContext assembles the system prompt plus the most recent
// user/assistant turns for the open-generation fallback. Tool-role records
// are filtered out: the generation capability receives conversation text only.
func (cm *MessagesManager) BuildFallbackContext(ctx context.Context, conversationID string, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	var turns []*schema.Message
	for _, msg := range history.Messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		if msg.Role == schema.User || msg.Role == schema.Assistant {
			turns = append(turns, msg)
		}
	}
	turns = trimTail(turns, cm.fallbackMaxTurns)

	messages := make([]*schema.Message, 0, len(turns)+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, turns...)
	return messages, nil
}

// LatestUserMessage returns the content of the most recent user entry.
func (cm *MessagesManager) LatestUserMessage(ctx context.Context, conversationID string) (string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}
	for i := len(history.Messages) - 1; i >= 0; i-- {
		msg := history.Messages[i]
		if msg != nil && msg.Role == schema.User {
			return msg.Content, nil
		}
	}
	return "", nil
}

// ====================== Topics ======================

// topicKeywords identifies coarse conversation topics for session context and
// fallback upsell suggestions.
var topicKeywords = map[string][]string{
	"saldo":         {"saldo", "disponível", "conta"},
	"transferencia": {"transferir", "transferência", "enviar"},
	"extrato":       {"extrato", "transações", "histórico"},
	"boleto":        {"boleto", "conta", "fatura"},
	"cartao":        {"cartão", "crédito", "compra"},
	"perfil":        {"perfil", "financeiro", "análise"},
	"investimentos": {"investir", "investimento", "aplicar", "rendimento"},
	"emprestimo":    {"empréstimo", "crédito", "financiamento", "consignado", "taxa"},
	"api":           {"api", "integração", "sistema", "ferramenta", "consulta"},
}

// ExtractTopics returns the topics mentioned in a message.
func ExtractTopics(message string) []string {
	msg := strings.ToLower(message)
	var topics []string
	for _, topic := range []string{"saldo", "transferencia", "extrato", "boleto", "cartao", "perfil", "investimentos", "emprestimo", "api"} {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(msg, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

// MergeTopics appends new topics and keeps only the most recent max entries.
func MergeTopics(existing, found []string, max int) []string {
	merged := append(append([]string{}, existing...), found...)
	if max > 0 && len(merged) > max {
		merged = merged[len(merged)-max:]
	}
	return merged
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
