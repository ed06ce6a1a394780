package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/graph/prompts"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

const (
	// techApology is the reply for any infrastructure failure inside a
	// fallback turn. The customer never sees raw error detail.
	techApology = "Desculpe, ocorreu um erro técnico ao processar sua consulta. Por favor, reformule sua pergunta ou entre em contato com o suporte."

	// noDocsReply is the exact reply when retrieval returns no snippets.
	noDocsReply = "Não encontrei informações específicas sobre isso nos documentos disponíveis. Recomendo entrar em contato com um de nossos gerentes para obter orientações precisas."

	// groundedSuffix is appended to grounded answers so customers know the
	// answer came from official material.
	groundedSuffix = "\n\nEsta resposta foi baseada em documentos oficiais do banco."
)

// Fallbacks holds the two non-deterministic responders: the grounded question
// answerer and the open conversational fallback.
type Fallbacks struct {
	generator model.Generator
	retriever model.Retriever
	bank      model.BankService
	mm        *conversations.MessagesManager
	promptCfg model.BankPromptConfig
}

func NewFallbacks(
	generator model.Generator,
	retriever model.Retriever,
	bankSvc model.BankService,
	mm *conversations.MessagesManager,
	promptCfg model.BankPromptConfig,
) *Fallbacks {
	return &Fallbacks{
		generator: generator,
		retriever: retriever,
		bank:      bankSvc,
		mm:        mm,
		promptCfg: promptCfg,
	}
}

func (f *Fallbacks) NewQuestionNode() *compose.Lambda {
	return newReplyNode(f.mm, f.HandleQuestion)
}

func (f *Fallbacks) NewOtherNode() *compose.Lambda {
	return newReplyNode(f.mm, f.HandleOther)
}

// HandleQuestion answers an informational question from retrieved documents.
// An empty retrieval is a normal outcome and gets the fixed no-documents
// reply; only infrastructure failures produce the apology.
func (f *Fallbacks) HandleQuestion(ctx context.Context, info turnInfo, c model.Classification) (string, error) {
	question := c.Str("query", "")
	if question == "" {
		if latest, err := f.mm.LatestUserMessage(ctx, info.ConversationID); err == nil {
			question = latest
		}
	}

	snippets, err := f.retriever.Query(ctx, question)
	if err != nil {
		logx.Error().
			Str("conversation_id", info.ConversationID).
			Err(err).
			Msg("Error querying document retriever")
		return techApology, nil
	}

	if len(snippets) == 0 {
		logx.Debug().
			Str("conversation_id", info.ConversationID).
			Msg("No documents matched the question")
		return noDocsReply, nil
	}

	customer, err := f.bank.GetCustomer(info.CustomerID)
	if err != nil {
		logx.Error().Str("customer_id", info.CustomerID).Err(err).Msg("Error loading customer for question prompt")
		return techApology, nil
	}

	systemPrompt, err := prompts.RenderQuestionSystem(ctx, f.promptCfg, customer, snippets, question)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering question prompt")
		return techApology, nil
	}

	resp, err := f.generator.Generate(ctx, []*schema.Message{schema.SystemMessage(systemPrompt)})
	if err != nil {
		logx.Error().
			Str("conversation_id", info.ConversationID).
			Err(err).
			Msg("Error generating grounded answer")
		return techApology, nil
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return techApology, nil
	}

	// The suffix would be misleading under a partial answer where the model
	// itself reported missing information.
	if !strings.Contains(strings.ToLower(reply), "não encontrei informações") {
		reply += groundedSuffix
	}
	return reply, nil
}

// HandleOther handles everything the classifier could not place: an open
// conversational reply over recent history, plus a service suggestion when
// the session topics hint at one.
func (f *Fallbacks) HandleOther(ctx context.Context, info turnInfo, _ model.Classification) (string, error) {
	customer, err := f.bank.GetCustomer(info.CustomerID)
	if err != nil {
		logx.Error().Str("customer_id", info.CustomerID).Err(err).Msg("Error loading customer for generic prompt")
		return techApology, nil
	}

	systemPrompt, err := prompts.RenderGenericSystem(ctx, f.promptCfg, customer)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering generic prompt")
		return techApology, nil
	}

	messages, err := f.mm.BuildFallbackContext(ctx, info.ConversationID, systemPrompt)
	if err != nil {
		logx.Error().
			Str("conversation_id", info.ConversationID).
			Err(err).
			Msg("Error building fallback context")
		return techApology, nil
	}

	resp, err := f.generator.Generate(ctx, messages)
	if err != nil {
		logx.Error().
			Str("conversation_id", info.ConversationID).
			Err(err).
			Msg("Error generating conversational reply")
		return techApology, nil
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return techApology, nil
	}

	if suggestion := suggestionForTopics(info.Topics); suggestion != "" {
		reply += "\n\n" + suggestion
	}
	return reply, nil
}

// suggestionForTopics returns a service suggestion keyed off the most recent
// session topics. First match wins.
func suggestionForTopics(topics []string) string {
	for i := len(topics) - 1; i >= 0; i-- {
		switch topics[i] {
		case "investimentos":
			return "A propósito, que tal conhecer nossas opções de investimentos? Temos alternativas para todos os perfis."
		case "emprestimo":
			return "Temos linhas de empréstimo com taxas especiais para você. Gostaria de saber mais?"
		case "cartao":
			return "Conheça os benefícios exclusivos do seu cartão, como cashback e programa de pontos."
		}
	}
	return ""
}
