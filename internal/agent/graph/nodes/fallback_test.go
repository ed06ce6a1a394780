package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/agent/repo"
	"github.com/fourbank-agent-poc/server/internal/bank"
)

type fakeGenerator struct {
	reply    string
	err      error
	received []*schema.Message
}

func (g *fakeGenerator) Generate(_ context.Context, messages []*schema.Message) (*schema.Message, error) {
	g.received = messages
	if g.err != nil {
		return nil, g.err
	}
	return schema.AssistantMessage(g.reply, nil), nil
}

type fakeRetriever struct {
	snippets []model.Snippet
	err      error
	lastText string
}

func (r *fakeRetriever) Query(_ context.Context, text string) ([]model.Snippet, error) {
	r.lastText = text
	return r.snippets, r.err
}

func newTestFallbacks(gen *fakeGenerator, ret *fakeRetriever) (*Fallbacks, *conversations.MessagesManager) {
	memRepo := repo.NewMemoryConversationRepository()
	var cfg model.ConversationConfig
	cfg.Fallback.MaxTurns = 5
	mm := conversations.NewMessagesManager(memRepo, cfg)

	return NewFallbacks(gen, ret, bank.NewLedger(), mm, model.BankPromptConfig{BankName: "FourBank"}), mm
}

func questionClassification(q string) model.Classification {
	return model.Classification{Intent: model.IntentQuestion, Params: map[string]any{"query": q}}
}

func TestHandleQuestionEmptyRetrievalGetsFixedReply(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be called"}
	ret := &fakeRetriever{snippets: nil}
	f, _ := newTestFallbacks(gen, ret)

	reply, err := f.HandleQuestion(context.Background(), testInfo(), questionClassification("como funciona o cartão black?"))
	require.NoError(t, err)
	assert.Equal(t, "Não encontrei informações específicas sobre isso nos documentos disponíveis. Recomendo entrar em contato com um de nossos gerentes para obter orientações precisas.", reply)
	assert.Nil(t, gen.received, "generator must not run without documents")
}

func TestHandleQuestionRetrievalErrorGetsApology(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be called"}
	ret := &fakeRetriever{err: errors.New("index unavailable")}
	f, _ := newTestFallbacks(gen, ret)

	reply, err := f.HandleQuestion(context.Background(), testInfo(), questionClassification("tarifas"))
	require.NoError(t, err)
	assert.Equal(t, techApology, reply)
}

func TestHandleQuestionGroundedAnswerGetsSuffix(t *testing.T) {
	gen := &fakeGenerator{reply: "O limite do cartão pode ser ajustado pelo aplicativo."}
	ret := &fakeRetriever{snippets: []model.Snippet{{Text: "Limites são ajustáveis no app.", SourceID: "faq-cartoes"}}}
	f, _ := newTestFallbacks(gen, ret)

	reply, err := f.HandleQuestion(context.Background(), testInfo(), questionClassification("como ajusto meu limite?"))
	require.NoError(t, err)
	assert.Contains(t, reply, "O limite do cartão pode ser ajustado pelo aplicativo.")
	assert.Contains(t, reply, "Esta resposta foi baseada em documentos oficiais do banco.")

	// The grounded prompt carries the snippet and the question.
	require.Len(t, gen.received, 1)
	assert.Contains(t, gen.received[0].Content, "Limites são ajustáveis no app.")
	assert.Contains(t, gen.received[0].Content, "como ajusto meu limite?")
}

func TestHandleQuestionModelReportedGapSkipsSuffix(t *testing.T) {
	gen := &fakeGenerator{reply: "Não encontrei informações sobre isso nos documentos disponíveis."}
	ret := &fakeRetriever{snippets: []model.Snippet{{Text: "Documento irrelevante.", SourceID: "faq"}}}
	f, _ := newTestFallbacks(gen, ret)

	reply, err := f.HandleQuestion(context.Background(), testInfo(), questionClassification("pergunta obscura"))
	require.NoError(t, err)
	assert.NotContains(t, reply, "Esta resposta foi baseada em documentos oficiais do banco.")
}

func TestHandleQuestionGeneratorErrorGetsApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	ret := &fakeRetriever{snippets: []model.Snippet{{Text: "Algum documento.", SourceID: "faq"}}}
	f, _ := newTestFallbacks(gen, ret)

	reply, err := f.HandleQuestion(context.Background(), testInfo(), questionClassification("qualquer"))
	require.NoError(t, err)
	assert.Equal(t, techApology, reply)
}

func TestHandleOtherUsesRecentHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "Olá! Posso ajudar com seus serviços bancários."}
	ret := &fakeRetriever{}
	f, mm := newTestFallbacks(gen, ret)

	ctx := context.Background()
	require.NoError(t, mm.RecordUserMessage(ctx, "conv-test", "bom dia"))
	require.NoError(t, mm.SaveResponse(ctx, "conv-test", "Bom dia! Como posso ajudar?"))
	require.NoError(t, mm.RecordUserMessage(ctx, "conv-test", "me conta uma novidade"))

	reply, err := f.HandleOther(ctx, testInfo(), model.Classification{Intent: model.IntentOther})
	require.NoError(t, err)
	assert.Contains(t, reply, "Olá! Posso ajudar com seus serviços bancários.")

	// System prompt plus the three conversational turns.
	require.Len(t, gen.received, 4)
	assert.Equal(t, schema.System, gen.received[0].Role)
	assert.Contains(t, gen.received[0].Content, "João Silva")
	assert.Equal(t, "me conta uma novidade", gen.received[3].Content)
}

func TestHandleOtherTopicSuggestion(t *testing.T) {
	gen := &fakeGenerator{reply: "Claro, posso ajudar."}
	ret := &fakeRetriever{}
	f, _ := newTestFallbacks(gen, ret)

	info := testInfo()
	info.Topics = []string{"extrato", "cartao"}

	reply, err := f.HandleOther(context.Background(), info, model.Classification{Intent: model.IntentOther})
	require.NoError(t, err)
	assert.Contains(t, reply, "benefícios exclusivos do seu cartão")
}

func TestHandleOtherInvestmentMentionTriggersInvestmentSuggestion(t *testing.T) {
	gen := &fakeGenerator{reply: "Claro, posso ajudar."}
	ret := &fakeRetriever{}
	f, _ := newTestFallbacks(gen, ret)

	info := testInfo()
	info.Topics = conversations.ExtractTopics("quero investir meu dinheiro para ter rendimento")

	reply, err := f.HandleOther(context.Background(), info, model.Classification{Intent: model.IntentOther})
	require.NoError(t, err)
	assert.Contains(t, reply, "opções de investimentos")
}

func TestHandleOtherProfileTopicAloneSuggestsNothing(t *testing.T) {
	gen := &fakeGenerator{reply: "Claro, posso ajudar."}
	ret := &fakeRetriever{}
	f, _ := newTestFallbacks(gen, ret)

	info := testInfo()
	info.Topics = []string{"saldo", "perfil"}

	reply, err := f.HandleOther(context.Background(), info, model.Classification{Intent: model.IntentOther})
	require.NoError(t, err)
	assert.Equal(t, "Claro, posso ajudar.", reply)
}

func TestHandleOtherGeneratorErrorGetsApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	ret := &fakeRetriever{}
	f, _ := newTestFallbacks(gen, ret)

	reply, err := f.HandleOther(context.Background(), testInfo(), model.Classification{Intent: model.IntentOther})
	require.NoError(t, err)
	assert.Equal(t, techApology, reply)
}
