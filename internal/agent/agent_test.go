package agent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/agent/repo"
	"github.com/fourbank-agent-poc/server/internal/bank"
)

type fakeRunner struct {
	lastInput model.QueryInput
	reply     string
}

func (r *fakeRunner) Invoke(_ context.Context, in model.QueryInput) (string, error) {
	r.lastInput = in
	return r.reply, nil
}

func newTestAgent(reply string) (*Agent, *fakeRunner, *repo.MemoryConversationRepository) {
	runner := &fakeRunner{reply: reply}
	memRepo := repo.NewMemoryConversationRepository()
	var cfg model.ConversationConfig
	cfg.Topics.MaxTracked = 3
	return New(runner, bank.NewLedger(), memRepo, "1", cfg), runner, memRepo
}

func TestGreetingUsesCustomerName(t *testing.T) {
	a, _, _ := newTestAgent("ok")

	greeting, err := a.Greeting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Olá, João Silva! Como posso ajudar você hoje?", greeting)
}

func TestGreetingSeedsConversationHistory(t *testing.T) {
	a, _, memRepo := newTestAgent("ok")
	ctx := context.Background()

	greeting, err := a.Greeting(ctx)
	require.NoError(t, err)

	history, err := memRepo.LoadHistory(ctx, a.SessionID())
	require.NoError(t, err)
	require.NotEmpty(t, history.Messages)

	first := history.Messages[0]
	assert.Equal(t, schema.Assistant, first.Role)
	assert.Equal(t, greeting, first.Content)
}

func TestChatForwardsIdentityAndTopics(t *testing.T) {
	a, runner, _ := newTestAgent("resposta")

	reply, err := a.Chat(context.Background(), "quero ver meu saldo")
	require.NoError(t, err)
	assert.Equal(t, "resposta", reply)

	assert.Equal(t, a.SessionID(), runner.lastInput.ConversationID)
	assert.Equal(t, "1", runner.lastInput.CustomerID)
	assert.Equal(t, "quero ver meu saldo", runner.lastInput.Query)
	assert.Contains(t, runner.lastInput.Topics, "saldo")
}

func TestTopicWindowIsBounded(t *testing.T) {
	a, _, _ := newTestAgent("ok")

	messages := []string{
		"quero ver meu saldo",
		"fazer uma transferência",
		"me mostra o extrato",
		"pagar um boleto",
		"compras no cartão de crédito",
	}
	for _, msg := range messages {
		_, err := a.Chat(context.Background(), msg)
		require.NoError(t, err)
	}

	topics := a.Topics()
	assert.LessOrEqual(t, len(topics), 3)
	assert.Contains(t, topics, "cartao")
	assert.NotContains(t, topics, "saldo")
}

func TestSessionIDsAreUnique(t *testing.T) {
	a1, _, _ := newTestAgent("ok")
	a2, _, _ := newTestAgent("ok")
	assert.NotEqual(t, a1.SessionID(), a2.SessionID())
	assert.NotEmpty(t, a1.SessionID())
}
