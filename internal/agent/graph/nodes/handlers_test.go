package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/agent/repo"
	"github.com/fourbank-agent-poc/server/internal/bank"
)

type handlerFixture struct {
	repo   *repo.MemoryConversationRepository
	mm     *conversations.MessagesManager
	ledger *bank.Ledger
}

func newTestManager() (*handlerFixture, *Handlers) {
	memRepo := repo.NewMemoryConversationRepository()
	var cfg model.ConversationConfig
	cfg.Fallback.MaxTurns = 5
	mm := conversations.NewMessagesManager(memRepo, cfg)

	ledger := bank.NewLedger()
	return &handlerFixture{repo: memRepo, mm: mm, ledger: ledger}, NewHandlers(ledger, mm)
}

func testInfo() turnInfo {
	return turnInfo{ConversationID: "conv-test", CustomerID: "1"}
}

func TestHandleBalanceMediumRange(t *testing.T) {
	_, h := newTestManager()

	reply, err := h.HandleBalance(context.Background(), testInfo(), model.Classification{Intent: model.IntentBalance})
	require.NoError(t, err)
	assert.Contains(t, reply, "12345-6")
	assert.Contains(t, reply, "5000.00")
	assert.NotContains(t, reply, "saldo está baixo")
	assert.NotContains(t, reply, "Boas notícias")
}

func TestHandleBalanceLowWarning(t *testing.T) {
	fx, h := newTestManager()

	// Drain the account below the warning threshold.
	_, err := fx.ledger.Transfer("1", "2", 4800)
	require.NoError(t, err)

	reply, err := h.HandleBalance(context.Background(), testInfo(), model.Classification{Intent: model.IntentBalance})
	require.NoError(t, err)
	assert.Contains(t, reply, "Atenção: seu saldo está baixo.")
	assert.Contains(t, reply, "200.00")
}

func TestHandleBalanceHighBalance(t *testing.T) {
	_, h := newTestManager()

	info := turnInfo{ConversationID: "conv-test", CustomerID: "2"}
	reply, err := h.HandleBalance(context.Background(), info, model.Classification{Intent: model.IntentBalance})
	require.NoError(t, err)
	assert.Contains(t, reply, "Boas notícias!")
	assert.Contains(t, reply, "8500.00")
}

func TestHandleTransferSuccess(t *testing.T) {
	fx, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentTransfer,
		Params: map[string]any{"valor": 200.0, "destino_id": "2"},
	}
	reply, err := h.HandleTransfer(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Contains(t, reply, "Transferência de R$ 200.00 para Maria Santos realizada com sucesso.")
	assert.Contains(t, reply, "4800.00")

	dest, err := fx.ledger.GetBalance("2")
	require.NoError(t, err)
	assert.InDelta(t, 8700.00, dest.Balance, 0.001)
}

func TestHandleTransferRejectsNonPositiveAmount(t *testing.T) {
	fx, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentTransfer,
		Params: map[string]any{"valor": 0.0, "destino_id": "2"},
	}
	reply, err := h.HandleTransfer(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Equal(t, "Por favor, informe um valor válido para a transferência maior que zero.", reply)

	// No mutation happened.
	from, err := fx.ledger.GetBalance("1")
	require.NoError(t, err)
	assert.InDelta(t, 5000.00, from.Balance, 0.001)
}

func TestHandleTransferUnknownRecipient(t *testing.T) {
	_, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentTransfer,
		Params: map[string]any{"valor": 50.0, "destino_id": "99"},
	}
	reply, err := h.HandleTransfer(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Contains(t, reply, "não encontrei o destinatário")
}

func TestHandleTransferInsufficientFunds(t *testing.T) {
	_, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentTransfer,
		Params: map[string]any{"valor": 99999.0, "destino_id": "2"},
	}
	reply, err := h.HandleTransfer(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Contains(t, reply, "saldo insuficiente")
}

func TestHandleStatementEmpty(t *testing.T) {
	_, h := newTestManager()

	reply, err := h.HandleStatement(context.Background(), testInfo(), model.Classification{Intent: model.IntentStatement})
	require.NoError(t, err)
	assert.Equal(t, "Você ainda não possui transações registradas.", reply)
}

func TestHandleStatementFormatsAndTotals(t *testing.T) {
	fx, h := newTestManager()

	_, err := fx.ledger.Transfer("1", "2", 100)
	require.NoError(t, err)
	_, err = fx.ledger.PayBill("1", "76500000000", 50)
	require.NoError(t, err)
	_, err = fx.ledger.ChargeCard("1", "1", "Restaurante Sabor", 80)
	require.NoError(t, err)

	c := model.Classification{Intent: model.IntentStatement, Params: map[string]any{"limite": 5}}
	reply, err := h.HandleStatement(context.Background(), testInfo(), c)
	require.NoError(t, err)

	assert.Contains(t, reply, "últimas 3 transações")
	assert.Contains(t, reply, "Transferência de R$ 100.00 para Maria Santos")
	assert.Contains(t, reply, "Pagamento de boleto no valor de R$ 50.00")
	assert.Contains(t, reply, "Compra de R$ 80.00 em Restaurante Sabor")
	assert.Contains(t, reply, "Total movimentado: R$ 230.00")
}

func TestHandlePayBillNamesUtility(t *testing.T) {
	_, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentPayBill,
		Params: map[string]any{"valor": 90.0, "codigo_barras": "76500000000000000000000000000000000000000000"},
	}
	reply, err := h.HandlePayBill(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Contains(t, reply, "conta de água")
	assert.Contains(t, reply, "R$ 90.00")
	assert.Contains(t, reply, "4910.00")
}

func TestHandlePayBillRejectsNonPositiveAmount(t *testing.T) {
	_, h := newTestManager()

	c := model.Classification{Intent: model.IntentPayBill, Params: map[string]any{"valor": -1.0}}
	reply, err := h.HandlePayBill(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Equal(t, "Por favor, informe um valor válido para o pagamento maior que zero.", reply)
}

func TestHandlePayCardSuccess(t *testing.T) {
	_, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentPayCard,
		Params: map[string]any{"valor": 300.0, "estabelecimento": "Supermercado Central", "cartao_id": "1"},
	}
	reply, err := h.HandlePayCard(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Contains(t, reply, "Compra de R$ 300.00 em Supermercado Central")
	assert.Contains(t, reply, "Sua fatura atual é de R$ 1500.00")
	assert.Contains(t, reply, "Limite disponível: R$ 8500.00")
}

func TestHandlePayCardRejectsOverLimit(t *testing.T) {
	fx, h := newTestManager()

	// Card 3: limit 5000, statement 800 → 4200 available.
	c := model.Classification{
		Intent: model.IntentPayCard,
		Params: map[string]any{"valor": 4500.0, "estabelecimento": "Loja", "cartao_id": "3"},
	}
	reply, err := h.HandlePayCard(context.Background(), testInfo(), c)
	require.NoError(t, err)
	assert.Contains(t, reply, "limite disponível de R$ 4200.00 é insuficiente para esta compra de R$ 4500.00")

	// Statement untouched.
	card, err := fx.ledger.GetCard("3")
	require.NoError(t, err)
	assert.InDelta(t, 800.00, card.Statement, 0.001)
}

func TestHandleProfileNoData(t *testing.T) {
	_, h := newTestManager()

	reply, err := h.HandleProfile(context.Background(), testInfo(), model.Classification{Intent: model.IntentProfile})
	require.NoError(t, err)
	assert.Equal(t, "Não há transações suficientes para análise.", reply)
}

func TestHandleProfileReport(t *testing.T) {
	fx, h := newTestManager()

	_, err := fx.ledger.PayBill("1", "76500000000", 120)
	require.NoError(t, err)
	_, err = fx.ledger.PayBill("1", "89100000000", 250)
	require.NoError(t, err)
	_, err = fx.ledger.ChargeCard("1", "1", "Supermercado Central", 400)
	require.NoError(t, err)

	reply, err := h.HandleProfile(context.Background(), testInfo(), model.Classification{Intent: model.IntentProfile})
	require.NoError(t, err)

	assert.Contains(t, reply, "# Análise do seu Perfil Financeiro")
	assert.Contains(t, reply, "Total gasto: R$ 770.00")
	assert.Contains(t, reply, "Número de transações: 3")
	assert.Contains(t, reply, "Água")
	assert.Contains(t, reply, "Supermercado Central")
	assert.Contains(t, reply, "## Recomendações Personalizadas")
}

func TestRecordedOperationResults(t *testing.T) {
	fx, h := newTestManager()

	c := model.Classification{
		Intent: model.IntentTransfer,
		Params: map[string]any{"valor": 200.0, "destino_id": "2"},
	}
	_, err := h.HandleTransfer(context.Background(), testInfo(), c)
	require.NoError(t, err)

	history, err := fx.repo.LoadHistory(context.Background(), "conv-test")
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "realizar_transferencia", history.Messages[0].Name)
	assert.Contains(t, history.Messages[0].Content, "novo_saldo")
}
