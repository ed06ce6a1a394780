package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
)

func TestClassifyBalance(t *testing.T) {
	for _, msg := range []string{
		"Mostrar saldo",
		"quanto tenho disponível",
		"quanto sobrou esse mês",
	} {
		c := Classify(msg)
		assert.Equal(t, model.IntentBalance, c.Intent, msg)
		assert.Empty(t, c.Params)
	}
}

func TestClassifyTransfer(t *testing.T) {
	c := Classify("Quero transferir R$ 200 para Maria")
	require.Equal(t, model.IntentTransfer, c.Intent)
	assert.Equal(t, 200.0, c.Params["valor"])
	assert.Equal(t, "2", c.Params["destino_id"])

	c = Classify("pix de 150,75 para o Carlos")
	require.Equal(t, model.IntentTransfer, c.Intent)
	assert.Equal(t, 150.75, c.Params["valor"])
	assert.Equal(t, "3", c.Params["destino_id"])

	// No amount and no recipient: defaults.
	c = Classify("quero mandar dinheiro")
	require.Equal(t, model.IntentTransfer, c.Intent)
	assert.Equal(t, 100.0, c.Params["valor"])
	assert.Equal(t, "2", c.Params["destino_id"])
}

func TestClassifyStatement(t *testing.T) {
	c := Classify("me mostra o extrato")
	require.Equal(t, model.IntentStatement, c.Intent)
	assert.Equal(t, 5, c.Params["limite"])

	c = Classify("histórico das últimas 3 movimentações")
	require.Equal(t, model.IntentStatement, c.Intent)
	assert.Equal(t, 3, c.Params["limite"])
}

func TestClassifyPayBill(t *testing.T) {
	c := Classify("Pagar boleto de água de R$ 90")
	require.Equal(t, model.IntentPayBill, c.Intent)
	assert.Equal(t, 90.0, c.Params["valor"])
	assert.Equal(t, "76543210987654321098", c.Params["codigo_barras"])

	c = Classify("pagar a conta de luz")
	require.Equal(t, model.IntentPayBill, c.Intent)
	assert.Equal(t, 150.0, c.Params["valor"])
	assert.Equal(t, "89123456789012345678", c.Params["codigo_barras"])

	c = Classify("pagar fatura de 320")
	require.Equal(t, model.IntentPayBill, c.Intent)
	assert.Equal(t, "12345678901234567890", c.Params["codigo_barras"])
}

func TestClassifyPayCard(t *testing.T) {
	c := Classify("compra de 45 no supermercado com o cartão")
	require.Equal(t, model.IntentPayCard, c.Intent)
	assert.Equal(t, 45.0, c.Params["valor"])
	assert.Equal(t, "Supermercado", c.Params["estabelecimento"])
	assert.Equal(t, "1", c.Params["cartao_id"])

	c = Classify("comprar remédio na farmácia")
	require.Equal(t, model.IntentPayCard, c.Intent)
	assert.Equal(t, 80.0, c.Params["valor"])
	assert.Equal(t, "Farmácia", c.Params["estabelecimento"])
}

func TestClassifyProfile(t *testing.T) {
	c := Classify("me mostra meu perfil financeiro")
	// "financeiro" also appears in the profile keyword set; the profile rule
	// sits below balance/transfer/statement and must still win here.
	assert.Equal(t, model.IntentProfile, c.Intent)
}

func TestQuestionSuppressesBillAndCard(t *testing.T) {
	// "conta" is both "bill" and "account": with a question marker present the
	// bill rule must not fire.
	c := Classify("Como faço para abrir uma conta?")
	assert.Equal(t, model.IntentQuestion, c.Intent)

	c = Classify("Qual o limite do cartão de crédito")
	assert.Equal(t, model.IntentQuestion, c.Intent)

	c = Classify("quais documentos preciso para financiamento da fatura")
	assert.Equal(t, model.IntentQuestion, c.Intent)
}

func TestQuestionDoesNotSuppressHigherRules(t *testing.T) {
	// Question markers only suppress bill/card; balance and transfer outrank
	// the question fallback.
	c := Classify("Qual o meu saldo?")
	assert.Equal(t, model.IntentBalance, c.Intent)

	c = Classify("Pode me informar se consigo transferir 50 para Maria?")
	assert.Equal(t, model.IntentTransfer, c.Intent)
}

func TestBillWithoutQuestionMarkerIsNotSuppressed(t *testing.T) {
	// Contains bill-adjacent words but no question marker, so it routes to the
	// bill handler, not the question fallback.
	c := Classify("Pagar boleto de água de R$ 90")
	assert.Equal(t, model.IntentPayBill, c.Intent)
}

func TestAllCapsCountsAsQuestion(t *testing.T) {
	c := Classify("PRECISO DE AJUDA COM MEU EMPRÉSTIMO")
	require.Equal(t, model.IntentQuestion, c.Intent)
	assert.Equal(t, "preciso de ajuda com meu empréstimo", c.Params["query"])
}

func TestClassifyQuestionCarriesQuery(t *testing.T) {
	c := Classify("Gostaria de saber as taxas de empréstimo consignado")
	require.Equal(t, model.IntentQuestion, c.Intent)
	assert.Equal(t, "gostaria de saber as taxas de empréstimo consignado", c.Params["query"])
}

func TestClassifyOther(t *testing.T) {
	c := Classify("bom dia")
	assert.Equal(t, model.IntentOther, c.Intent)
	assert.Empty(t, c.Params)
}
