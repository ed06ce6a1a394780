package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/bank"
	errx "github.com/fourbank-agent-poc/server/internal/core/error"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

// Handlers groups the deterministic turn handlers around their two
// collaborators: the bank service and the messages manager. Validation
// failures and ledger errors never abort a turn; they become replies.
type Handlers struct {
	bank model.BankService
	mm   *conversations.MessagesManager
}

func NewHandlers(bankSvc model.BankService, mm *conversations.MessagesManager) *Handlers {
	return &Handlers{bank: bankSvc, mm: mm}
}

func (h *Handlers) NewBalanceNode() *compose.Lambda {
	return newReplyNode(h.mm, h.HandleBalance)
}

func (h *Handlers) NewTransferNode() *compose.Lambda {
	return newReplyNode(h.mm, h.HandleTransfer)
}

func (h *Handlers) NewStatementNode() *compose.Lambda {
	return newReplyNode(h.mm, h.HandleStatement)
}

func (h *Handlers) NewPayBillNode() *compose.Lambda {
	return newReplyNode(h.mm, h.HandlePayBill)
}

func (h *Handlers) NewPayCardNode() *compose.Lambda {
	return newReplyNode(h.mm, h.HandlePayCard)
}

func (h *Handlers) NewProfileNode() *compose.Lambda {
	return newReplyNode(h.mm, h.HandleProfile)
}

// recordResult persists a ledger result in history; failures are logged, not
// propagated, since the operation itself already succeeded.
func (h *Handlers) recordResult(ctx context.Context, conversationID, operation string, payload any) {
	if err := h.mm.RecordOperationResult(ctx, conversationID, operation, payload); err != nil {
		logx.Error().Err(err).Str("operation", operation).Msg("Error recording operation result")
	}
}

// HandleBalance answers a balance inquiry, warning on low balances and
// congratulating on high ones.
func (h *Handlers) HandleBalance(ctx context.Context, info turnInfo, _ model.Classification) (string, error) {
	res, err := h.bank.GetBalance(info.CustomerID)
	if err != nil {
		return fmt.Sprintf("Desculpe, não foi possível consultar o saldo: %v", err), nil
	}
	h.recordResult(ctx, info.ConversationID, "consultar_saldo", res)

	switch {
	case res.Balance < 500:
		return fmt.Sprintf("O saldo atual da conta %s de %s é de R$ %.2f. Atenção: seu saldo está baixo.",
			res.Account, res.Name, res.Balance), nil
	case res.Balance > 5000:
		return fmt.Sprintf("Boas notícias! O saldo atual da conta %s é de R$ %.2f. Você tem um bom valor disponível.",
			res.Account, res.Balance), nil
	default:
		return fmt.Sprintf("O saldo atual da conta %s de %s é de R$ %.2f.",
			res.Account, res.Name, res.Balance), nil
	}
}

// HandleTransfer validates the amount and recipient before moving money.
func (h *Handlers) HandleTransfer(ctx context.Context, info turnInfo, c model.Classification) (string, error) {
	valor := c.Amount("valor", 0)
	destinoID := c.Str("destino_id", "")

	if valor <= 0 {
		return "Por favor, informe um valor válido para a transferência maior que zero.", nil
	}

	destino, err := h.bank.GetCustomer(destinoID)
	if err != nil {
		return "Desculpe, não encontrei o destinatário especificado. Por favor, verifique se o nome está correto.", nil
	}

	res, err := h.bank.Transfer(info.CustomerID, destinoID, valor)
	if err != nil {
		return fmt.Sprintf("Desculpe, não foi possível realizar a transferência: %v", err), nil
	}
	h.recordResult(ctx, info.ConversationID, "realizar_transferencia", res)

	return fmt.Sprintf("Transferência de R$ %.2f para %s realizada com sucesso. Seu novo saldo é R$ %.2f.",
		valor, destino.Name, res.NewBalance), nil
}

// HandleStatement renders the most recent transactions with a running total.
func (h *Handlers) HandleStatement(ctx context.Context, info turnInfo, c model.Classification) (string, error) {
	limite := c.Limit("limite", 5)

	txns, err := h.bank.ListTransactions(info.CustomerID, limite)
	if err != nil {
		return "Desculpe, não foi possível recuperar seu extrato.", nil
	}
	h.recordResult(ctx, info.ConversationID, "buscar_transacoes", txns)

	if len(txns) == 0 {
		return "Você ainda não possui transações registradas.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Aqui estão suas últimas %d transações:\n\n", len(txns))

	var total float64
	for _, t := range txns {
		total += t.Amount
		b.WriteString(h.formatTransaction(t))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nTotal movimentado: R$ %.2f", total)

	return b.String(), nil
}

func (h *Handlers) formatTransaction(t bank.Transaction) string {
	data := t.Date.Format("02/01/2006 15:04")
	switch t.Kind {
	case bank.KindTransfer:
		if dest, err := h.bank.GetCustomer(t.To); err == nil {
			return fmt.Sprintf("- %s: Transferência de R$ %.2f para %s", data, t.Amount, dest.Name)
		}
		return fmt.Sprintf("- %s: Transferência de R$ %.2f para conta não identificada", data, t.Amount)
	case bank.KindBillPayment:
		return fmt.Sprintf("- %s: Pagamento de boleto no valor de R$ %.2f", data, t.Amount)
	case bank.KindCardCharge:
		return fmt.Sprintf("- %s: Compra de R$ %.2f em %s", data, t.Amount, t.Merchant)
	default:
		return fmt.Sprintf("- %s: Transação de R$ %.2f", data, t.Amount)
	}
}

// billTypeFor derives the utility label shown in the reply from the barcode
// prefix — the inverse of the classifier's barcode inference.
func billTypeFor(barcode string) string {
	switch {
	case strings.HasPrefix(barcode, "765"):
		return "água"
	case strings.HasPrefix(barcode, "891"):
		return "energia"
	case strings.HasPrefix(barcode, "456"):
		return "internet"
	case strings.HasPrefix(barcode, "321"):
		return "telefone"
	default:
		return "boleto"
	}
}

// HandlePayBill validates the amount before debiting a bill payment.
func (h *Handlers) HandlePayBill(ctx context.Context, info turnInfo, c model.Classification) (string, error) {
	valor := c.Amount("valor", 0)
	codigoBarras := c.Str("codigo_barras", "")

	if valor <= 0 {
		return "Por favor, informe um valor válido para o pagamento maior que zero.", nil
	}

	tipoConta := billTypeFor(codigoBarras)

	res, err := h.bank.PayBill(info.CustomerID, codigoBarras, valor)
	if err != nil {
		return fmt.Sprintf("Desculpe, não foi possível realizar o pagamento: %v", err), nil
	}
	h.recordResult(ctx, info.ConversationID, "pagar_boleto", res)

	return fmt.Sprintf("Pagamento da conta de %s no valor de R$ %.2f realizado com sucesso. Seu novo saldo é R$ %.2f.",
		tipoConta, valor, res.NewBalance), nil
}

// HandlePayCard charges a card purchase. The available-credit pre-check lives
// here, not in the ledger: a charge past the limit must be rejected before
// any mutation happens.
func (h *Handlers) HandlePayCard(ctx context.Context, info turnInfo, c model.Classification) (string, error) {
	valor := c.Amount("valor", 0)
	estabelecimento := c.Str("estabelecimento", "Estabelecimento")
	cartaoID := c.Str("cartao_id", "1")

	if valor <= 0 {
		return "Por favor, informe um valor válido para a compra maior que zero.", nil
	}

	cartao, err := h.bank.GetCard(cartaoID)
	if err != nil {
		return "Desculpe, não encontrei o cartão informado. Por favor, verifique os dados do cartão.", nil
	}

	limiteDisponivel := cartao.Limit - cartao.Statement
	if valor > limiteDisponivel {
		return fmt.Sprintf("Desculpe, seu limite disponível de R$ %.2f é insuficiente para esta compra de R$ %.2f.",
			limiteDisponivel, valor), nil
	}

	res, err := h.bank.ChargeCard(info.CustomerID, cartaoID, estabelecimento, valor)
	if err != nil {
		return fmt.Sprintf("Desculpe, não foi possível realizar o pagamento: %v", err), nil
	}
	h.recordResult(ctx, info.ConversationID, "pagar_cartao", res)

	return fmt.Sprintf("Compra de R$ %.2f em %s realizada com sucesso.\nSua fatura atual é de R$ %.2f.\nLimite disponível: R$ %.2f",
		valor, estabelecimento, res.NewStatement, cartao.Limit-res.NewStatement), nil
}

// HandleProfile renders the spending-behavior report with personalized
// recommendations.
func (h *Handlers) HandleProfile(ctx context.Context, info turnInfo, _ model.Classification) (string, error) {
	report, err := h.bank.AnalyzeBehavior(info.CustomerID)
	if err != nil {
		if errors.Is(err, errx.ErrInsufficientData) {
			return "Não há transações suficientes para análise.", nil
		}
		return fmt.Sprintf("Desculpe, não foi possível analisar seu perfil: %v", err), nil
	}
	h.recordResult(ctx, info.ConversationID, "analisar_comportamento", report)

	var b strings.Builder
	b.WriteString("# Análise do seu Perfil Financeiro\n\n")
	fmt.Fprintf(&b, "## Perfil do Cliente\n%s\n\n", report.Profile)

	b.WriteString("## Resumo Financeiro\n")
	fmt.Fprintf(&b, "- Total gasto: R$ %.2f\n", report.TotalSpent)
	fmt.Fprintf(&b, "- Número de transações: %d\n", report.TransactionCount)
	fmt.Fprintf(&b, "- Valor médio por transação: R$ %.2f\n\n", report.AverageTransaction)

	if len(report.TopBillCategories) > 0 {
		b.WriteString("## Despesas Fixas\n")
		for _, cat := range report.TopBillCategories {
			fmt.Fprintf(&b, "- %s: %d pagamentos, total de R$ %.2f\n", cat.Name, cat.Count, cat.Total)
		}
		b.WriteByte('\n')
	}

	if len(report.TopMerchants) > 0 {
		b.WriteString("## Compras com Cartão\n")
		for _, cat := range report.TopMerchants {
			fmt.Fprintf(&b, "- %s: %d compras, total de R$ %.2f\n", cat.Name, cat.Count, cat.Total)
		}
		b.WriteByte('\n')
	}

	b.WriteString("## Recomendações Personalizadas\n")
	if report.AverageTransaction > 500 {
		b.WriteString("- Suas transações têm valor médio alto. Considere avaliar cada gasto maior para garantir que está dentro do orçamento.\n")
	}
	if report.TransactionCount > 10 {
		b.WriteString("- Você realiza muitas transações. Considere agrupar pagamentos para ter melhor controle.\n")
	}
	if strings.Contains(report.Profile, "elevado") {
		b.WriteString("- Seu perfil de gastos é elevado. Recomendamos avaliar oportunidades de investimento para maximizar seus recursos.\n")
	} else if strings.Contains(report.Profile, "conservador") {
		b.WriteString("- Seu perfil conservador indica potencial para investimentos de maior rendimento. Consulte nosso gerente de investimentos.\n")
	}

	return b.String(), nil
}
