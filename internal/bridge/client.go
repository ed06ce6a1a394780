package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fourbank-agent-poc/server/internal/bank"
	errx "github.com/fourbank-agent-poc/server/internal/core/error"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

// Method names exposed by the backing server.
const (
	MethodGetBalance       = "consultar_saldo"
	MethodGetCustomer      = "buscar_cliente"
	MethodGetCard          = "buscar_cartao"
	MethodTransfer         = "realizar_transferencia"
	MethodListTransactions = "buscar_transacoes"
	MethodPayBill          = "pagar_boleto"
	MethodPayCard          = "pagar_cartao"
	MethodAnalyzeBehavior  = "analisar_comportamento"
)

const defaultTimeout = 10 * time.Second

// BankClient implements the BankService port over a JSON-RPC transport, so
// the ledger boundary can live in a separate process.
type BankClient struct {
	transport Transport
	timeout   time.Duration
}

// NewBankClient wraps a transport. A non-positive timeout gets the default.
func NewBankClient(transport Transport, timeout time.Duration) *BankClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &BankClient{transport: transport, timeout: timeout}
}

// call performs one request/response round trip and decodes the result into
// out. A deadline hit surfaces as ErrBridgeTimeout, distinct from protocol
// and backend errors.
func (c *BankClient) call(method string, params any, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	resp, err := c.transport.Send(ctx, &Request{Method: method, Params: raw})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logx.Error().Str("method", method).Msg("Bridge request timed out")
			return errx.ErrBridgeTimeout
		}
		return fmt.Errorf("bridge %s: %w", method, err)
	}

	if resp.Error != nil {
		return errx.New(domainError(resp.Error), http.StatusBadGateway, fmt.Sprintf("bridge %s failed", method))
	}

	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// domainError maps backend error messages onto the local sentinels so callers
// can branch on them the same way they do against the in-process ledger.
func domainError(rpcErr *RPCError) error {
	msg := strings.ToLower(rpcErr.Message)
	switch {
	case strings.Contains(msg, "cliente não encontrado"):
		return errx.ErrCustomerNotFound
	case strings.Contains(msg, "cartão não encontrado"):
		return errx.ErrCardNotFound
	case strings.Contains(msg, "saldo insuficiente"):
		return errx.ErrInsufficientFunds
	case strings.Contains(msg, "limite de crédito"):
		return errx.ErrInsufficientCredit
	case strings.Contains(msg, "parâmetro inválido"), strings.Contains(msg, "invalid params"):
		return errx.ErrValidation
	case strings.Contains(msg, "transações suficientes"):
		return errx.ErrInsufficientData
	default:
		return rpcErr
	}
}

func (c *BankClient) GetBalance(customerID string) (*bank.BalanceInfo, error) {
	var out bank.BalanceInfo
	err := c.call(MethodGetBalance, map[string]any{"cliente_id": customerID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BankClient) GetCustomer(customerID string) (*bank.Customer, error) {
	var out bank.Customer
	err := c.call(MethodGetCustomer, map[string]any{"cliente_id": customerID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BankClient) GetCard(cardID string) (*bank.Card, error) {
	var out bank.Card
	err := c.call(MethodGetCard, map[string]any{"cartao_id": cardID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BankClient) Transfer(fromID, toID string, amount float64) (*bank.MutationResult, error) {
	var out bank.MutationResult
	err := c.call(MethodTransfer, map[string]any{
		"origem_id":  fromID,
		"destino_id": toID,
		"valor":      amount,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BankClient) ListTransactions(customerID string, limit int) ([]bank.Transaction, error) {
	var out []bank.Transaction
	err := c.call(MethodListTransactions, map[string]any{
		"cliente_id": customerID,
		"limite":     limit,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BankClient) PayBill(customerID, barcode string, amount float64) (*bank.MutationResult, error) {
	var out bank.MutationResult
	err := c.call(MethodPayBill, map[string]any{
		"cliente_id":    customerID,
		"codigo_barras": barcode,
		"valor":         amount,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BankClient) ChargeCard(customerID, cardID, merchant string, amount float64) (*bank.ChargeResult, error) {
	var out bank.ChargeResult
	err := c.call(MethodPayCard, map[string]any{
		"cliente_id":      customerID,
		"cartao_id":       cardID,
		"estabelecimento": merchant,
		"valor":           amount,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BankClient) AnalyzeBehavior(customerID string) (*bank.BehaviorReport, error) {
	var out bank.BehaviorReport
	err := c.call(MethodAnalyzeBehavior, map[string]any{"cliente_id": customerID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Close shuts down the underlying transport.
func (c *BankClient) Close() error {
	return c.transport.Close()
}
