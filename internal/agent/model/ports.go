package model

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/bank"
)

// Generator is the opaque text-generation capability consumed by the fallback
// responders. Implementations must return plain text; callers never assume the
// response is machine-parseable.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// Snippet is one retrieval result.
type Snippet struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
}

// Retriever is the opaque retrieval capability. An empty result is a valid
// outcome and must be handled distinctly from an error.
type Retriever interface {
	Query(ctx context.Context, text string) ([]Snippet, error)
}

// BankService is the ledger boundary consumed by the turn handlers. It may be
// backed in-process (bank.Ledger) or by a remote bridge; handlers do not
// depend on which.
type BankService interface {
	GetBalance(customerID string) (*bank.BalanceInfo, error)
	GetCustomer(customerID string) (*bank.Customer, error)
	GetCard(cardID string) (*bank.Card, error)
	Transfer(fromID, toID string, amount float64) (*bank.MutationResult, error)
	ListTransactions(customerID string, limit int) ([]bank.Transaction, error)
	PayBill(customerID, barcode string, amount float64) (*bank.MutationResult, error)
	ChargeCard(customerID, cardID, merchant string, amount float64) (*bank.ChargeResult, error)
	AnalyzeBehavior(customerID string) (*bank.BehaviorReport, error)
}
