// Package bank implements the simulated account-of-record store: customer
// balances, card statements and an append-only transaction log. It stands in
// for the real banking APIs behind the assistant.
package bank

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	errx "github.com/fourbank-agent-poc/server/internal/core/error"
)

// TransactionKind discriminates entries in the ledger log.
type TransactionKind string

const (
	KindTransfer    TransactionKind = "transferencia"
	KindBillPayment TransactionKind = "pagamento_boleto"
	KindCardCharge  TransactionKind = "pagamento_cartao"
)

// Customer is a simulated account holder.
type Customer struct {
	ID      string  `json:"id"`
	Name    string  `json:"nome"`
	Account string  `json:"conta"`
	Balance float64 `json:"saldo"`
}

// Card is a simulated credit card. The ledger does not enforce the limit on
// charges; the pay-card handler performs that check before calling ChargeCard.
type Card struct {
	ID        string  `json:"id"`
	Number    string  `json:"numero"`
	Limit     float64 `json:"limite"`
	Statement float64 `json:"fatura_atual"`
}

// Transaction is an immutable log record. Kind-specific fields are left empty
// for the other kinds.
type Transaction struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"data"`
	Kind      TransactionKind `json:"tipo"`
	Amount    float64         `json:"valor"`
	From      string          `json:"origem,omitempty"`
	To        string          `json:"destino,omitempty"`
	Barcode   string          `json:"codigo_barras,omitempty"`
	Merchant  string          `json:"estabelecimento,omitempty"`
	CardID    string          `json:"cartao_id,omitempty"`
	CardOwner string          `json:"cliente_id,omitempty"`
}

// BalanceInfo is the result of a balance lookup.
type BalanceInfo struct {
	Balance float64 `json:"saldo"`
	Account string  `json:"conta"`
	Name    string  `json:"nome"`
}

// MutationResult reports the outcome of a balance-affecting operation.
type MutationResult struct {
	NewBalance    float64 `json:"novo_saldo"`
	TransactionID string  `json:"transacao_id"`
}

// ChargeResult reports the outcome of a card charge.
type ChargeResult struct {
	NewStatement  float64 `json:"fatura_atual"`
	TransactionID string  `json:"transacao_id"`
}

// Ledger owns all simulated account state. A single mutex guards every
// operation so a transfer's two balance updates and its log append are applied
// together or not at all.
type Ledger struct {
	mu           sync.Mutex
	customers    map[string]*Customer
	cards        map[string]*Card
	transactions []Transaction
	now          func() time.Time
}

// NewLedger returns a ledger seeded with the demo customers and cards.
func NewLedger() *Ledger {
	return &Ledger{
		customers: map[string]*Customer{
			"1": {ID: "1", Name: "João Silva", Account: "12345-6", Balance: 5000.00},
			"2": {ID: "2", Name: "Maria Santos", Account: "65432-1", Balance: 8500.00},
			"3": {ID: "3", Name: "Carlos Oliveira", Account: "98765-4", Balance: 2300.00},
		},
		cards: map[string]*Card{
			"1": {ID: "1", Number: "**** **** **** 1234", Limit: 10000.00, Statement: 1200.00},
			"2": {ID: "2", Number: "**** **** **** 5678", Limit: 15000.00, Statement: 3500.00},
			"3": {ID: "3", Number: "**** **** **** 9012", Limit: 5000.00, Statement: 800.00},
		},
		now: time.Now,
	}
}

// GetBalance returns the current balance and account details of a customer.
func (l *Ledger) GetBalance(customerID string) (*BalanceInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.customers[customerID]
	if !ok {
		return nil, errx.ErrCustomerNotFound
	}
	return &BalanceInfo{Balance: c.Balance, Account: c.Account, Name: c.Name}, nil
}

// GetCustomer returns a copy of the customer record.
func (l *Ledger) GetCustomer(customerID string) (*Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.customers[customerID]
	if !ok {
		return nil, errx.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

// GetCard returns a copy of the card record.
func (l *Ledger) GetCard(cardID string) (*Card, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	card, ok := l.cards[cardID]
	if !ok {
		return nil, errx.ErrCardNotFound
	}
	cp := *card
	return &cp, nil
}

// Transfer moves amount between two customers. Both balance updates and the
// log append happen under the ledger lock.
func (l *Ledger) Transfer(fromID, toID string, amount float64) (*MutationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.customers[fromID]
	if !ok {
		return nil, errx.ErrCustomerNotFound
	}
	to, ok := l.customers[toID]
	if !ok {
		return nil, errx.ErrCustomerNotFound
	}
	if amount > from.Balance {
		return nil, errx.ErrInsufficientFunds
	}

	from.Balance -= amount
	to.Balance += amount

	txn := Transaction{
		ID:     uuid.NewString(),
		Date:   l.now(),
		Kind:   KindTransfer,
		Amount: amount,
		From:   fromID,
		To:     toID,
	}
	l.transactions = append(l.transactions, txn)

	return &MutationResult{NewBalance: from.Balance, TransactionID: txn.ID}, nil
}

// PayBill debits a bill payment from the customer's balance.
func (l *Ledger) PayBill(customerID, barcode string, amount float64) (*MutationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.customers[customerID]
	if !ok {
		return nil, errx.ErrCustomerNotFound
	}
	if amount > c.Balance {
		return nil, errx.ErrInsufficientFunds
	}

	c.Balance -= amount

	txn := Transaction{
		ID:      uuid.NewString(),
		Date:    l.now(),
		Kind:    KindBillPayment,
		Amount:  amount,
		From:    customerID,
		Barcode: barcode,
	}
	l.transactions = append(l.transactions, txn)

	return &MutationResult{NewBalance: c.Balance, TransactionID: txn.ID}, nil
}

// ChargeCard adds a purchase to the card statement. The credit limit is not
// enforced here: the caller is responsible for the available-credit pre-check.
func (l *Ledger) ChargeCard(customerID, cardID, merchant string, amount float64) (*ChargeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.customers[customerID]; !ok {
		return nil, errx.ErrCustomerNotFound
	}
	card, ok := l.cards[cardID]
	if !ok {
		return nil, errx.ErrCardNotFound
	}

	card.Statement += amount

	txn := Transaction{
		ID:        uuid.NewString(),
		Date:      l.now(),
		Kind:      KindCardCharge,
		Amount:    amount,
		Merchant:  merchant,
		CardID:    cardID,
		CardOwner: customerID,
	}
	l.transactions = append(l.transactions, txn)

	return &ChargeResult{NewStatement: card.Statement, TransactionID: txn.ID}, nil
}

// ListTransactions returns the customer's transactions most-recent-first,
// truncated to limit. A customer matches as origin, destination or card owner.
func (l *Ledger) ListTransactions(customerID string, limit int) ([]Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.customers[customerID]; !ok {
		return nil, errx.ErrCustomerNotFound
	}

	matched := make([]Transaction, 0, len(l.transactions))
	for _, t := range l.transactions {
		if t.From == customerID || t.To == customerID || t.CardOwner == customerID {
			matched = append(matched, t)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
