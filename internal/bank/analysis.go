package bank

import (
	"sort"

	errx "github.com/fourbank-agent-poc/server/internal/core/error"
)

// CategoryTotal aggregates spending for one bill category or merchant.
type CategoryTotal struct {
	Name  string  `json:"categoria"`
	Count int     `json:"quantidade"`
	Total float64 `json:"valor"`
}

// BehaviorReport summarizes a customer's outgoing transactions.
type BehaviorReport struct {
	TotalSpent         float64         `json:"total_gastos"`
	TransactionCount   int             `json:"num_transacoes"`
	AverageTransaction float64         `json:"valor_medio_transacao"`
	TopBillCategories  []CategoryTotal `json:"principais_categorias_boletos"`
	TopMerchants       []CategoryTotal `json:"principais_categorias_estabelecimentos"`
	Profile            string          `json:"perfil_descritivo"`
}

// billCategory maps a barcode prefix to a utility category.
func billCategory(barcode string) string {
	switch {
	case len(barcode) >= 3 && barcode[:3] == "765":
		return "Água"
	case len(barcode) >= 3 && barcode[:3] == "891":
		return "Energia"
	default:
		return "Outros"
	}
}

// AnalyzeBehavior aggregates the customer's outgoing transactions (transfers
// and bill payments as origin, card charges as owner) into a spending profile.
// Returns ErrInsufficientData when there is nothing to analyze.
func (l *Ledger) AnalyzeBehavior(customerID string) (*BehaviorReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []Transaction
	for _, t := range l.transactions {
		switch t.Kind {
		case KindTransfer, KindBillPayment:
			if t.From == customerID {
				matched = append(matched, t)
			}
		case KindCardCharge:
			if t.CardOwner == customerID {
				matched = append(matched, t)
			}
		}
	}

	if len(matched) == 0 {
		return nil, errx.ErrInsufficientData
	}

	var total float64
	bills := map[string]*CategoryTotal{}
	merchants := map[string]*CategoryTotal{}

	for _, t := range matched {
		total += t.Amount

		switch t.Kind {
		case KindBillPayment:
			cat := billCategory(t.Barcode)
			if bills[cat] == nil {
				bills[cat] = &CategoryTotal{Name: cat}
			}
			bills[cat].Count++
			bills[cat].Total += t.Amount
		case KindCardCharge:
			name := t.Merchant
			if name == "" {
				name = "Desconhecido"
			}
			if merchants[name] == nil {
				merchants[name] = &CategoryTotal{Name: name}
			}
			merchants[name].Count++
			merchants[name].Total += t.Amount
		}
	}

	profile := "Cliente com perfil de gastos moderado."
	if total > 1000 {
		profile = "Cliente com perfil de gastos elevado."
	} else if total < 200 {
		profile = "Cliente com perfil de gastos conservador."
	}

	return &BehaviorReport{
		TotalSpent:         total,
		TransactionCount:   len(matched),
		AverageTransaction: total / float64(len(matched)),
		TopBillCategories:  topCategories(bills, 3),
		TopMerchants:       topCategories(merchants, 3),
		Profile:            profile,
	}, nil
}

// topCategories ranks categories by aggregated amount descending, keeping n.
func topCategories(m map[string]*CategoryTotal, n int) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
