package model

import (
	"github.com/cloudwego/eino/schema"
)

// Intent is the closed-set label produced by the classifier. Each value names
// exactly one handler node in the graph.
type Intent string

const (
	IntentBalance   Intent = "consulta_saldo"
	IntentTransfer  Intent = "transferencia"
	IntentStatement Intent = "extrato"
	IntentPayBill   Intent = "pagamento_boleto"
	IntentPayCard   Intent = "pagamento_cartao"
	IntentProfile   Intent = "perfil"
	IntentQuestion  Intent = "duvida"
	IntentOther     Intent = "outro"
)

// AllIntents enumerates the classifier's output domain. The router's branch
// map must cover every entry.
var AllIntents = []Intent{
	IntentBalance, IntentTransfer, IntentStatement, IntentPayBill,
	IntentPayCard, IntentProfile, IntentQuestion, IntentOther,
}

// ClassifierRecordName tags the history entry holding a classification result.
const ClassifierRecordName = "classificador_intencao"

// Classification is the (intent, parameters) pair produced once per turn by
// the classifier and consumed by exactly one handler in the same turn.
type Classification struct {
	Intent Intent         `json:"intencao"`
	Params map[string]any `json:"parametros"`
}

// Amount reads a numeric parameter, falling back when absent or mistyped.
func (c Classification) Amount(key string, fallback float64) float64 {
	switch v := c.Params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// Str reads a string parameter, falling back when absent or mistyped.
func (c Classification) Str(key, fallback string) string {
	if v, ok := c.Params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Limit reads an integer parameter, falling back when absent or non-positive.
func (c Classification) Limit(key string, fallback int) int {
	switch v := c.Params[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}

// ChatState is the graph-local state for one turn.
// Concurrency model:
//   - Registered via compose.WithGenLocalState; all reads/writes happen inside
//     Eino state handlers (WithStatePreHandler/PostHandler/ProcessState), which
//     the framework serializes — no extra locking needed.
//   - CustomerID is immutable for the conversation's lifetime.
//   - Classification is transient: set by the classifier node, consumed by the
//     intent branch and the selected handler, then the turn ends.
type ChatState struct {
	ConversationID string
	CustomerID     string
	Classification *Classification
	Topics         []string
}

// QueryInput is the public input for one turn.
type QueryInput struct {
	ConversationID string   `json:"conversation_id"`
	CustomerID     string   `json:"customer_id"`
	Query          string   `json:"query"`
	Topics         []string `json:"topics,omitempty"`
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
