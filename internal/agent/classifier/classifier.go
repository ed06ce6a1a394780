// Package classifier maps free-text user messages to a banking intent plus
// extracted parameters. Classification is deliberately rule-based: an ordered,
// short-circuiting table of keyword rules with per-rule parameter extractors.
package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
)

var (
	amountRe = regexp.MustCompile(`R?\$?\s?(\d+(?:[.,]\d+)?)`)
	periodRe = regexp.MustCompile(`últim[oa]s?\s+(\d+)`)
)

// questionMarkers flag FAQ-style messages. The flag suppresses the bill and
// card rules, whose keyword sets ("conta", "fatura", "crédito") overlap with
// ordinary question phrasing.
var questionMarkers = []string{
	"?", "como", "o que é", "explique", "qual", "quando", "por que",
	"dúvida", "pergunta", "pode me informar", "gostaria de saber",
	"necessário", "necessarios", "documentos", "documentação",
}

// recipientDirectory maps recipient name fragments to customer ids.
// Listed in match priority order; the default recipient is customer 2.
var recipientDirectory = []struct {
	fragment string
	id       string
}{
	{"maria", "2"},
	{"carlos", "3"},
	{"oliveira", "3"},
}

const defaultRecipientID = "2"

// barcodesByUtility maps utility keywords to simulated 20-digit barcodes.
var barcodesByUtility = []struct {
	keywords []string
	barcode  string
}{
	{[]string{"água"}, "76543210987654321098"},
	{[]string{"luz", "energia"}, "89123456789012345678"},
	{[]string{"internet"}, "45678901234567890123"},
	{[]string{"telefone", "celular"}, "32109876543210987654"},
}

const genericBarcode = "12345678901234567890"

// merchantGroups map purchase keywords to a merchant category.
var merchantGroups = []struct {
	keywords []string
	merchant string
}{
	{[]string{"restaurante", "lanchonete", "comida"}, "Restaurante"},
	{[]string{"mercado", "supermercado", "compras"}, "Supermercado"},
	{[]string{"farmácia", "remédio", "medicamento"}, "Farmácia"},
	{[]string{"posto", "gasolina", "combustível"}, "Posto de Combustível"},
}

const defaultMerchant = "Estabelecimento"

// rule is one entry of the ordered classification table. Evaluation is
// top-to-bottom and the first match wins; suppressOnQuestion rules are skipped
// when the message carries a question marker.
type rule struct {
	intent             model.Intent
	keywords           []string
	suppressOnQuestion bool
	extract            func(msg string) map[string]any
}

// rules is ordered by priority. The order is load-bearing: transactional
// intents outrank the question fallback, except for the bill/card rules which
// yield to it.
var rules = []rule{
	{
		intent:   model.IntentBalance,
		keywords: []string{"saldo", "quanto tenho", "disponível", "sobrou", "restante"},
	},
	{
		intent:   model.IntentTransfer,
		keywords: []string{"transferir", "transferência", "enviar", "mandar", "depositar", "passar", "pix"},
		extract: func(msg string) map[string]any {
			return map[string]any{
				"valor":      extractAmount(msg, 100),
				"destino_id": extractRecipient(msg),
			}
		},
	},
	{
		intent:   model.IntentStatement,
		keywords: []string{"transações", "extrato", "movimentações", "histórico", "atividade"},
		extract: func(msg string) map[string]any {
			return map[string]any{"limite": extractPeriod(msg, 5)}
		},
	},
	{
		intent:             model.IntentPayBill,
		keywords:           []string{"boleto", "conta", "fatura", "água", "luz", "energia", "internet", "telefone"},
		suppressOnQuestion: true,
		extract: func(msg string) map[string]any {
			return map[string]any{
				"valor":         extractAmount(msg, 150),
				"codigo_barras": extractBarcode(msg),
			}
		},
	},
	{
		intent:             model.IntentPayCard,
		keywords:           []string{"cartão", "comprar", "compra", "crédito", "débito"},
		suppressOnQuestion: true,
		extract: func(msg string) map[string]any {
			return map[string]any{
				"valor":           extractAmount(msg, 80),
				"estabelecimento": extractMerchant(msg),
				"cartao_id":       "1",
			}
		},
	},
	{
		intent:   model.IntentProfile,
		keywords: []string{"perfil", "comportamento", "análise", "gastos", "financeiro"},
	},
}

// Classify maps the latest user message to an intent and its parameters.
// Pure function: no state, no side effects.
func Classify(text string) model.Classification {
	isQuestion := hasQuestionMarker(text)
	msg := strings.ToLower(text)

	for _, r := range rules {
		if r.suppressOnQuestion && isQuestion {
			continue
		}
		if !containsAny(msg, r.keywords) {
			continue
		}
		params := map[string]any{}
		if r.extract != nil {
			params = r.extract(msg)
		}
		return model.Classification{Intent: r.intent, Params: params}
	}

	if isQuestion {
		return model.Classification{
			Intent: model.IntentQuestion,
			Params: map[string]any{"query": msg},
		}
	}
	return model.Classification{Intent: model.IntentOther, Params: map[string]any{}}
}

func hasQuestionMarker(text string) bool {
	msg := strings.ToLower(text)
	return containsAny(msg, questionMarkers) || isAllUpper(text)
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// isAllUpper reports whether the text has at least one letter and every
// letter is uppercase (shouted messages are treated as questions).
func isAllUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return hasLetter
}

// extractAmount finds the first currency amount ("R$ 200", "90,50"), using a
// comma or dot as the fractional separator.
func extractAmount(msg string, fallback float64) float64 {
	m := amountRe.FindStringSubmatch(msg)
	if m == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return fallback
	}
	return v
}

// extractPeriod reads a "últimas N" phrase into a statement limit.
func extractPeriod(msg string, fallback int) int {
	m := periodRe.FindStringSubmatch(msg)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func extractRecipient(msg string) string {
	for _, e := range recipientDirectory {
		if strings.Contains(msg, e.fragment) {
			return e.id
		}
	}
	return defaultRecipientID
}

func extractBarcode(msg string) string {
	for _, e := range barcodesByUtility {
		if containsAny(msg, e.keywords) {
			return e.barcode
		}
	}
	return genericBarcode
}

func extractMerchant(msg string) string {
	for _, e := range merchantGroups {
		if containsAny(msg, e.keywords) {
			return e.merchant
		}
	}
	return defaultMerchant
}
