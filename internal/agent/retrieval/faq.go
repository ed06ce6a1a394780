// Package retrieval provides the document store behind the question fallback.
// Snippets come from a fixed FAQ corpus scored by keyword overlap; the
// Retriever port keeps a vector store swap possible without touching callers.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

type document struct {
	id       string
	text     string
	keywords []string
}

// faqCorpus is the built-in knowledge base the question fallback may answer
// from. Each entry mirrors one FAQ section of the bank's official material.
var faqCorpus = []document{
	{
		id:   "faq-contas",
		text: "Para abrir uma conta no banco, o cliente deve apresentar documento de identidade com foto (RG ou CNH), CPF e comprovante de residência emitido nos últimos 90 dias. A abertura pode ser feita em qualquer agência ou pelo aplicativo.",
		keywords: []string{
			"abrir", "conta", "documentos", "documento", "rg", "cnh", "cpf",
			"comprovante", "residência", "abertura", "agência",
		},
	},
	{
		id:   "faq-tarifas",
		text: "A conta digital não possui tarifa de manutenção. Contas tradicionais possuem tarifa mensal de R$ 24,90, isenta para clientes com investimentos acima de R$ 5.000,00. Transferências entre contas do banco são gratuitas.",
		keywords: []string{
			"tarifa", "tarifas", "manutenção", "mensalidade", "custo", "taxa",
			"gratuita", "isenção", "isenta",
		},
	},
	{
		id:   "faq-emprestimos",
		text: "O banco oferece empréstimo pessoal com taxa a partir de 1,8% ao mês, crédito consignado a partir de 1,2% ao mês e financiamento imobiliário. A contratação depende de análise de crédito e pode ser simulada pelo aplicativo.",
		keywords: []string{
			"empréstimo", "emprestimo", "consignado", "financiamento", "crédito",
			"juros", "simulação", "simular", "contratar",
		},
	},
	{
		id:   "faq-cartoes",
		text: "O limite do cartão de crédito pode ser ajustado pelo aplicativo na seção Cartões. Aumentos de limite passam por análise de crédito. O cartão oferece programa de pontos e cashback de 1% em todas as compras.",
		keywords: []string{
			"limite", "cartão", "cartao", "crédito", "aumentar", "ajustar",
			"pontos", "cashback", "anuidade",
		},
	},
	{
		id:   "faq-investimentos",
		text: "O banco oferece CDB com liquidez diária rendendo 100% do CDI, fundos de investimento para todos os perfis e previdência privada. Aplicações podem ser feitas a partir de R$ 100,00 pelo aplicativo.",
		keywords: []string{
			"investimento", "investimentos", "investir", "cdb", "cdi", "fundos",
			"previdência", "poupança", "render", "rendimento", "aplicação",
		},
	},
	{
		id:   "faq-seguranca",
		text: "O banco nunca solicita senha, código de segurança ou dados do cartão por telefone, e-mail ou mensagem. Em caso de suspeita de fraude, bloqueie o cartão pelo aplicativo e entre em contato com a central de atendimento.",
		keywords: []string{
			"segurança", "fraude", "golpe", "senha", "bloquear", "bloqueio",
			"clonado", "suspeita", "phishing",
		},
	},
	{
		id:   "faq-pix",
		text: "O Pix está disponível 24 horas, todos os dias, sem custo para pessoas físicas. Chaves Pix podem ser cadastradas pelo aplicativo usando CPF, e-mail, telefone ou chave aleatória. O limite noturno padrão é de R$ 1.000,00 e pode ser ajustado.",
		keywords: []string{
			"pix", "chave", "chaves", "cadastrar", "instantâneo", "noturno",
		},
	},
}

const maxResults = 3

// FAQRetriever implements model.Retriever over the built-in corpus.
type FAQRetriever struct {
	corpus []document
}

func NewFAQRetriever() *FAQRetriever {
	return &FAQRetriever{corpus: faqCorpus}
}

// Query scores every document by keyword overlap with the question and
// returns the top matches. No match is an empty result, not an error.
func (r *FAQRetriever) Query(_ context.Context, text string) ([]model.Snippet, error) {
	query := strings.ToLower(text)

	type scored struct {
		doc   document
		score int
	}
	var matches []scored
	for _, doc := range r.corpus {
		score := 0
		for _, kw := range doc.keywords {
			if strings.Contains(query, kw) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{doc: doc, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	snippets := make([]model.Snippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, model.Snippet{Text: m.doc.text, SourceID: m.doc.id})
	}

	logx.Debug().
		Int("matches", len(snippets)).
		Msg("FAQ corpus queried")
	return snippets, nil
}
