package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMatchesAccountOpening(t *testing.T) {
	r := NewFAQRetriever()

	snippets, err := r.Query(context.Background(), "Quais documentos preciso para abrir uma conta?")
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Equal(t, "faq-contas", snippets[0].SourceID)
	assert.Contains(t, snippets[0].Text, "comprovante de residência")
}

func TestQueryRanksBestMatchFirst(t *testing.T) {
	r := NewFAQRetriever()

	snippets, err := r.Query(context.Background(), "como aumentar o limite do meu cartão de crédito?")
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Equal(t, "faq-cartoes", snippets[0].SourceID)
}

func TestQueryNoMatchReturnsEmptyNotError(t *testing.T) {
	r := NewFAQRetriever()

	snippets, err := r.Query(context.Background(), "qual o horóscopo de hoje?")
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestQueryCapsResults(t *testing.T) {
	r := NewFAQRetriever()

	// Touches conta, tarifa, crédito, investimento and pix keywords at once.
	snippets, err := r.Query(context.Background(), "conta tarifa crédito investimento pix segurança limite")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(snippets), maxResults)
}
