// Package agent holds the per-conversation session wrapper around the
// compiled graph.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/fourbank-agent-poc/server/internal/agent/graph"
	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

// Agent owns one customer conversation: session identity, the topic window,
// and turn serialization. It delegates each turn to the graph runner.
type Agent struct {
	mu         sync.Mutex
	runner     graph.Runner
	bank       model.BankService
	mm         *conversations.MessagesManager
	sessionID  string
	customerID string
	topics     []string
	maxTopics  int
	lastAccess time.Time
}

// New creates a session for one customer. Session ids are short and unique
// so they read well in logs.
func New(runner graph.Runner, bankSvc model.BankService, conversationRepo model.ConversationRepository, customerID string, cfg model.ConversationConfig) *Agent {
	maxTopics := cfg.Topics.MaxTracked
	if maxTopics <= 0 {
		maxTopics = 5
	}
	return &Agent{
		runner:     runner,
		bank:       bankSvc,
		mm:         conversations.NewMessagesManager(conversationRepo, cfg),
		sessionID:  shortuuid.New(),
		customerID: customerID,
		maxTopics:  maxTopics,
		lastAccess: time.Now(),
	}
}

// SessionID returns the session identifier.
func (a *Agent) SessionID() string {
	return a.sessionID
}

// LastAccess returns when the session last processed a turn.
func (a *Agent) LastAccess() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAccess
}

// Greeting seeds the conversation with the opening assistant message and
// returns it. The greeting is part of the visible history, so later fallback
// contexts include it.
func (a *Agent) Greeting(ctx context.Context) (string, error) {
	customer, err := a.bank.GetCustomer(a.customerID)
	if err != nil {
		return "", fmt.Errorf("load customer for greeting: %w", err)
	}
	greeting := fmt.Sprintf("Olá, %s! Como posso ajudar você hoje?", customer.Name)
	if err := a.mm.SaveResponse(ctx, a.sessionID, greeting); err != nil {
		return "", fmt.Errorf("seed greeting: %w", err)
	}
	return greeting, nil
}

// Chat processes one user turn and returns the assistant reply. Turns within
// a session run one at a time.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lastAccess = time.Now()
	a.topics = conversations.MergeTopics(a.topics, conversations.ExtractTopics(message), a.maxTopics)

	reply, err := a.runner.Invoke(ctx, model.QueryInput{
		ConversationID: a.sessionID,
		CustomerID:     a.customerID,
		Query:          message,
		Topics:         append([]string{}, a.topics...),
	})
	if err != nil {
		logx.Error().
			Str("session_id", a.sessionID).
			Err(err).
			Msg("Error processing turn")
		return "", err
	}
	return reply, nil
}

// Topics returns a copy of the session's topic window.
func (a *Agent) Topics() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.topics...)
}
