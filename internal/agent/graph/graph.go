// Package graph wires the conversation flow: one classifier entry node, an
// intent branch, and one terminal handler node per intent.
package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/graph/nodes"
	"github.com/fourbank-agent-poc/server/internal/agent/graph/observers"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public QueryInput.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the full conversation graph
// end-to-end. This is a convenience layer over GraphConfig that also
// constructs the MessagesManager and the node groups.
type Config struct {
	Generator        model.Generator
	Retriever        model.Retriever
	Bank             model.BankService
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Prompt           model.BankPromptConfig
}

// GraphConfig holds all components needed to build the graph.
type GraphConfig struct {
	MessagesManager *conversations.MessagesManager
	Handlers        *nodes.Handlers
	Fallbacks       *nodes.Fallbacks
}

// GraphBuilder handles the construction of the conversation graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

// BuildResponseGraph composes the MessagesManager and node groups, builds the
// graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("bank service is nil")
	}
	if cfg.Generator == nil || cfg.Retriever == nil {
		return nil, fmt.Errorf("fallback capabilities are not properly initialized")
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		MessagesManager: mm,
		Handlers:        nodes.NewHandlers(cfg.Bank, mm),
		Fallbacks:       nodes.NewFallbacks(cfg.Generator, cfg.Retriever, cfg.Bank, mm, cfg.Prompt),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Conversation graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled conversation graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Handlers == nil || config.Fallbacks == nil {
		return nil, fmt.Errorf("handler nodes are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.ChatState {
				return &model.ChatState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds the classifier and one handler node per intent.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeClassifier,
		nodes.NewClassifierNode(b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewClassifierPreHandler()),
		compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
	)

	handlerNodes := map[model.Intent]*compose.Lambda{
		model.IntentBalance:   b.config.Handlers.NewBalanceNode(),
		model.IntentTransfer:  b.config.Handlers.NewTransferNode(),
		model.IntentStatement: b.config.Handlers.NewStatementNode(),
		model.IntentPayBill:   b.config.Handlers.NewPayBillNode(),
		model.IntentPayCard:   b.config.Handlers.NewPayCardNode(),
		model.IntentProfile:   b.config.Handlers.NewProfileNode(),
		model.IntentQuestion:  b.config.Fallbacks.NewQuestionNode(),
		model.IntentOther:     b.config.Fallbacks.NewOtherNode(),
	}
	for intent, node := range handlerNodes {
		b.graph.AddLambdaNode(nodes.NodeNameFor(intent), node)
	}
}

// addEdges creates the main flow connections: every handler is terminal.
func (b *GraphBuilder) addEdges() {
	b.graph.AddEdge(compose.START, nodes.NodeClassifier)
	for _, intent := range model.AllIntents {
		b.graph.AddEdge(nodes.NodeNameFor(intent), compose.END)
	}
}

// addBranches routes the classification to its handler node. The branch map
// covers the classifier's whole output domain.
func (b *GraphBuilder) addBranches() error {
	targets := make(map[string]bool, len(model.AllIntents))
	for _, intent := range model.AllIntents {
		targets[nodes.NodeNameFor(intent)] = true
	}

	intentBranch := compose.NewGraphBranch(nodes.NewIntentRouter(), targets)
	if err := b.graph.AddBranch(nodes.NodeClassifier, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
