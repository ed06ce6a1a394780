// Package nodes holds the graph nodes for the banking assistant: the intent
// classifier entry node, one deterministic handler node per transactional
// intent, and the retrieval/generation fallback nodes.
package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/fourbank-agent-poc/server/internal/agent/classifier"
	"github.com/fourbank-agent-poc/server/internal/agent/graph/conversations"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

// NodeClassifier is the graph entry node. Handler nodes are named after their
// intent label, so the router condition returns the intent as the node key.
const NodeClassifier = "classificador_intencao"

// NodeNameFor returns the graph node key for an intent.
func NodeNameFor(intent model.Intent) string {
	return string(intent)
}

// NewClassifierPreHandler seeds the graph state for the turn: identity fields
// and the session topic window. Classification is cleared so a stale record
// can never leak into a new turn.
func NewClassifierPreHandler() func(context.Context, model.QueryInput, *model.ChatState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.ChatState) (model.QueryInput, error) {
		s.ConversationID = in.ConversationID
		s.CustomerID = in.CustomerID
		s.Topics = in.Topics
		s.Classification = nil
		return in, nil
	}
}

// NewClassifierNode creates the entry node: it appends the user message to
// history, runs the rule classifier and records the classification.
func NewClassifierNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (model.Classification, error) {
		if err := mm.RecordUserMessage(ctx, input.ConversationID, input.Query); err != nil {
			return model.Classification{}, fmt.Errorf("record user message: %w", err)
		}

		c := classifier.Classify(input.Query)

		if err := mm.RecordClassification(ctx, input.ConversationID, c); err != nil {
			return model.Classification{}, fmt.Errorf("record classification: %w", err)
		}

		logx.Debug().
			Str("conversation_id", input.ConversationID).
			Str("intent", string(c.Intent)).
			Interface("params", c.Params).
			Msg("Message classified")

		return c, nil
	})
}

// NewClassifierPostHandler stores the classification in state so handler
// nodes can read identity and parameters without rescanning history.
func NewClassifierPostHandler() func(context.Context, model.Classification, *model.ChatState) (model.Classification, error) {
	return func(ctx context.Context, out model.Classification, state *model.ChatState) (model.Classification, error) {
		state.Classification = &out
		return out, nil
	}
}

// NewIntentRouter creates the branch condition mapping the classification to
// its handler node. The classifier's output domain is closed, so every intent
// resolves to a registered node.
func NewIntentRouter() func(context.Context, model.Classification) (string, error) {
	return func(ctx context.Context, input model.Classification) (string, error) {
		logx.Debug().Str("intent", string(input.Intent)).Msg("Routing to handler")
		return NodeNameFor(input.Intent), nil
	}
}

// turnInfo is the per-turn identity snapshot handler nodes read from state.
type turnInfo struct {
	ConversationID string
	CustomerID     string
	Topics         []string
}

func readTurnInfo(ctx context.Context) (turnInfo, error) {
	var info turnInfo
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
		if state.CustomerID == "" {
			return fmt.Errorf("missing customer id in state")
		}
		info = turnInfo{
			ConversationID: state.ConversationID,
			CustomerID:     state.CustomerID,
			Topics:         state.Topics,
		}
		return nil
	})
	if err != nil {
		return turnInfo{}, fmt.Errorf("failed to access state: %w", err)
	}
	return info, nil
}

// turnFunc is the shape shared by all handler implementations: classification
// in, final reply text out. Every turn ends with exactly one reply.
type turnFunc func(ctx context.Context, info turnInfo, c model.Classification) (string, error)

// newReplyNode wraps a turnFunc into a terminal graph node that persists the
// reply before emitting it.
func newReplyNode(mm *conversations.MessagesManager, handle turnFunc) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, c model.Classification) (*schema.Message, error) {
		info, err := readTurnInfo(ctx)
		if err != nil {
			return nil, err
		}

		reply, err := handle(ctx, info, c)
		if err != nil {
			return nil, err
		}

		if err := mm.SaveResponse(ctx, info.ConversationID, reply); err != nil {
			logx.Error().
				Str("conversation_id", info.ConversationID).
				Err(err).
				Msg("Error saving assistant reply")
		}

		return schema.AssistantMessage(reply, nil), nil
	})
}
