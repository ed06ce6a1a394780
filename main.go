package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/fourbank-agent-poc/server/internal/agent"
	"github.com/fourbank-agent-poc/server/internal/agent/graph"
	"github.com/fourbank-agent-poc/server/internal/agent/llm"
	"github.com/fourbank-agent-poc/server/internal/agent/model"
	"github.com/fourbank-agent-poc/server/internal/agent/repo"
	"github.com/fourbank-agent-poc/server/internal/agent/retrieval"
	"github.com/fourbank-agent-poc/server/internal/bank"
	"github.com/fourbank-agent-poc/server/internal/bridge"
	"github.com/fourbank-agent-poc/server/internal/core"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
	pkgredis "github.com/fourbank-agent-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Generation   model.GenerationModelConfig
	Prompt       model.BankPromptConfig
	Conversation model.ConversationConfig
	Bridge       model.BridgeConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(os.Getenv("APP_ENV"))})

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	// Conversation history: Redis when configured, in-process otherwise.
	var conversationRepo model.ConversationRepository
	if envCfg.Redis.URL != "" {
		ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
		if err != nil {
			log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
		}
		rdb, err := envCfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()
		conversationRepo = repo.NewRedisConversationRepository(rdb, ttl)
		fmt.Println("Connected to Redis successfully")
	} else {
		conversationRepo = repo.NewMemoryConversationRepository()
		fmt.Println("Using in-memory conversation history")
	}

	// Ledger boundary: remote over the bridge when configured, in-process
	// otherwise.
	var bankSvc model.BankService
	if envCfg.Bridge.Command != "" {
		parts := strings.Fields(envCfg.Bridge.Command)
		transport, err := bridge.SpawnStdioTransport(ctx, parts[0], parts[1:]...)
		if err != nil {
			log.Fatalf("Failed to start bridge backend: %v", err)
		}
		client := bridge.NewBankClient(transport, time.Duration(envCfg.Bridge.TimeoutSeconds)*time.Second)
		defer client.Close()
		bankSvc = client
		fmt.Printf("Using bridged banking backend: %s\n", envCfg.Bridge.Command)
	} else {
		bankSvc = bank.NewLedger()
		fmt.Println("Using in-process simulated ledger")
	}

	generator, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
		APIKey:  envCfg.APIKey,
		BaseURL: envCfg.BaseURL,
		Model:   envCfg.Generation,
	})
	if err != nil {
		log.Fatalf("Failed to create generation model: %v", err)
	}

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		Generator:        generator,
		Retriever:        retrieval.NewFAQRetriever(),
		Bank:             bankSvc,
		Conversation:     envCfg.Conversation,
		ConversationRepo: conversationRepo,
		Prompt:           envCfg.Prompt,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	session := agent.New(runner, bankSvc, conversationRepo, "1", envCfg.Conversation)

	greeting, err := session.Greeting(ctx)
	if err != nil {
		log.Fatalf("Failed to build greeting: %v", err)
	}
	fmt.Printf("\n%s\n", greeting)

	demoTurns := []struct {
		description string
		message     string
	}{
		{"Balance inquiry", "Qual o meu saldo?"},
		{"Transfer", "Quero transferir R$ 200 para Maria"},
		{"Bill payment", "Pagar boleto de água de R$ 90"},
		{"Card purchase", "Paguei R$ 150 no restaurante com o cartão"},
		{"Statement", "Me mostra as últimas 5 transações"},
		{"Spending profile", "Como está meu perfil de gastos?"},
		{"FAQ question", "Como faço para abrir uma conta?"},
		{"Small talk", "Obrigado pela ajuda!"},
	}

	for i, turn := range demoTurns {
		fmt.Printf("\nTurn %d: %s\n", i+1, turn.description)
		fmt.Printf("User: %q\n", turn.message)

		reply, err := session.Chat(ctx, turn.message)
		if err != nil {
			log.Fatalf("Failed to process turn %d: %v", i+1, err)
		}
		fmt.Printf("Assistant: %s\n", reply)
		fmt.Println("────────────────────────────────────────────────")

		time.Sleep(500 * time.Millisecond)
	}

	if count, err := conversationRepo.GetMessageCount(ctx, session.SessionID()); err == nil {
		fmt.Printf("\nConversation history: %d messages persisted\n", count)
	}
	fmt.Println("Demo conversation completed.")
}
