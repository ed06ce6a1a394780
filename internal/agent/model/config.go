package model

// ================ Config ================
type ConversationConfig struct {
	TTL      string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Fallback struct {
		MaxTurns int `envconfig:"CONVERSATION_FALLBACK_MAX_TURNS" default:"5"`
	}
	Topics struct {
		MaxTracked int `envconfig:"CONVERSATION_TOPICS_MAX" default:"5"`
	}
}

type GenerationModelConfig struct {
	Model       string  `envconfig:"GENERATION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GENERATION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"GENERATION_TEMPERATURE" default:"0.0"`
}

type BankPromptConfig struct {
	BankName string `envconfig:"PROMPT_BANK_NAME" default:"FourBank"`
}

type BridgeConfig struct {
	Command        string `envconfig:"BRIDGE_COMMAND"`
	TimeoutSeconds int    `envconfig:"BRIDGE_TIMEOUT_SECONDS" default:"10"`
}
