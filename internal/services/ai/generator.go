package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/route-optimizer-api/internal/config"
)

// Провайдеры генеративной модели
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Модели по умолчанию
const (
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOpenAIModel = "deepseek-chat"
	DefaultOllamaModel = "llama3.2"

	// DeepSeek API endpoint (OpenAI-совместимый)
	DefaultOpenAIBaseURL = "https://api.deepseek.com"
)

// GenerateResult - результат генерации
type GenerateResult struct {
	Response     string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Generator - внешний генеративный сервис: промпт на входе, текст на выходе
type Generator interface {
	Provider() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerateResult, error)
	Close() error
}

// NewGenerator создаёт клиента выбранного провайдера
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens), nil
	case ProviderOllama:
		return NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("неизвестный AI провайдер: %s", cfg.Provider)
	}
}

// requiresAPIKey - локальной модели ключ не нужен
func requiresAPIKey(provider string) bool {
	return strings.ToLower(provider) != ProviderOllama
}
