package ai

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// OllamaClient - локальная модель через Ollama
type OllamaClient struct {
	client    *api.Client
	model     string
	maxTokens int
}

// NewOllamaClient создаёт клиент Ollama.
// Пустой host - берётся OLLAMA_HOST или http://localhost:11434.
func NewOllamaClient(host, model string, maxTokens int) (*OllamaClient, error) {
	var client *api.Client
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("некорректный адрес Ollama: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	} else {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ошибка создания клиента Ollama: %w", err)
		}
		client = c
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	log.Printf("[AI] Клиент Ollama инициализирован, модель: %s", model)
	return &OllamaClient{client: client, model: model, maxTokens: maxTokens}, nil
}

// Provider возвращает имя провайдера
func (c *OllamaClient) Provider() string {
	return ProviderOllama
}

// Generate отправляет чат-запрос без стриминга
func (c *OllamaClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerateResult, error) {
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Options: map[string]any{
			"temperature": 0.3,
		},
		Stream: new(bool),
	}
	if c.maxTokens > 0 {
		req.Options["num_predict"] = c.maxTokens
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к Ollama: %w", err)
	}
	if response.Message.Content == "" {
		return nil, fmt.Errorf("пустой ответ от Ollama")
	}

	return &GenerateResult{
		Response:     response.Message.Content,
		InputTokens:  response.PromptEvalCount,
		OutputTokens: response.EvalCount,
		TotalTokens:  response.PromptEvalCount + response.EvalCount,
	}, nil
}

// Close закрывает клиент
func (c *OllamaClient) Close() error {
	return nil
}
