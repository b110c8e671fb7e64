package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/openai/openai-go/v2"
	oaioption "github.com/openai/openai-go/v2/option"
)

// OpenAIClient - клиент OpenAI-совместимого API (DeepSeek, Azure OpenAI)
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient создаёт клиент OpenAI-совместимого API
func NewOpenAIClient(apiKey, baseURL, model string, maxTokens int) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	client := openai.NewClient(
		oaioption.WithBaseURL(baseURL),
		oaioption.WithAPIKey(apiKey),
	)

	log.Printf("[AI] Клиент OpenAI-совместимого API инициализирован: %s, модель: %s", baseURL, model)
	return &OpenAIClient{client: client, model: model, maxTokens: maxTokens}
}

// Provider возвращает имя провайдера
func (c *OpenAIClient) Provider() string {
	return ProviderOpenAI
}

// Generate отправляет запрос chat/completions
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerateResult, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userPrompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.3),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("пустой ответ от %s", c.model)
	}

	return &GenerateResult{
		Response:     resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}, nil
}

// Close закрывает клиент
func (c *OpenAIClient) Close() error {
	return nil
}
