package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/user/route-optimizer-api/internal/models"
	"github.com/user/route-optimizer-api/internal/repository"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
	"github.com/user/route-optimizer-api/internal/services/strategy"
	"golang.org/x/sync/errgroup"
)

// Источник ответа
const (
	SourceQuery = "query"
	SourceAI    = "ai"
)

var (
	// ErrEmptyMessage - пустой вопрос
	ErrEmptyMessage = errors.New("сообщение не может быть пустым")
	// ErrQueryFailed - распознанный запрос не выполнился
	ErrQueryFailed = errors.New("ошибка выполнения запроса")
	// ErrContextFailed - не удалось загрузить данные клиента из БД
	ErrContextFailed = errors.New("ошибка загрузки данных клиента")
)

// "cliente 653025", "client: 12", "Cliente653025"
var clientIDPattern = regexp.MustCompile(`(?i)client(?:e)?[\s:]*([0-9]+)`)

// ClientStore - поиск клиента по ID
type ClientStore interface {
	GetClientByID(ctx context.Context, clientID string) (*models.ClientSummary, error)
}

// QueryRunner - прямые ответы из аналитических шаблонов
type QueryRunner interface {
	ResolveAndExecute(ctx context.Context, text string) *query.Result
}

// MetricsSource - метрики клиента
type MetricsSource interface {
	ComputeForClient(ctx context.Context, clientID string) (*metrics.Metrics, error)
}

// Assistant - генеративная модель
type Assistant interface {
	Ask(ctx context.Context, requestType, prompt string) (string, error)
}

// Request - вопрос пользователя
type Request struct {
	Message  string `json:"message"`
	ClientID string `json:"client_id"`
}

// Response - ответ ассистента
type Response struct {
	Answer        string `json:"answer"`
	Source        string `json:"source"`
	ClientID      string `json:"client_id,omitempty"`
	HasClientData bool   `json:"has_client_data"`
	HasMetrics    bool   `json:"has_metrics"`
	QueryType     string `json:"query_type,omitempty"`
}

// Service - обработка вопросов чата
type Service struct {
	clients   ClientStore
	queries   QueryRunner
	metrics   MetricsSource
	assistant Assistant
}

// NewService создаёт сервис чата
func NewService(clients ClientStore, queries QueryRunner, metrics MetricsSource, assistant Assistant) *Service {
	return &Service{clients: clients, queries: queries, metrics: metrics, assistant: assistant}
}

// Handle отвечает на вопрос: сначала пробует аналитический шаблон,
// иначе собирает контекст клиента и спрашивает модель.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if result := s.queries.ResolveAndExecute(ctx, message); result != nil {
		if result.IsError() {
			return nil, fmt.Errorf("%w: %s", ErrQueryFailed, result.Summary)
		}
		if len(result.Rows) > 0 {
			log.Printf("[Chat] Прямой ответ из шаблона: %s (%d строк)", result.Type, len(result.Rows))
			return &Response{
				Answer:    query.Format(result),
				Source:    SourceQuery,
				QueryType: result.Type,
			}, nil
		}
		log.Printf("[Chat] Шаблон %q не вернул строк, передаём вопрос модели", result.Type)
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = ExtractClientID(message)
	}

	cc, err := s.gatherContext(ctx, clientID)
	if err != nil {
		return nil, err
	}

	answer, err := s.assistant.Ask(ctx, "chat", BuildPrompt(message, cc))
	if err != nil {
		return nil, err
	}

	return &Response{
		Answer:        answer,
		Source:        SourceAI,
		ClientID:      clientID,
		HasClientData: cc.Client != nil,
		HasMetrics:    cc.Metrics != nil,
	}, nil
}

// ExtractClientID ищет ID клиента в тексте ("" если нет)
func ExtractClientID(message string) string {
	m := clientIDPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}

// gatherContext загружает запись и метрики клиента параллельно.
// Отсутствие клиента не ошибка; сбой метрик только логируется.
func (s *Service) gatherContext(ctx context.Context, clientID string) (*ClientContext, error) {
	cc := &ClientContext{}
	if clientID == "" {
		return cc, nil
	}

	var client *models.ClientSummary
	var m *metrics.Metrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.clients.GetClientByID(gctx, clientID)
		if err != nil {
			if errors.Is(err, repository.ErrClientNotFound) {
				log.Printf("[Chat] Клиент %s не найден", clientID)
				return nil
			}
			return fmt.Errorf("%w %s: %w", ErrContextFailed, clientID, err)
		}
		client = c
		return nil
	})
	g.Go(func() error {
		res, err := s.metrics.ComputeForClient(gctx, clientID)
		if err != nil {
			log.Printf("[Chat] Не удалось получить метрики клиента %s: %v", clientID, err)
			return nil
		}
		m = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if client == nil {
		return cc, nil
	}
	cc.Client = client
	cc.Metrics = m
	st := strategy.Classify(models.StringOr(client.ClusterName, ""))
	cc.Strategy = &st
	return cc, nil
}
