package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/user/route-optimizer-api/internal/config"
	"github.com/user/route-optimizer-api/internal/models"
	"golang.org/x/time/rate"
)

var (
	// ErrDisabled - генеративная модель не настроена
	ErrDisabled = errors.New("AI сервис отключён")
	// ErrRateLimited - превышен лимит запросов к модели
	ErrRateLimited = errors.New("превышен лимит запросов к AI")
)

// UsageStore - журнал обращений к модели
type UsageStore interface {
	CreateAIUsageLog(log *models.AIUsageLog) error
	GetAIUsageLogs(days int) ([]models.AIUsageLog, error)
}

// Service - обращения к генеративной модели с лимитом, таймаутом и учётом токенов
type Service struct {
	repo        UsageStore
	cfg         config.AIConfig
	generator   Generator
	rateLimiter *rate.Limiter
	mu          sync.RWMutex
}

// NewService создаёт новый сервис AI
func NewService(repo UsageStore, cfg config.AIConfig) *Service {
	s := &Service{repo: repo, cfg: cfg}
	s.updateRateLimiter(cfg.RateLimitPerMinute)
	return s
}

// Initialize создаёт клиента провайдера из конфигурации
func (s *Service) Initialize(ctx context.Context) error {
	if s.cfg.APIKey == "" && requiresAPIKey(s.cfg.Provider) {
		log.Println("[AI] Сервис отключён (нет API ключа)")
		return nil
	}

	generator, err := NewGenerator(ctx, s.cfg)
	if err != nil {
		log.Printf("[AI] Ошибка инициализации клиента: %v", err)
		return err
	}
	s.SetGenerator(generator)
	log.Printf("[AI] Сервис успешно инициализирован (%s)", generator.Provider())
	return nil
}

// SetGenerator подменяет клиента модели
func (s *Service) SetGenerator(g Generator) {
	s.mu.Lock()
	old := s.generator
	s.generator = g
	s.mu.Unlock()

	if old != nil && old != g {
		if err := old.Close(); err != nil {
			log.Printf("[AI] Ошибка закрытия клиента: %v", err)
		}
	}
}

// updateRateLimiter обновляет лимитер запросов
func (s *Service) updateRateLimiter(requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	// Burst = requestsPerMinute чтобы сразу можно было делать запросы
	s.rateLimiter = rate.NewLimiter(rate.Every(interval), requestsPerMinute)
	log.Printf("[AI] Rate limiter обновлён: %d запросов/мин", requestsPerMinute)
}

// IsEnabled проверяет, активен ли AI сервис
func (s *Service) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generator != nil
}

// Provider возвращает активного провайдера ("" если отключён)
func (s *Service) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.generator == nil {
		return ""
	}
	return s.generator.Provider()
}

// Ask отправляет готовый промпт модели и возвращает текст ответа.
// Запрос ограничен таймаутом из конфигурации.
func (s *Service) Ask(ctx context.Context, requestType, prompt string) (string, error) {
	s.mu.RLock()
	generator := s.generator
	s.mu.RUnlock()

	if generator == nil {
		return "", ErrDisabled
	}
	if !s.rateLimiter.Allow() {
		return "", ErrRateLimited
	}

	if timeout := s.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := generator.Generate(ctx, AssistantSystemPrompt, prompt)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("таймаут запроса к AI (%v): %w: %w", s.cfg.Timeout(), context.DeadlineExceeded, err)
		}
		s.logUsage(requestType, generator.Provider(), nil, duration, err)
		return "", err
	}

	s.logUsage(requestType, generator.Provider(), result, duration, nil)
	log.Printf("[AI] Ответ получен за %v (%d токенов)", duration, result.TotalTokens)
	return result.Response, nil
}

// Close закрывает клиента модели
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generator == nil {
		return nil
	}
	err := s.generator.Close()
	s.generator = nil
	return err
}

// UsageStats - статистика использования AI
type UsageStats struct {
	TotalRequests      int   `json:"total_requests"`
	SuccessfulRequests int   `json:"successful_requests"`
	FailedRequests     int   `json:"failed_requests"`
	TotalTokens        int   `json:"total_tokens"`
	InputTokens        int   `json:"input_tokens"`
	OutputTokens       int   `json:"output_tokens"`
	AvgDurationMs      int64 `json:"avg_duration_ms"`
}

// GetUsageStats возвращает статистику использования за days дней
func (s *Service) GetUsageStats(days int) (*UsageStats, error) {
	logs, err := s.repo.GetAIUsageLogs(days)
	if err != nil {
		return nil, err
	}

	stats := &UsageStats{}
	var totalDuration int64
	for _, l := range logs {
		stats.TotalRequests++
		stats.TotalTokens += l.TotalTokens
		stats.InputTokens += l.InputTokens
		stats.OutputTokens += l.OutputTokens
		totalDuration += l.DurationMs
		if l.Success {
			stats.SuccessfulRequests++
		} else {
			stats.FailedRequests++
		}
	}
	if stats.TotalRequests > 0 {
		stats.AvgDurationMs = totalDuration / int64(stats.TotalRequests)
	}

	return stats, nil
}

// logUsage логирует использование AI
func (s *Service) logUsage(requestType, provider string, result *GenerateResult, duration time.Duration, callErr error) {
	if s.repo == nil {
		return
	}

	usageLog := &models.AIUsageLog{
		RequestType: requestType,
		Provider:    provider,
		DurationMs:  duration.Milliseconds(),
		Success:     callErr == nil,
	}
	if result != nil {
		usageLog.InputTokens = result.InputTokens
		usageLog.OutputTokens = result.OutputTokens
		usageLog.TotalTokens = result.TotalTokens
	}
	if callErr != nil {
		usageLog.ErrorMessage = callErr.Error()
	}

	if err := s.repo.CreateAIUsageLog(usageLog); err != nil {
		log.Printf("[AI] Ошибка сохранения лога: %v", err)
	}
}
