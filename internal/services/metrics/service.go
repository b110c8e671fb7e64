package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/user/route-optimizer-api/internal/models"
)

const globalCacheKey = "metrics:global"

// ClientStore - источник записей витрины
type ClientStore interface {
	GetClientByID(ctx context.Context, clientID string) (*models.ClientSummary, error)
	GetAllClients(ctx context.Context) ([]models.ClientSummary, error)
}

// Cache - необязательный кэш глобальных метрик
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service - расчёт метрик поверх хранилища
type Service struct {
	store  ClientStore
	engine *Engine
	cache  Cache
	ttl    time.Duration
}

// NewService создаёт сервис метрик. cache может быть nil.
func NewService(store ClientStore, engine *Engine, cache Cache, ttl time.Duration) *Service {
	return &Service{store: store, engine: engine, cache: cache, ttl: ttl}
}

// Engine возвращает движок расчёта
func (s *Service) Engine() *Engine {
	return s.engine
}

// ComputeForClient считает метрики клиента.
// Для несуществующего клиента возвращается ошибка, совместимая с repository.ErrClientNotFound.
func (s *Service) ComputeForClient(ctx context.Context, clientID string) (*Metrics, error) {
	client, err := s.store.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("метрики клиента %s: %w", clientID, err)
	}
	return s.engine.ForClient(client), nil
}

// ComputeGlobal считает глобальные метрики, используя кэш если он подключён
func (s *Service) ComputeGlobal(ctx context.Context) (*Metrics, error) {
	if s.cache != nil {
		var cached Metrics
		found, err := s.cache.Get(ctx, globalCacheKey, &cached)
		if err != nil {
			log.Printf("[Metrics] Ошибка чтения кэша: %v", err)
		} else if found {
			return &cached, nil
		}
	}
	return s.RefreshGlobal(ctx)
}

// RefreshGlobal пересчитывает глобальные метрики и обновляет кэш
func (s *Service) RefreshGlobal(ctx context.Context) (*Metrics, error) {
	start := time.Now()
	clients, err := s.store.GetAllClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("загрузка клиентов: %w", err)
	}

	m := s.engine.Global(clients)
	log.Printf("[Metrics] Глобальные метрики пересчитаны: %d клиентов за %v", len(clients), time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, globalCacheKey, m, s.ttl); err != nil {
			log.Printf("[Metrics] Ошибка записи кэша: %v", err)
		}
	}
	return m, nil
}
