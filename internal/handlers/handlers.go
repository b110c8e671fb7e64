package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/route-optimizer-api/internal/models"
	"github.com/user/route-optimizer-api/internal/repository"
	"github.com/user/route-optimizer-api/internal/services/ai"
	"github.com/user/route-optimizer-api/internal/services/chat"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
	"github.com/user/route-optimizer-api/internal/services/report"
	"github.com/user/route-optimizer-api/internal/services/strategy"
)

// ClientStore - чтение клиентов из БД
type ClientStore interface {
	Ping(ctx context.Context) error
	GetClients(ctx context.Context, limit int) ([]models.ClientSummary, error)
	GetClientByID(ctx context.Context, clientID string) (*models.ClientSummary, error)
}

// MetricsService - расчёт метрик
type MetricsService interface {
	Engine() *metrics.Engine
	ComputeForClient(ctx context.Context, clientID string) (*metrics.Metrics, error)
	ComputeGlobal(ctx context.Context) (*metrics.Metrics, error)
	RefreshGlobal(ctx context.Context) (*metrics.Metrics, error)
}

// QueryService - аналитические шаблоны
type QueryService interface {
	ResolveAndExecute(ctx context.Context, text string) *query.Result
}

// ChatService - диалог с ассистентом
type ChatService interface {
	Handle(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// Handler - HTTP обработчики API
type Handler struct {
	repo    ClientStore
	metrics MetricsService
	queries QueryService
	chat    ChatService
	pdf     *report.PDFGenerator
}

// NewHandler создаёт новый обработчик
func NewHandler(repo ClientStore, metricsSvc MetricsService, queries QueryService, chatSvc ChatService) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsSvc,
		queries: queries,
		chat:    chatSvc,
		pdf:     report.NewPDFGenerator(),
	}
}

// === Health ===

// Health проверяет доступность БД
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		log.Printf("[Health] БД недоступна: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "error",
			"database": "unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now(),
	})
}

// === Clients ===

// GetClients возвращает первых limit клиентов
func (h *Handler) GetClients(c *gin.Context) {
	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный limit"})
			return
		}
		limit = l
	}

	clients, err := h.repo.GetClients(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(clients),
		"data":    clients,
	})
}

// GetClient возвращает клиента по ID
func (h *Handler) GetClient(c *gin.Context) {
	client, err := h.repo.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     client,
		"strategy": strategy.Classify(models.StringOr(client.ClusterName, "")),
	})
}

// === Metrics ===

// GetMetrics возвращает метрики клиента (clientId) или глобальные.
// fresh=true пересчитывает глобальные метрики в обход кэша.
func (h *Handler) GetMetrics(c *gin.Context) {
	clientID := strings.TrimSpace(c.Query("clientId"))
	fresh, _ := strconv.ParseBool(c.Query("fresh"))

	m, err := h.computeMetrics(c.Request.Context(), clientID, fresh)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Клиент не найден"})
			return
		}
		log.Printf("[Metrics] Ошибка расчёта метрик: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Ошибка расчёта метрик"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      m,
		"timestamp": time.Now(),
	})
}

// GetMetricsReport возвращает PDF отчёт по метрикам
func (h *Handler) GetMetricsReport(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := strings.TrimSpace(c.Query("clientId"))

	rep := &report.MetricsReport{
		Title: "All clients",
		Costs: h.metrics.Engine().Costs(),
	}

	if clientID != "" {
		client, err := h.repo.GetClientByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, repository.ErrClientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		st := strategy.Classify(models.StringOr(client.ClusterName, ""))
		rep.Title = "Client " + clientID
		rep.Metrics = h.metrics.Engine().ForClient(client)
		rep.Strategy = &st
	} else {
		m, err := h.metrics.ComputeGlobal(ctx)
		if err != nil {
			log.Printf("[Metrics] Ошибка расчёта метрик: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка расчёта метрик"})
			return
		}
		rep.Metrics = m
	}

	pdfBytes, err := h.pdf.GenerateMetricsPDF(rep)
	if err != nil {
		log.Printf("[Metrics] Ошибка генерации PDF: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка генерации PDF: " + err.Error()})
		return
	}

	filename := "metrics_global.pdf"
	if clientID != "" {
		filename = fmt.Sprintf("metrics_%s.pdf", clientID)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *Handler) computeMetrics(ctx context.Context, clientID string, fresh bool) (*metrics.Metrics, error) {
	if clientID == "" {
		if fresh {
			return h.metrics.RefreshGlobal(ctx)
		}
		return h.metrics.ComputeGlobal(ctx)
	}
	return h.metrics.ComputeForClient(ctx, clientID)
}

// === Query ===

// QueryRequest - вопрос для аналитических шаблонов
type QueryRequest struct {
	Message string `json:"message" binding:"required"`
}

// RunQuery выполняет вопрос через библиотеку шаблонов без обращения к модели
func (h *Handler) RunQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Сообщение не может быть пустым"})
		return
	}

	result := h.queries.ResolveAndExecute(c.Request.Context(), req.Message)
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"matched": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matched":   true,
		"result":    result,
		"formatted": query.Format(result),
	})
}

// ExportQuery выгружает результат шаблона в Excel
func (h *Handler) ExportQuery(c *gin.Context) {
	message := strings.TrimSpace(c.Query("message"))
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Сообщение не может быть пустым"})
		return
	}

	result := h.queries.ResolveAndExecute(c.Request.Context(), message)
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Вопрос не распознан"})
		return
	}
	if result.IsError() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Summary})
		return
	}

	data, err := report.ExportQueryResult(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка формирования Excel: " + err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=query_result.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// === Strategies ===

// GetStrategies возвращает каталог стратегий
func (h *Handler) GetStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, strategy.All())
}

// ClassifyStrategy подбирает стратегию по метке кластера
func (h *Handler) ClassifyStrategy(c *gin.Context) {
	label := c.Query("label")
	key, matchedBy := strategy.Resolve(label)
	c.JSON(http.StatusOK, gin.H{
		"label":      label,
		"matched_by": matchedBy,
		"strategy":   strategy.Get(key),
	})
}

// === Chat ===

// Chat отвечает на вопрос пользователя
func (h *Handler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	resp, err := h.chat.Handle(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, chat.ErrQueryFailed), errors.Is(err, chat.ErrContextFailed):
			log.Printf("[Chat] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка выполнения запроса к базе данных"})
		case errors.Is(err, ai.ErrDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI ассистент не настроен"})
		case errors.Is(err, ai.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Слишком много запросов, попробуйте позже"})
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "AI ассистент не ответил вовремя"})
		default:
			log.Printf("[Chat] Ошибка обработки сообщения: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Ошибка обработки сообщения"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
