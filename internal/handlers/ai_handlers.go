package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/route-optimizer-api/internal/services/ai"
)

// AIService - состояние генеративной модели и журнал обращений
type AIService interface {
	IsEnabled() bool
	Provider() string
	GetUsageStats(days int) (*ai.UsageStats, error)
}

// AIHandler - обработчики для AI эндпоинтов
type AIHandler struct {
	aiService AIService
}

// NewAIHandler создаёт новый обработчик AI
func NewAIHandler(aiService AIService) *AIHandler {
	return &AIHandler{
		aiService: aiService,
	}
}

// GetAIStatus возвращает активного провайдера
func (h *AIHandler) GetAIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled":  h.aiService.IsEnabled(),
		"provider": h.aiService.Provider(),
	})
}

// GetAIUsage возвращает статистику использования AI
func (h *AIHandler) GetAIUsage(c *gin.Context) {
	// Период в днях (по умолчанию 30)
	days := 30
	if daysStr := c.Query("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 && d <= 365 {
			days = d
		}
	}

	stats, err := h.aiService.GetUsageStats(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":  days,
		"stats": stats,
	})
}
