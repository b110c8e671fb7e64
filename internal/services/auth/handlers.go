package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RoleAnalyst - единственная роль пользователей ассистента
const RoleAnalyst = "analyst"

// AuthHandler - обработчики авторизации
type AuthHandler struct {
	manager *Manager
}

// NewAuthHandler создаёт новый обработчик авторизации
func NewAuthHandler(manager *Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

// LoginRequest - вход по коду доступа
type LoginRequest struct {
	AccessCode string `json:"access_code" binding:"required"`
}

// Login выдаёт токен по коду доступа
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Введите код доступа"})
		return
	}

	if err := h.manager.CheckAccessCode(strings.TrimSpace(req.AccessCode)); err != nil {
		log.Printf("[Auth] Неудачная попытка входа с %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный код доступа"})
		return
	}

	token, expiresAt, err := h.manager.GenerateToken(RoleAnalyst)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания токена"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"role":       RoleAnalyst,
	})
}

// Me возвращает данные текущего токена (после Auth middleware)
func (h *AuthHandler) Me(c *gin.Context) {
	role, _ := c.Get("role")
	expiresAt, _ := c.Get("expiresAt")
	c.JSON(http.StatusOK, gin.H{
		"role":       role,
		"expires_at": expiresAt,
	})
}
