package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "route-optimizer-assistant"

var (
	// ErrInvalidToken - подпись, срок или формат токена неверны
	ErrInvalidToken = errors.New("неверный токен")
	// ErrInvalidCode - код доступа не подошёл
	ErrInvalidCode = errors.New("неверный код доступа")
)

// JWTClaims - claims для JWT токена
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены доступа к ассистенту
type Manager struct {
	secret   []byte
	codeHash []byte
	ttl      time.Duration
}

// NewManager создаёт менеджер токенов. accessCodeHash - bcrypt-хэш кода доступа.
func NewManager(secret, accessCodeHash string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), codeHash: []byte(accessCodeHash), ttl: ttl}
}

// CheckAccessCode сверяет код доступа с хэшем
func (m *Manager) CheckAccessCode(code string) error {
	if len(m.codeHash) == 0 || code == "" {
		return ErrInvalidCode
	}
	if err := bcrypt.CompareHashAndPassword(m.codeHash, []byte(code)); err != nil {
		return ErrInvalidCode
	}
	return nil
}

// GenerateToken генерирует JWT токен
func (m *Manager) GenerateToken(role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	claims := JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   role,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken проверяет JWT токен и возвращает claims
func (m *Manager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неверный метод подписи")
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// HashAccessCode возвращает bcrypt-хэш для конфигурации
func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
