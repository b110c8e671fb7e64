package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config - основная конфигурация приложения
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	AI       AIConfig       `yaml:"ai"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig - настройки HTTP-сервера
type ServerConfig struct {
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"`            // debug | release | test
	AllowedOrigins []string `yaml:"allowed_origins"` // пусто = любой источник
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	URL         string `yaml:"url"` // приоритетнее отдельных полей
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	SSLMode     string `yaml:"sslmode"`
	AutoMigrate bool   `yaml:"auto_migrate"` // только собственные таблицы сервиса
}

// DSN возвращает строку подключения
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode,
	)
}

// Стоимости по умолчанию, €
const (
	defaultVisitCost     = 15
	defaultLogisticsCost = 10
)

// MetricsConfig - стоимостные константы и кэширование метрик
type MetricsConfig struct {
	VisitCost       float64 `yaml:"visit_cost"`     // €/визит
	LogisticsCost   float64 `yaml:"logistics_cost"` // €/заказ
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes"`
	RefreshCron     string  `yaml:"refresh_cron"`
}

// AIConfig - настройки генеративной модели
type AIConfig struct {
	Provider           string `yaml:"provider"` // gemini | openai | ollama
	APIKey             string `yaml:"api_key"`
	Model              string `yaml:"model"`
	BaseURL            string `yaml:"base_url"`
	MaxTokens          int    `yaml:"max_tokens"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// Timeout возвращает таймаут запроса к модели
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig - кэш метрик; пустой addr отключает кэш
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled возвращает true если кэш настроен
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// AuthConfig - авторизация по коду доступа
type AuthConfig struct {
	Enabled        bool   `yaml:"enabled"`
	JWTSecret      string `yaml:"jwt_secret"`
	AccessCodeHash string `yaml:"access_code_hash"` // bcrypt
	TokenTTLHours  int    `yaml:"token_ttl_hours"`
}

// Load загружает конфигурацию из YAML-файла.
// Отсутствующий файл не считается ошибкой: используются значения по умолчанию и окружение.
func Load(path string) (*Config, error) {
	// Стоимости задаются до разбора: явный 0 в файле или окружении сохраняется
	cfg := Config{Metrics: MetricsConfig{
		VisitCost:     defaultVisitCost,
		LogisticsCost: defaultLogisticsCost,
	}}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// работаем только на переменных окружения
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Переопределение из переменных окружения
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := envFloat("VISIT_COST"); v != nil {
		cfg.Metrics.VisitCost = *v
	}
	if v := envFloat("LOGISTICS_COST"); v != nil {
		cfg.Metrics.LogisticsCost = *v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if cfg.AI.APIKey == "" {
		switch strings.ToLower(cfg.AI.Provider) {
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func envFloat(key string) *float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "5050"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "require"
	}
	if cfg.Metrics.CacheTTLMinutes <= 0 {
		cfg.Metrics.CacheTTLMinutes = 60
	}
	if cfg.Metrics.RefreshCron == "" {
		cfg.Metrics.RefreshCron = "*/30 * * * *"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.RateLimitPerMinute <= 0 {
		cfg.AI.RateLimitPerMinute = 30
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 2048
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 24
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Metrics.VisitCost < 0 || c.Metrics.LogisticsCost < 0 {
		return errors.New("стоимость визита и логистики не может быть отрицательной")
	}
	switch c.AI.Provider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("неизвестный AI провайдер: %s", c.AI.Provider)
	}
	if c.Auth.Enabled && (c.Auth.JWTSecret == "" || c.Auth.AccessCodeHash == "") {
		return errors.New("для авторизации нужны jwt_secret и access_code_hash")
	}
	return nil
}
