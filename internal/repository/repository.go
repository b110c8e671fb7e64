package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/route-optimizer-api/internal/config"
	"github.com/user/route-optimizer-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrClientNotFound - клиент с таким ID отсутствует в витрине
var ErrClientNotFound = errors.New("клиент не найден")

// Repository - доступ к PostgreSQL
type Repository struct {
	db *gorm.DB
}

// NewPostgresDB создаёт подключение к PostgreSQL
func NewPostgresDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// client_summary принадлежит внешней загрузке, мигрируем только свои таблицы
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&models.AIUsageLog{}); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// NewRepository создаёт новый репозиторий
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ping проверяет соединение с БД
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT 1").Error
}

// === Clients ===

// GetClients возвращает первые limit клиентов
func (r *Repository) GetClients(ctx context.Context, limit int) ([]models.ClientSummary, error) {
	var clients []models.ClientSummary
	if err := r.db.WithContext(ctx).Limit(limit).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// GetAllClients возвращает всю витрину (для глобальных метрик)
func (r *Repository) GetAllClients(ctx context.Context) ([]models.ClientSummary, error) {
	var clients []models.ClientSummary
	if err := r.db.WithContext(ctx).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClientByID возвращает клиента или ErrClientNotFound
func (r *Repository) GetClientByID(ctx context.Context, clientID string) (*models.ClientSummary, error) {
	var client models.ClientSummary
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Take(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, clientID)
		}
		return nil, err
	}
	return &client, nil
}

// === Analytic queries ===

// Query выполняет аналитический запрос только на чтение.
// Параметры передаются по имени (@p1, @p2, ...), строки возвращаются с порядком колонок.
func (r *Repository) Query(ctx context.Context, sql string, args map[string]any) ([]models.Row, error) {
	tx := r.db.WithContext(ctx)
	if len(args) > 0 {
		tx = tx.Raw(sql, args)
	} else {
		tx = tx.Raw(sql)
	}

	rows, err := tx.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]models.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[i] = models.Field{Name: col, Value: v}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// === AI Usage ===

// CreateAIUsageLog сохраняет лог использования AI
func (r *Repository) CreateAIUsageLog(log *models.AIUsageLog) error {
	return r.db.Create(log).Error
}

// GetAIUsageLogs возвращает логи за последние days дней
func (r *Repository) GetAIUsageLogs(days int) ([]models.AIUsageLog, error) {
	var logs []models.AIUsageLog
	since := time.Now().AddDate(0, 0, -days)
	if err := r.db.Where("created_at >= ?", since).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
