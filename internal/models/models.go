package models

import (
	"strings"
	"time"
)

// ClientSummary - строка витрины client_summary.
// Таблица наполняется внешним процессом загрузки, сервис её только читает.
// Числовые поля хранятся как есть и разбираются лениво (см. Float).
type ClientSummary struct {
	ClientID               string  `gorm:"column:client_id;primaryKey" json:"client_id"`
	City                   *string `gorm:"column:city" json:"city"`
	Channel                *string `gorm:"column:channel" json:"channel"`
	PromotorID             *string `gorm:"column:promotor_id" json:"promotor_id"`
	TotalOrders            *string `gorm:"column:total_orders" json:"total_orders"`
	TotalVolume            *string `gorm:"column:total_volume" json:"total_volume"`
	TotalIncome            *string `gorm:"column:total_income" json:"total_income"`
	MedianTicketYear       *string `gorm:"column:median_ticket_year" json:"median_ticket_year"`
	TotalPromotorVisits    *string `gorm:"column:total_promotor_visits" json:"total_promotor_visits"`
	TotalCalls             *string `gorm:"column:total_calls" json:"total_calls"`
	ClientFrequency        *string `gorm:"column:client_frequency" json:"client_frequency"` // заказов в неделю
	Efficiency             *string `gorm:"column:efficiency" json:"efficiency"`
	ClusterName            *string `gorm:"column:cluster_name" json:"cluster_name"`
	Class                  *string `gorm:"column:class" json:"class"`
	EstimatedSavings       *string `gorm:"column:estimated_savings" json:"estimated_savings"`               // в месяц
	AnnualEstimatedSavings *string `gorm:"column:annual_estimated_savings" json:"annual_estimated_savings"` // в год
	VisitsRemoved          *string `gorm:"column:visits_removed" json:"visits_removed"`
	OpportunityCost        *string `gorm:"column:opportunity_cost" json:"opportunity_cost"`
}

// TableName - имя витрины
func (ClientSummary) TableName() string {
	return "client_summary"
}

// AsRow возвращает поля записи в фиксированном порядке
func (c ClientSummary) AsRow() Row {
	return Row{
		{Name: "client_id", Value: c.ClientID},
		{Name: "city", Value: deref(c.City)},
		{Name: "channel", Value: deref(c.Channel)},
		{Name: "promotor_id", Value: deref(c.PromotorID)},
		{Name: "total_orders", Value: deref(c.TotalOrders)},
		{Name: "total_volume", Value: deref(c.TotalVolume)},
		{Name: "total_income", Value: deref(c.TotalIncome)},
		{Name: "median_ticket_year", Value: deref(c.MedianTicketYear)},
		{Name: "total_promotor_visits", Value: deref(c.TotalPromotorVisits)},
		{Name: "total_calls", Value: deref(c.TotalCalls)},
		{Name: "client_frequency", Value: deref(c.ClientFrequency)},
		{Name: "efficiency", Value: deref(c.Efficiency)},
		{Name: "cluster_name", Value: deref(c.ClusterName)},
		{Name: "class", Value: deref(c.Class)},
		{Name: "estimated_savings", Value: deref(c.EstimatedSavings)},
		{Name: "annual_estimated_savings", Value: deref(c.AnnualEstimatedSavings)},
		{Name: "visits_removed", Value: deref(c.VisitsRemoved)},
		{Name: "opportunity_cost", Value: deref(c.OpportunityCost)},
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// StringOr возвращает значение или fallback для пустых полей
func StringOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// IsSet - поле присутствует и не пустое
func IsSet(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// === AI ===

// AIUsageLog - лог обращений к генеративной модели (для контроля токенов)
type AIUsageLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestType  string    `gorm:"size:50" json:"request_type"` // "chat", "summary"
	Provider     string    `gorm:"size:20" json:"provider"`
	InputTokens  int       `gorm:"default:0" json:"input_tokens"`
	OutputTokens int       `gorm:"default:0" json:"output_tokens"`
	TotalTokens  int       `gorm:"default:0" json:"total_tokens"`
	DurationMs   int64     `gorm:"default:0" json:"duration_ms"`
	Success      bool      `gorm:"default:true" json:"success"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
