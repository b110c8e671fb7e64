package chat

import (
	"fmt"
	"strings"

	"github.com/user/route-optimizer-api/internal/models"
	"github.com/user/route-optimizer-api/internal/services/ai"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
	"github.com/user/route-optimizer-api/internal/services/strategy"
)

// NotAvailable - отображение любого пустого поля в контексте модели
const NotAvailable = "N/A"

// ClientContext - данные клиента для промпта
type ClientContext struct {
	Client   *models.ClientSummary
	Metrics  *metrics.Metrics
	Strategy *strategy.Strategy
}

// BuildPrompt собирает промпт для модели
func BuildPrompt(message string, cc *ClientContext) string {
	if cc == nil || cc.Client == nil {
		return fmt.Sprintf(ai.NoContextPromptTemplate, message)
	}
	return fmt.Sprintf(ai.ChatPromptTemplate, cc.Render(), message)
}

// Render выводит контекст текстом. Все пустые поля выводятся как N/A.
func (cc *ClientContext) Render() string {
	var b strings.Builder

	if cc.Client != nil {
		b.WriteString("CLIENT DATA:\n")
		for _, f := range cc.Client.AsRow() {
			fmt.Fprintf(&b, "- %s: %s\n", f.Name, valueOrNA(f.Value))
		}
		b.WriteString("\n")
	}

	if m := cc.Metrics; m != nil {
		b.WriteString("FINANCIAL METRICS:\n")
		fmt.Fprintf(&b, "- Median ticket: €%s\n", query.FormatMoney(m.MedianTicket))
		fmt.Fprintf(&b, "- Order frequency (orders/week): %.2f\n", m.OrderFrequency)
		fmt.Fprintf(&b, "- Total income: €%s\n", query.FormatMoney(m.TotalIncome))
		fmt.Fprintf(&b, "- Visit cost: €%s\n", query.FormatMoney(m.VisitCost))
		fmt.Fprintf(&b, "- Logistics cost: €%s\n", query.FormatMoney(m.LogisticsCost))
		fmt.Fprintf(&b, "- Profit: €%s\n", query.FormatMoney(m.Profit))
		fmt.Fprintf(&b, "- ROI: %.2f%%\n", m.ROIPercent)
		fmt.Fprintf(&b, "- Potential annual savings: €%s\n", query.FormatMoney(m.PotentialSavings))
		b.WriteString("\n")
	}

	if st := cc.Strategy; st != nil {
		b.WriteString("CLUSTER STRATEGY:\n")
		fmt.Fprintf(&b, "- Segment: %s\n", st.Label)
		fmt.Fprintf(&b, "- Profile: %s\n", st.Description)
		fmt.Fprintf(&b, "- Recommended tactic: %s\n", st.Tactic)
		fmt.Fprintf(&b, "- Rationale: %s\n", st.Reason)
		fmt.Fprintf(&b, "- Target gap: %s\n", st.TargetGap)
		fmt.Fprintf(&b, "- Risk: %s\n", st.RiskNote)
		b.WriteString("\n")
	}

	return b.String()
}

func valueOrNA(v any) string {
	s := strings.TrimSpace(models.Text(v))
	if s == "" || s == "null" {
		return NotAvailable
	}
	return s
}
