package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/user/route-optimizer-api/internal/models"
)

// Format готовит результат для ответа в чате или для передачи модели.
// Вид строки определяется её колонками: клиентская запись, агрегат по городу
// или произвольный набор полей.
func Format(result *Result) string {
	if result == nil {
		return ""
	}
	if result.IsError() {
		return result.Summary
	}
	if len(result.Rows) == 0 {
		return fmt.Sprintf("No results found for: %s", result.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n\n", strings.ToUpper(result.Type))

	for i, row := range result.Rows {
		switch {
		case row.Has("client_id"):
			formatClient(&b, i, row)
		case row.Has("city") || row.Has("total_clients"):
			formatAggregate(&b, i, row)
		default:
			formatGeneric(&b, i, row)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatClient(b *strings.Builder, i int, row models.Row) {
	fmt.Fprintf(b, "%d. Client %s\n", i+1, row.Text("client_id"))
	if row.Has("city") {
		channel := "N/A"
		if row.Has("channel") {
			channel = row.Text("channel")
		}
		fmt.Fprintf(b, "   📍 Location: %s (%s)\n", row.Text("city"), channel)
	}
	if row.Has("revenue") {
		fmt.Fprintf(b, "   💰 Revenue: €%s\n", FormatMoney(row.Float("revenue")))
	}
	if row.Has("efficiency_score") {
		fmt.Fprintf(b, "   ⚡ Efficiency: %.2f\n", row.Float("efficiency_score"))
	}
	if row.Has("potential_savings") {
		fmt.Fprintf(b, "   💸 Savings Potential: €%s/year\n", FormatMoney(row.Float("potential_savings")))
	}
	// шаблоны отдают либо вычисленный median_ticket, либо исходную колонку
	for _, col := range []string{"median_ticket", "median_ticket_year"} {
		if row.Has(col) {
			fmt.Fprintf(b, "   🎫 Median Ticket: €%.2f\n", row.Float(col))
		}
	}
	if row.Has("cluster_name") {
		fmt.Fprintf(b, "   🏷️ Cluster: %s\n", row.Text("cluster_name"))
	}
}

func formatAggregate(b *strings.Builder, i int, row models.Row) {
	name := fmt.Sprintf("Entry %d", i+1)
	if row.Has("city") {
		name = row.Text("city")
	}
	fmt.Fprintf(b, "%d. %s\n", i+1, name)
	if row.Has("total_clients") {
		fmt.Fprintf(b, "   👥 Total Clients: %s\n", formatCount(row.Float("total_clients")))
	}
	if row.Has("total_revenue") {
		fmt.Fprintf(b, "   💰 Total Revenue: €%s\n", FormatMoney(row.Float("total_revenue")))
	}
	for _, col := range []string{"avg_ticket", "avg_median_ticket"} {
		if row.Has(col) {
			fmt.Fprintf(b, "   🎫 Avg Median Ticket: €%.2f\n", row.Float(col))
		}
	}
	if row.Has("total_savings_potential") {
		fmt.Fprintf(b, "   💸 Total Savings Potential: €%s/year\n", FormatMoney(row.Float("total_savings_potential")))
	}
	if row.Has("different_clusters") {
		fmt.Fprintf(b, "   🏷️ Different Clusters: %s\n", row.Text("different_clusters"))
	}
}

func formatGeneric(b *strings.Builder, i int, row models.Row) {
	data, err := json.Marshal(row)
	if err != nil {
		data = []byte(fmt.Sprint(row))
	}
	fmt.Fprintf(b, "%d. %s\n", i+1, data)
}

// FormatMoney форматирует сумму с разделителем тысяч: 1234567.8 -> "1,234,567.80"
func FormatMoney(amount float64) string {
	cents := int64(math.Round(math.Abs(amount) * 100))
	sign := ""
	if amount < 0 && cents > 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%02d", sign, groupThousands(cents/100), cents%100)
}

func formatCount(n float64) string {
	return groupThousands(int64(math.Round(n)))
}

func groupThousands(n int64) string {
	str := fmt.Sprintf("%d", n)
	size := len(str)
	if size <= 3 {
		return str
	}
	var result []byte
	for i := 0; i < size; i++ {
		if i > 0 && (size-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, str[i])
	}
	return string(result)
}
