package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
	"github.com/user/route-optimizer-api/internal/services/strategy"
)

// Символы вне cp1252, которые встречаются в описаниях стратегий
var symbolReplacer = strings.NewReplacer(
	"≤", "<=",
	"≥", ">=",
	"→", "->",
	"≈", "~",
)

// PDFGenerator - генератор PDF отчётов по метрикам
type PDFGenerator struct {
	now func() time.Time
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{now: time.Now}
}

// MetricsReport - данные отчёта
type MetricsReport struct {
	Title    string // "Client 653025" или "All clients"
	Metrics  *metrics.Metrics
	Costs    metrics.Costs
	Strategy *strategy.Strategy // только для отчёта по клиенту
}

// GenerateMetricsPDF генерирует PDF с финансовыми показателями
func (g *PDFGenerator) GenerateMetricsPDF(r *MetricsReport) ([]byte, error) {
	if r == nil || r.Metrics == nil {
		return nil, fmt.Errorf("нет данных для отчёта")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Route optimization metrics", true)
	pdf.AddPage()

	// Встроенные шрифты работают в cp1252, этого достаточно для € и испанских названий
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(symbolReplacer.Replace(s)) }

	g.drawHeader(pdf, text, r)
	g.drawSummary(pdf, text, r)
	g.drawChannelShare(pdf, text, r.Metrics)
	g.drawRankings(pdf, text, r.Metrics)
	if r.Strategy != nil {
		g.drawStrategy(pdf, text, r.Strategy)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) drawHeader(pdf *fpdf.Fpdf, text func(string) string, r *MetricsReport) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, text("Metrics report: "+r.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 5, text(fmt.Sprintf("Generated %s. Visit cost €%s, logistics cost €%s per order.",
		g.now().Format("02.01.2006 15:04"),
		query.FormatMoney(r.Costs.VisitCost),
		query.FormatMoney(r.Costs.LogisticsCost),
	)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func (g *PDFGenerator) drawSummary(pdf *fpdf.Fpdf, text func(string) string, r *MetricsReport) {
	m := r.Metrics
	rows := [][2]string{
		{"Median ticket", "€" + query.FormatMoney(m.MedianTicket)},
		{"Order frequency", fmt.Sprintf("%.2f", m.OrderFrequency)},
		{"Total income", "€" + query.FormatMoney(m.TotalIncome)},
		{"Visit cost", "€" + query.FormatMoney(m.VisitCost)},
		{"Logistics cost", "€" + query.FormatMoney(m.LogisticsCost)},
		{"Profit", "€" + query.FormatMoney(m.Profit)},
		{"ROI", fmt.Sprintf("%.2f%%", m.ROIPercent)},
		{"Potential savings (year)", "€" + query.FormatMoney(m.PotentialSavings)},
	}

	sectionTitle(pdf, text, "Summary")
	pdf.SetFont("Helvetica", "", 10)
	for i, row := range rows {
		fill := i%2 == 0
		pdf.SetFillColor(242, 242, 242)
		pdf.CellFormat(90, 7, text(row[0]), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(0, 7, text(row[1]), "1", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)
}

func (g *PDFGenerator) drawChannelShare(pdf *fpdf.Fpdf, text func(string) string, m *metrics.Metrics) {
	if len(m.ChannelShare) == 0 {
		return
	}
	sectionTitle(pdf, text, "Channel share")
	pdf.SetFont("Helvetica", "", 10)
	for _, cs := range m.ChannelShare {
		pdf.CellFormat(90, 6, text(cs.Channel), "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%.1f%%", cs.Percentage), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func (g *PDFGenerator) drawRankings(pdf *fpdf.Fpdf, text func(string) string, m *metrics.Metrics) {
	sectionTitle(pdf, text, "Top cities")

	colW := 60.0
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 230, 241)
	pdf.CellFormat(colW, 7, "By profit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW, 7, "By income", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW, 7, "By savings", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	n := max(len(m.TopCities), len(m.TopIncomeCities), len(m.TopSavingsCities))
	for i := 0; i < n; i++ {
		cell := ""
		if i < len(m.TopCities) {
			cell = fmt.Sprintf("%s: €%s", m.TopCities[i].City, query.FormatMoney(m.TopCities[i].Profit))
		}
		pdf.CellFormat(colW, 6, text(cell), "1", 0, "L", false, 0, "")

		cell = ""
		if i < len(m.TopIncomeCities) {
			cell = fmt.Sprintf("%s: €%s", m.TopIncomeCities[i].City, query.FormatMoney(m.TopIncomeCities[i].Income))
		}
		pdf.CellFormat(colW, 6, text(cell), "1", 0, "L", false, 0, "")

		cell = ""
		if i < len(m.TopSavingsCities) {
			cell = fmt.Sprintf("%s: €%s", m.TopSavingsCities[i].City, query.FormatMoney(m.TopSavingsCities[i].Savings))
		}
		pdf.CellFormat(colW, 6, text(cell), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (g *PDFGenerator) drawStrategy(pdf *fpdf.Fpdf, text func(string) string, st *strategy.Strategy) {
	sectionTitle(pdf, text, "Cluster strategy: "+st.Label)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range [][2]string{
		{"Profile", st.Description},
		{"Tactic", st.Tactic},
		{"Rationale", st.Reason},
		{"Target gap", st.TargetGap},
		{"Risk", st.RiskNote},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, text(line[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, text(line[1]), "", "L", false)
	}
}

func sectionTitle(pdf *fpdf.Fpdf, text func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, text(title), "", 1, "L", false, 0, "")
}
