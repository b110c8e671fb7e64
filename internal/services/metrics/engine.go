package metrics

import (
	"sort"

	"github.com/user/route-optimizer-api/internal/models"
)

const (
	topN        = 3
	unknownName = "Unknown"
)

// Costs - стоимостные константы модели
type Costs struct {
	VisitCost     float64 // € за визит промоутера
	LogisticsCost float64 // € за заказ
}

// ChannelShare - доля выручки канала в процентах
type ChannelShare struct {
	Channel    string  `json:"channel"`
	Percentage float64 `json:"percentage"`
}

// CityProfit - прибыль по городу
type CityProfit struct {
	City   string  `json:"city"`
	Profit float64 `json:"profit"`
}

// CitySavings - годовой потенциал экономии по городу
type CitySavings struct {
	City    string  `json:"city"`
	Savings float64 `json:"savings"`
}

// CityIncome - выручка по городу
type CityIncome struct {
	City   string  `json:"city"`
	Income float64 `json:"income"`
}

// Metrics - рассчитанные показатели клиента или всей базы
type Metrics struct {
	MedianTicket     float64        `json:"median_ticket"`
	OrderFrequency   float64        `json:"order_frequency"`
	TotalIncome      float64        `json:"total_income"`
	VisitCost        float64        `json:"visit_cost"`
	LogisticsCost    float64        `json:"logistics_cost"`
	Profit           float64        `json:"profit"`
	ROIPercent       float64        `json:"roi_percent"`
	PotentialSavings float64        `json:"potential_savings"`
	ChannelShare     []ChannelShare `json:"channel_share"`
	TopCities        []CityProfit   `json:"top_cities"`
	TopSavingsCities []CitySavings  `json:"top_savings_cities"`
	TopIncomeCities  []CityIncome   `json:"top_income_cities"`
}

// Engine считает метрики по записям витрины. Без состояния, безопасен для конкурентного использования.
type Engine struct {
	costs Costs
}

// NewEngine создаёт движок с заданными стоимостями
func NewEngine(costs Costs) *Engine {
	return &Engine{costs: costs}
}

// Costs возвращает стоимостные константы
func (e *Engine) Costs() Costs {
	return e.costs
}

// ForClient считает метрики одного клиента.
// Доли каналов и топы городов вырождаются в собственные канал и город клиента.
func (e *Engine) ForClient(c *models.ClientSummary) *Metrics {
	income := models.Float(c.TotalIncome)
	visitCost, logisticsCost := e.operatingCosts(c)
	profit := income - visitCost - logisticsCost
	savings := annualSavings(c)
	city := models.StringOr(c.City, unknownName)

	return &Metrics{
		MedianTicket:     models.Float(c.MedianTicketYear),
		OrderFrequency:   models.Float(c.ClientFrequency),
		TotalIncome:      income,
		VisitCost:        visitCost,
		LogisticsCost:    logisticsCost,
		Profit:           profit,
		ROIPercent:       roi(profit, visitCost+logisticsCost),
		PotentialSavings: savings,
		ChannelShare:     []ChannelShare{{Channel: models.StringOr(c.Channel, unknownName), Percentage: 100}},
		TopCities:        []CityProfit{{City: city, Profit: profit}},
		TopSavingsCities: []CitySavings{{City: city, Savings: savings}},
		TopIncomeCities:  []CityIncome{{City: city, Income: income}},
	}
}

// cityTotals - агрегаты по городу в порядке первого появления
type cityTotals struct {
	name       string
	profit     float64
	income     float64
	savings    float64
	hasSavings bool
}

// Global считает метрики по всей базе: формулы те же, но над суммами
func (e *Engine) Global(clients []models.ClientSummary) *Metrics {
	m := &Metrics{
		ChannelShare:     []ChannelShare{},
		TopCities:        []CityProfit{},
		TopSavingsCities: []CitySavings{},
		TopIncomeCities:  []CityIncome{},
	}

	var ticketSum float64
	var ticketCount int

	channelIncome := make(map[string]float64)
	var channels []string

	cityIndex := make(map[string]int)
	var cities []*cityTotals

	for i := range clients {
		c := &clients[i]

		income := models.Float(c.TotalIncome)
		visitCost, logisticsCost := e.operatingCosts(c)
		profit := income - visitCost - logisticsCost
		savings := annualSavings(c)

		m.TotalIncome += income
		m.VisitCost += visitCost
		m.LogisticsCost += logisticsCost
		m.OrderFrequency += models.Float(c.ClientFrequency)
		m.PotentialSavings += savings

		if models.IsSet(c.MedianTicketYear) {
			ticketSum += models.Float(c.MedianTicketYear)
			ticketCount++
		}

		if models.IsSet(c.Channel) {
			ch := *c.Channel
			if _, ok := channelIncome[ch]; !ok {
				channels = append(channels, ch)
			}
			channelIncome[ch] += income
		}

		if models.IsSet(c.City) {
			idx, ok := cityIndex[*c.City]
			if !ok {
				idx = len(cities)
				cityIndex[*c.City] = idx
				cities = append(cities, &cityTotals{name: *c.City})
			}
			ct := cities[idx]
			ct.profit += profit
			ct.income += income
			if hasSavingsData(c) {
				ct.savings += savings
				ct.hasSavings = true
			}
		}
	}

	if ticketCount > 0 {
		m.MedianTicket = ticketSum / float64(ticketCount)
	}
	m.Profit = m.TotalIncome - m.VisitCost - m.LogisticsCost
	m.ROIPercent = roi(m.Profit, m.VisitCost+m.LogisticsCost)

	var channelTotal float64
	for _, ch := range channels {
		channelTotal += channelIncome[ch]
	}
	for _, ch := range channels {
		share := ChannelShare{Channel: ch}
		if channelTotal > 0 {
			share.Percentage = channelIncome[ch] / channelTotal * 100
		}
		m.ChannelShare = append(m.ChannelShare, share)
	}

	for _, ct := range topBy(cities, func(c *cityTotals) float64 { return c.profit }) {
		m.TopCities = append(m.TopCities, CityProfit{City: ct.name, Profit: ct.profit})
	}
	for _, ct := range topBy(cities, func(c *cityTotals) float64 { return c.income }) {
		m.TopIncomeCities = append(m.TopIncomeCities, CityIncome{City: ct.name, Income: ct.income})
	}

	var withSavings []*cityTotals
	for _, ct := range cities {
		if ct.hasSavings {
			withSavings = append(withSavings, ct)
		}
	}
	for _, ct := range topBy(withSavings, func(c *cityTotals) float64 { return c.savings }) {
		m.TopSavingsCities = append(m.TopSavingsCities, CitySavings{City: ct.name, Savings: ct.savings})
	}

	return m
}

func (e *Engine) operatingCosts(c *models.ClientSummary) (visitCost, logisticsCost float64) {
	visitCost = models.Float(c.TotalPromotorVisits) * e.costs.VisitCost
	logisticsCost = models.Float(c.TotalOrders) * e.costs.LogisticsCost
	return visitCost, logisticsCost
}

// roi - прибыль к операционным затратам в процентах, 0 при нулевых затратах
func roi(profit, costBase float64) float64 {
	if costBase <= 0 {
		return 0
	}
	return profit / costBase * 100
}

// annualSavings: годовая оценка, иначе месячная × 12, иначе 0
func annualSavings(c *models.ClientSummary) float64 {
	if models.IsSet(c.AnnualEstimatedSavings) {
		return models.Float(c.AnnualEstimatedSavings)
	}
	if models.IsSet(c.EstimatedSavings) {
		return models.Float(c.EstimatedSavings) * 12
	}
	return 0
}

func hasSavingsData(c *models.ClientSummary) bool {
	return models.IsSet(c.AnnualEstimatedSavings) || models.IsSet(c.EstimatedSavings)
}

// topBy возвращает до трёх городов по убыванию ключа; равные сохраняют порядок появления
func topBy(cities []*cityTotals, key func(*cityTotals) float64) []*cityTotals {
	sorted := make([]*cityTotals, len(cities))
	copy(sorted, cities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}
