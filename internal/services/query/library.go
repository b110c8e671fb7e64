package query

import (
	"regexp"
	"sort"
)

// ParamKind - тип параметра шаблона
type ParamKind int

const (
	// ParamText - поиск подстроки без учёта регистра (оборачивается в %...%)
	ParamText ParamKind = iota
	// ParamNumber - целое число (лимиты, количество)
	ParamNumber
)

// Specificity - уровень конкретности шаблона внутри семейства.
// Меньшее значение проверяется раньше: глобальный шаблон всегда идёт после
// городского, потому что его выражение - подмножество городского.
type Specificity int

const (
	SpecificityScoped Specificity = iota // с городом / кластером
	SpecificityRanked                    // топ-N
	SpecificityGlobal                    // без параметров
)

// Template - параметризованный аналитический запрос
type Template struct {
	Key         string
	Family      string
	Specificity Specificity
	Patterns    []*regexp.Regexp
	Query       string
	Description string
	Params      []ParamKind
}

// HasParams - шаблон принимает параметры
func (t *Template) HasParams() bool {
	return len(t.Params) > 0
}

// ParamKindAt возвращает тип i-го параметра (по умолчанию текст)
func (t *Template) ParamKindAt(i int) ParamKind {
	if i < len(t.Params) {
		return t.Params[i]
	}
	return ParamText
}

// Library - упорядоченный каталог шаблонов. После создания не изменяется.
type Library struct {
	templates []*Template
}

// NewLibrary упорядочивает шаблоны: семейства в порядке объявления,
// внутри семейства - по Specificity (стабильно)
func NewLibrary(templates []*Template) *Library {
	familyOrder := make(map[string]int)
	for _, t := range templates {
		if _, ok := familyOrder[t.Family]; !ok {
			familyOrder[t.Family] = len(familyOrder)
		}
	}

	ordered := make([]*Template, len(templates))
	copy(ordered, templates)
	sort.SliceStable(ordered, func(i, j int) bool {
		fi, fj := familyOrder[ordered[i].Family], familyOrder[ordered[j].Family]
		if fi != fj {
			return fi < fj
		}
		return ordered[i].Specificity < ordered[j].Specificity
	})

	return &Library{templates: ordered}
}

// Templates возвращает шаблоны в порядке проверки
func (l *Library) Templates() []*Template {
	out := make([]*Template, len(l.templates))
	copy(out, l.templates)
	return out
}

// Template возвращает шаблон по ключу
func (l *Library) Template(key string) (*Template, bool) {
	for _, t := range l.templates {
		if t.Key == key {
			return t, true
		}
	}
	return nil, false
}

// patterns компилирует выражения без учёта регистра
func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Имя города или кластера (латиница, испанские буквы, цифры)
const (
	word   = `([a-záéíóúüñ\w]+)`
	phrase = `([a-záéíóúüñ\w\s]+)`
)

var defaultLibrary = NewLibrary(defaultTemplates())

// DefaultLibrary возвращает стандартный каталог запросов
func DefaultLibrary() *Library {
	return defaultLibrary
}

func defaultTemplates() []*Template {
	return []*Template{
		// === Эффективность ===
		{
			Key:         "MOST_EFFICIENT_BY_CITY",
			Family:      "efficiency",
			Specificity: SpecificityScoped,
			Patterns: patterns(
				`cliente más eficiente en `+word,
				`most efficient client in `+word,
				`best efficiency in `+word,
				`mejor cliente en `+word,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(efficiency AS NUMERIC) AS efficiency_score,
					median_ticket_year,
					total_income,
					cluster_name
				FROM client_summary
				WHERE city ILIKE @p1
					AND efficiency IS NOT NULL
					AND CAST(efficiency AS NUMERIC) > 0
				ORDER BY CAST(efficiency AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Most efficient clients in specific city",
			Params:      []ParamKind{ParamText},
		},
		{
			Key:         "MOST_EFFICIENT_GLOBAL",
			Family:      "efficiency",
			Specificity: SpecificityGlobal,
			Patterns: patterns(
				`cliente más eficiente`,
				`most efficient client`,
				`best efficiency`,
				`cliente con mejor eficiencia`,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(efficiency AS NUMERIC) AS efficiency_score,
					median_ticket_year,
					total_income,
					cluster_name
				FROM client_summary
				WHERE efficiency IS NOT NULL
					AND CAST(efficiency AS NUMERIC) > 0
				ORDER BY CAST(efficiency AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Most efficient clients globally",
		},

		// === Медианный чек ===
		{
			Key:         "HIGHEST_MEDIAN_TICKET_BY_CITY",
			Family:      "median_ticket",
			Specificity: SpecificityScoped,
			Patterns: patterns(
				`clients with (?:the )?(?:better|best|highest) median ticket in `+word,
				`mejor (?:ticket medio|median ticket) en `+word,
				`highest ticket in `+word,
				`clientes con mejor ticket en `+word,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(median_ticket_year AS NUMERIC) AS median_ticket,
					CAST(total_income AS NUMERIC) AS revenue,
					total_orders,
					cluster_name
				FROM client_summary
				WHERE city ILIKE @p1
					AND median_ticket_year IS NOT NULL
					AND CAST(median_ticket_year AS NUMERIC) > 0
				ORDER BY CAST(median_ticket_year AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Clients with highest median ticket in specific city",
			Params:      []ParamKind{ParamText},
		},
		{
			Key:         "TOP_CITIES_MEDIAN_TICKET",
			Family:      "median_ticket",
			Specificity: SpecificityRanked,
			Patterns: patterns(
				`top (\d+) cities with (?:the )?(?:better|best|highest) median ticket`,
				`(\d+) mejores ciudades por ticket medio`,
				`top (\d+) ciudades con mejor ticket`,
				`best (\d+) cities by median ticket`,
			),
			Query: `
				SELECT
					city,
					COUNT(*) AS total_clients,
					AVG(CAST(median_ticket_year AS NUMERIC)) AS avg_median_ticket,
					SUM(CAST(total_income AS NUMERIC)) AS total_revenue
				FROM client_summary
				WHERE median_ticket_year IS NOT NULL
					AND CAST(median_ticket_year AS NUMERIC) > 0
					AND city IS NOT NULL
				GROUP BY city
				ORDER BY AVG(CAST(median_ticket_year AS NUMERIC)) DESC
				LIMIT @p1`,
			Description: "Top cities by median ticket",
			Params:      []ParamKind{ParamNumber},
		},
		{
			Key:         "HIGHEST_MEDIAN_TICKET_GLOBAL",
			Family:      "median_ticket",
			Specificity: SpecificityGlobal,
			Patterns: patterns(
				`clients with (?:the )?(?:better|best|highest) median ticket`,
				`mejor (?:ticket medio|median ticket)`,
				`highest ticket`,
				`clientes con mejor ticket`,
				`best median ticket`,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(median_ticket_year AS NUMERIC) AS median_ticket,
					CAST(total_income AS NUMERIC) AS revenue,
					total_orders,
					cluster_name
				FROM client_summary
				WHERE median_ticket_year IS NOT NULL
					AND CAST(median_ticket_year AS NUMERIC) > 0
				ORDER BY CAST(median_ticket_year AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Clients with highest median ticket globally",
		},

		// === Выручка ===
		{
			Key:         "HIGHEST_REVENUE_BY_CITY",
			Family:      "revenue",
			Specificity: SpecificityScoped,
			Patterns: patterns(
				`cliente con más ingresos en `+word,
				`highest revenue client in `+word,
				`mejor cliente por ingresos en `+word,
				`most profitable client in `+word,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(total_income AS NUMERIC) AS revenue,
					median_ticket_year,
					total_orders,
					cluster_name
				FROM client_summary
				WHERE city ILIKE @p1
					AND total_income IS NOT NULL
				ORDER BY CAST(total_income AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Highest revenue clients in specific city",
			Params:      []ParamKind{ParamText},
		},
		{
			Key:         "HIGHEST_REVENUE_GLOBAL",
			Family:      "revenue",
			Specificity: SpecificityGlobal,
			Patterns: patterns(
				`cliente con más ingresos`,
				`highest revenue client`,
				`mejor cliente por ingresos`,
				`most profitable client`,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(total_income AS NUMERIC) AS revenue,
					median_ticket_year,
					total_orders,
					cluster_name
				FROM client_summary
				WHERE total_income IS NOT NULL
				ORDER BY CAST(total_income AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Highest revenue clients globally",
		},

		// === Потенциал экономии ===
		{
			Key:         "HIGHEST_SAVINGS_POTENTIAL",
			Family:      "savings",
			Specificity: SpecificityGlobal,
			Patterns: patterns(
				`cliente con mayor potencial de ahorro`,
				`highest savings potential`,
				`mayor oportunidad de optimización`,
				`best optimization opportunity`,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(annual_estimated_savings AS NUMERIC) AS potential_savings,
					CAST(estimated_savings AS NUMERIC) AS monthly_savings,
					visits_removed,
					cluster_name,
					median_ticket_year
				FROM client_summary
				WHERE annual_estimated_savings IS NOT NULL
					AND CAST(annual_estimated_savings AS NUMERIC) > 0
				ORDER BY CAST(annual_estimated_savings AS NUMERIC) DESC
				LIMIT 5`,
			Description: "Clients with highest savings potential",
		},

		// === Кластеры ===
		{
			Key:         "CLIENTS_BY_CLUSTER",
			Family:      "cluster",
			Specificity: SpecificityScoped,
			Patterns: patterns(
				`clientes del cluster `+phrase,
				`clients in cluster `+phrase,
				phrase+` cluster clients`,
				`clientes `+phrase,
			),
			Query: `
				SELECT
					client_id,
					city,
					channel,
					CAST(total_income AS NUMERIC) AS revenue,
					CAST(efficiency AS NUMERIC) AS efficiency_score,
					median_ticket_year,
					cluster_name,
					class
				FROM client_summary
				WHERE cluster_name ILIKE @p1 OR class ILIKE @p1
				ORDER BY CAST(total_income AS NUMERIC) DESC
				LIMIT 10`,
			Description: "Clients in specific cluster",
			Params:      []ParamKind{ParamText},
		},

		// === Статистика по городу ===
		{
			Key:         "CITY_STATISTICS",
			Family:      "city",
			Specificity: SpecificityScoped,
			Patterns: patterns(
				`stats of `+word,
				`estadísticas de `+word,
				`statistics for `+word,
				`datos de `+word,
				word+` city stats`,
				`resumen de `+word,
			),
			Query: `
				SELECT
					COUNT(*) AS total_clients,
					SUM(CAST(total_income AS NUMERIC)) AS total_revenue,
					AVG(CAST(median_ticket_year AS NUMERIC)) AS avg_ticket,
					SUM(CAST(annual_estimated_savings AS NUMERIC)) AS total_savings_potential,
					COUNT(DISTINCT cluster_name) AS different_clusters
				FROM client_summary
				WHERE city ILIKE @p1`,
			Description: "City statistics summary",
			Params:      []ParamKind{ParamText},
		},
	}
}
