package strategy

import (
	"sort"
	"strings"
)

// DefaultKey - ключ стратегии по умолчанию ("Standard Profile")
const DefaultKey = "N/A"

// Strategy - рекомендованное действие для сегмента клиентов
type Strategy struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Tactic      string `json:"tactic"`
	Reason      string `json:"reason"`
	TargetGap   string `json:"target_gap"`
	RiskNote    string `json:"risk_note"`
}

var strategies = map[string]Strategy{
	// High-Ticket Efficient (~46% базы)
	"HighTicket_Efficient": {
		Label:       "High-Ticket Efficient",
		Description: "High ticket value (≥€80), gap ≈ 0 (every visit produces order).",
		Tactic:      "Maintain frequency; explore upselling opportunities.",
		Reason:      "Already maximizing margin; any visit reduction could damage relationship.",
		TargetGap:   "0",
		RiskNote:    "Low risk. Focus on value enhancement.",
	},
	// Low-Ticket Efficient (~36% базы)
	"LowTicket_Efficient": {
		Label:       "Low-Ticket Efficient",
		Description: "Ticket <€80, but visits well utilized (gap ≈ 0).",
		Tactic:      "Maintain or consolidate routes; incentivize larger baskets.",
		Reason:      "Each order leaves little margin; increasing value per delivery is more profitable than reducing visits.",
		TargetGap:   "0",
		RiskNote:    "Low risk. Focus on ticket size increase.",
	},

	// CloudCastle (~10% базы, основной источник экономии)
	"CloudCastle_0": {
		Label:       "Every-Visit Converters",
		Description: "1.15 visits/month → 0.73 orders (gap 0.42). Almost 90% visits convert.",
		Tactic:      "Reduce 2 visits per year → gap 0.",
		Reason:      "Nearly 90% of visits convert; eliminating the one unproductive visit saves cost without risk.",
		TargetGap:   "0",
		RiskNote:    "Minimal risk. Precise adjustment.",
	},
	"CloudCastle_1": {
		Label:       "Moderate Visits",
		Description: "3.96 visits/month → 3.07 orders (gap 0.89). Close to 1:1 ratio.",
		Tactic:      "Cut 1 visit per month → gap 0.",
		Reason:      "Already close to 1:1; small adjustment captures almost all opportunity cost.",
		TargetGap:   "0",
		RiskNote:    "Very low risk. Light optimization.",
	},
	"CloudCastle_2": {
		Label:       "VIP Client",
		Description: "1.0 visits/month → 0.42 orders (gap 0.58). Ticket >€19k.",
		Tactic:      "On-demand visits only.",
		Reason:      "Very high ticket value; personalized service but without useless routine.",
		TargetGap:   "0",
		RiskNote:    "Low risk. VIP treatment maintained.",
	},
	"CloudCastle_3": {
		Label:       "High Visits",
		Description: "4.22 visits/month → 2.05 orders (gap 2.17). Maximum inefficiency.",
		Tactic:      "Reduce visits until gap ≤ 2; monitor closely.",
		Reason:      "Maximum inefficiency; partial cut balances risk of sales drop with savings.",
		TargetGap:   "≤2",
		RiskNote:    "Medium risk. Requires monitoring.",
	},

	// Low-Ticket Inefficient, подпрофили (~8% базы)
	"LowTicket_Inefficient_A": {
		Label:       "Micro-frequent",
		Description: "2-4 orders/month, multiple visits, ticket €40-70.",
		Tactic:      "Consolidate orders, move to bi-weekly visits.",
		Reason:      "Increase average ticket per delivery and cut promoter cost.",
		TargetGap:   "≤1",
		RiskNote:    "Low risk. Consolidation strategy.",
	},
	"LowTicket_Inefficient_B": {
		Label:       "Sporadic",
		Description: "≤1 order/month, 2-4 visits. Low engagement.",
		Tactic:      "Reactive model (visit only with confirmed order).",
		Reason:      "Routine visits generate net loss.",
		TargetGap:   "≤0",
		RiskNote:    "Low risk. Order-driven approach.",
	},
	"LowTicket_Inefficient_C": {
		Label:       "Net Negative",
		Description: "Negative profit after costs. Very low performance.",
		Tactic:      "Minimum orders or migrate to wholesale.",
		Reason:      "Free up promoter hours and truck space.",
		TargetGap:   "≤0",
		RiskNote:    "Low-medium risk. Strategic decision.",
	},

	// Обобщённые профили для неразмеченных кластеров
	"HighTicket_Inefficient": {
		Label:       "High-Ticket Inefficient",
		Description: "High ticket value but with visit-order gap inefficiencies.",
		Tactic:      "Optimize visit frequency to reduce gap while maintaining relationship.",
		Reason:      "High value clients require careful balance between efficiency and service quality.",
		TargetGap:   "≤1",
		RiskNote:    "Medium risk. Requires careful management.",
	},
	"LowTicket_Inefficient": {
		Label:       "Low-Ticket Inefficient",
		Description: "Low ticket value with visit inefficiencies.",
		Tactic:      "Reduce visit frequency or implement order-driven approach.",
		Reason:      "Low margins require efficiency optimization to maintain profitability.",
		TargetGap:   "≤1",
		RiskNote:    "Low-medium risk. Focus on efficiency.",
	},

	DefaultKey: {
		Label:       "Standard Profile",
		Description: "Standard client profile under analysis.",
		Tactic:      "Maintain current approach while gathering more data.",
		Reason:      "Insufficient data for specific optimization strategy.",
		TargetGap:   "Current",
		RiskNote:    "Analysis pending.",
	},
}

// rule - шаг цепочки классификации; первый сработавший определяет стратегию
type rule struct {
	name  string
	match func(label string) bool
	key   string
}

func containsAll(parts ...string) func(string) bool {
	return func(label string) bool {
		for _, p := range parts {
			if !strings.Contains(label, p) {
				return false
			}
		}
		return true
	}
}

// Порядок важен: "HighTicket_Efficient_X" и "HighTicket_Inefficient" могут
// совпасть с несколькими правилами, выигрывает первое.
var fallbackRules = []rule{
	{"high ticket efficient", containsAll("HighTicket", "Efficient"), "HighTicket_Efficient"},
	{"low ticket efficient", containsAll("LowTicket", "Efficient"), "LowTicket_Efficient"},
	{"high ticket inefficient", containsAll("HighTicket", "Inefficient"), "HighTicket_Inefficient"},
	{"low ticket inefficient", containsAll("LowTicket", "Inefficient"), "LowTicket_Inefficient"},
	{"cloud castle family", containsAll("CloudCastle"), "HighTicket_Inefficient"},
	{"high visits", containsAll("High Visits"), "CloudCastle_3"},
	{"every visit converters", containsAll("Every Visit Converters"), "CloudCastle_0"},
	{"moderate visits", containsAll("Moderate Visits"), "CloudCastle_1"},
	{"vip client", containsAll("VIP Client"), "CloudCastle_2"},
	{"occasional", containsAll("Occasional"), "LowTicket_Inefficient_A"},
}

// Classify возвращает стратегию для метки кластера. Никогда не завершается ошибкой:
// пустая или неизвестная метка даёт стратегию по умолчанию.
func Classify(label string) Strategy {
	key, _ := Resolve(label)
	return Get(key)
}

// Resolve возвращает ключ стратегии и имя сработавшего правила.
// Пробелы по краям метки не учитываются.
func Resolve(label string) (key, matchedBy string) {
	label = strings.TrimSpace(label)
	if label == "" || label == DefaultKey || label == "null" {
		return DefaultKey, "empty"
	}
	if _, ok := strategies[label]; ok {
		return label, "exact"
	}
	for _, r := range fallbackRules {
		if r.match(label) {
			return r.key, r.name
		}
	}
	return DefaultKey, "default"
}

// Get возвращает стратегию по ключу (по умолчанию - Standard Profile)
func Get(key string) Strategy {
	s, ok := strategies[key]
	if !ok {
		key = DefaultKey
		s = strategies[DefaultKey]
	}
	s.Key = key
	return s
}

// All возвращает все стратегии, отсортированные по ключу
func All() []Strategy {
	keys := make([]string, 0, len(strategies))
	for k := range strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Strategy, 0, len(keys))
	for _, k := range keys {
		out = append(out, Get(k))
	}
	return out
}
