package models

import (
	"math"
	"strconv"
	"strings"
)

// Float разбирает числовое значение из БД.
// Отсутствующие и неразборчивые значения считаются нулём, ошибка не возвращается.
func Float(v any) float64 {
	var f float64
	switch val := plain(v).(type) {
	case nil:
		return 0
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case bool:
		return 0
	case string:
		f = parseFloat(val)
	case *string:
		if val == nil {
			return 0
		}
		f = parseFloat(*val)
	default:
		f = parseFloat(Text(val))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
