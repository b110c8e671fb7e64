package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Field - колонка результата запроса
type Field struct {
	Name  string
	Value any
}

// Row - строка результата с сохранённым порядком колонок
type Row []Field

// Get возвращает значение колонки
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has - колонка есть и содержит непустое значение
func (r Row) Has(name string) bool {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return false
	}
	return strings.TrimSpace(Text(v)) != ""
}

// Text возвращает значение колонки строкой ("" если нет)
func (r Row) Text(name string) string {
	v, _ := r.Get(name)
	return Text(v)
}

// Float возвращает значение колонки числом (0 если не разбирается)
func (r Row) Float(name string) float64 {
	v, _ := r.Get(name)
	return Float(v)
}

// MarshalJSON сериализует строку как объект, сохраняя порядок колонок
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(plain(f.Value))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Text приводит значение из БД к строке
func Text(v any) string {
	switch val := plain(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	default:
		return fmt.Sprint(val)
	}
}

// plain разворачивает []byte и driver.Valuer в базовые типы
func plain(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return nil
		}
		if _, again := inner.(driver.Valuer); again {
			return fmt.Sprint(inner)
		}
		return plain(inner)
	default:
		return v
	}
}
