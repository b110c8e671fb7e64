package query

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/user/route-optimizer-api/internal/models"
)

// ResultTypeError - тип результата при ошибке доступа к данным
const ResultTypeError = "error"

// Store - источник аналитических запросов (только чтение)
type Store interface {
	Query(ctx context.Context, sql string, args map[string]any) ([]models.Row, error)
}

// Result - результат выполнения шаблона
type Result struct {
	Type          string       `json:"type"`
	Rows          []models.Row `json:"data"`
	Summary       string       `json:"summary"`
	ExecutedQuery string       `json:"sql_executed,omitempty"`
}

// IsError - запрос завершился ошибкой доступа к данным
func (r *Result) IsError() bool {
	return r.Type == ResultTypeError
}

// Service - распознавание и выполнение аналитических запросов
type Service struct {
	library *Library
	store   Store
}

// NewService создаёт сервис запросов
func NewService(library *Library, store Store) *Service {
	if library == nil {
		library = DefaultLibrary()
	}
	return &Service{library: library, store: store}
}

// Library возвращает каталог шаблонов
func (s *Service) Library() *Library {
	return s.library
}

// Resolve распознаёт вопрос без выполнения запроса
func (s *Service) Resolve(text string) (*ResolvedQuery, bool) {
	return s.library.Resolve(text)
}

// ResolveAndExecute распознаёт вопрос и выполняет запрос.
// nil означает, что ни один шаблон не подошёл.
func (s *Service) ResolveAndExecute(ctx context.Context, text string) *Result {
	resolved, ok := s.library.Resolve(text)
	if !ok {
		return nil
	}
	log.Printf("[Query] Распознан шаблон %s, параметры: %v", resolved.Template.Key, resolved.Params)
	return s.Execute(ctx, resolved)
}

// Execute выполняет шаблон. Ошибки не возвращаются: сбой БД превращается
// в результат типа "error" с пустым набором строк.
func (s *Service) Execute(ctx context.Context, resolved *ResolvedQuery) *Result {
	t := resolved.Template
	args := BuildArgs(t, resolved.Params)

	rows, err := s.store.Query(ctx, t.Query, args)
	if err != nil {
		log.Printf("[Query] Ошибка выполнения %s: %v", t.Key, err)
		return &Result{
			Type:    ResultTypeError,
			Rows:    []models.Row{},
			Summary: fmt.Sprintf("Error executing query: %v", err),
		}
	}
	if rows == nil {
		rows = []models.Row{}
	}

	return &Result{
		Type:          t.Description,
		Rows:          rows,
		Summary:       fmt.Sprintf("Found %d results for: %s", len(rows), t.Description),
		ExecutedQuery: strings.TrimSpace(t.Query),
	}
}

// BuildArgs приводит параметры к объявленным типам: @p1, @p2, ...
func BuildArgs(t *Template, params []string) map[string]any {
	if !t.HasParams() || len(params) == 0 {
		return nil
	}

	args := make(map[string]any, len(params))
	for i, p := range params {
		args["p"+strconv.Itoa(i+1)] = paramValue(t.ParamKindAt(i), p)
	}
	return args
}

func paramValue(kind ParamKind, raw string) any {
	raw = strings.TrimSpace(raw)
	if kind == ParamNumber {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return "%" + raw + "%"
}
