package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/user/route-optimizer-api/internal/models"
	"github.com/user/route-optimizer-api/internal/repository"
	"github.com/user/route-optimizer-api/internal/services/ai"
	"github.com/user/route-optimizer-api/internal/services/chat"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func str(v string) *string { return &v }

type fakeRepo struct {
	clients map[string]*models.ClientSummary
	pingErr error
	limit   int
}

func (f *fakeRepo) Ping(context.Context) error { return f.pingErr }

func (f *fakeRepo) GetClients(_ context.Context, limit int) ([]models.ClientSummary, error) {
	f.limit = limit
	var out []models.ClientSummary
	for _, c := range f.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) GetClientByID(_ context.Context, id string) (*models.ClientSummary, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrClientNotFound, id)
}

type fakeMetrics struct {
	engine    *metrics.Engine
	repo      *fakeRepo
	err       error
	refreshes int
}

func (f *fakeMetrics) Engine() *metrics.Engine { return f.engine }

func (f *fakeMetrics) ComputeForClient(ctx context.Context, id string) (*metrics.Metrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, err := f.repo.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.engine.ForClient(c), nil
}

func (f *fakeMetrics) ComputeGlobal(ctx context.Context) (*metrics.Metrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	clients, _ := f.repo.GetClients(ctx, 0)
	return f.engine.Global(clients), nil
}

func (f *fakeMetrics) RefreshGlobal(ctx context.Context) (*metrics.Metrics, error) {
	f.refreshes++
	return f.ComputeGlobal(ctx)
}

type fakeQueries struct {
	result *query.Result
}

func (f *fakeQueries) ResolveAndExecute(context.Context, string) *query.Result {
	return f.result
}

type fakeChat struct {
	resp *chat.Response
	err  error
}

func (f *fakeChat) Handle(context.Context, chat.Request) (*chat.Response, error) {
	return f.resp, f.err
}

type fakeAI struct {
	stats *ai.UsageStats
	days  int
}

func (f *fakeAI) IsEnabled() bool  { return true }
func (f *fakeAI) Provider() string { return ai.ProviderGemini }

func (f *fakeAI) GetUsageStats(days int) (*ai.UsageStats, error) {
	f.days = days
	return f.stats, nil
}

func newTestRouter(q *query.Result, ch *fakeChat, metricsErr error) (*gin.Engine, *fakeRepo) {
	repo := &fakeRepo{clients: map[string]*models.ClientSummary{
		"653025": {
			ClientID:            "653025",
			City:                str("Valencia"),
			Channel:             str("HORECA"),
			TotalIncome:         str("1000"),
			TotalPromotorVisits: str("10"),
			TotalOrders:         str("5"),
			ClusterName:         str("CloudCastle_3"),
		},
	}}
	m := &fakeMetrics{
		engine: metrics.NewEngine(metrics.Costs{VisitCost: 15, LogisticsCost: 10}),
		repo:   repo,
		err:    metricsErr,
	}
	if ch == nil {
		ch = &fakeChat{}
	}
	h := NewHandler(repo, m, &fakeQueries{result: q}, ch)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/clients", h.GetClients)
	api.GET("/clients/:id", h.GetClient)
	api.GET("/metrics", h.GetMetrics)
	api.GET("/metrics/report", h.GetMetricsReport)
	api.POST("/query", h.RunQuery)
	api.GET("/query/export", h.ExportQuery)
	api.GET("/strategies", h.GetStrategies)
	api.GET("/strategies/classify", h.ClassifyStrategy)
	api.POST("/chat", h.Chat)
	return r, repo
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	r, repo := newTestRouter(nil, nil, nil)
	if w := do(r, http.MethodGet, "/api/health", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}

	repo.pingErr = errors.New("connection refused")
	if w := do(r, http.MethodGet, "/api/health", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestGetClients_Limit(t *testing.T) {
	r, repo := newTestRouter(nil, nil, nil)

	w := do(r, http.MethodGet, "/api/clients", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if repo.limit != 10 {
		t.Errorf("default limit = %d, want 10", repo.limit)
	}

	do(r, http.MethodGet, "/api/clients?limit=3", nil)
	if repo.limit != 3 {
		t.Errorf("limit = %d, want 3", repo.limit)
	}

	if w := do(r, http.MethodGet, "/api/clients?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetClient(t *testing.T) {
	r, _ := newTestRouter(nil, nil, nil)

	w := do(r, http.MethodGet, "/api/clients/653025", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	st := body["strategy"].(map[string]any)
	if st["key"] != "CloudCastle_3" {
		t.Errorf("strategy key = %v", st["key"])
	}

	if w := do(r, http.MethodGet, "/api/clients/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetMetrics(t *testing.T) {
	r, _ := newTestRouter(nil, nil, nil)

	w := do(r, http.MethodGet, "/api/metrics?clientId=653025", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if _, ok := body["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
	data := body["data"].(map[string]any)
	if data["profit"] != 800.0 || data["roi_percent"] != 400.0 {
		t.Errorf("profit = %v, roi = %v", data["profit"], data["roi_percent"])
	}

	w = do(r, http.MethodGet, "/api/metrics?clientId=999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if decode(t, w)["success"] != false {
		t.Error("success must be false")
	}

	if w := do(r, http.MethodGet, "/api/metrics", nil); w.Code != http.StatusOK {
		t.Errorf("global status = %d", w.Code)
	}
}

func TestGetMetrics_Failure(t *testing.T) {
	r, _ := newTestRouter(nil, nil, errors.New("db down"))

	w := do(r, http.MethodGet, "/api/metrics", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Error("internal error leaked to client")
	}
}

func TestGetMetricsReport(t *testing.T) {
	r, _ := newTestRouter(nil, nil, nil)

	w := do(r, http.MethodGet, "/api/metrics/report?clientId=653025", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}

	if w := do(r, http.MethodGet, "/api/metrics/report?clientId=999", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRunQuery(t *testing.T) {
	result := &query.Result{
		Type:    "Clients in city",
		Rows:    []models.Row{{{Name: "client_id", Value: "653025"}, {Name: "city", Value: "Valencia"}}},
		Summary: "Found 1 results for: Clients in city",
	}
	r, _ := newTestRouter(result, nil, nil)

	w := do(r, http.MethodPost, "/api/query", gin.H{"message": "clients in Valencia"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["matched"] != true {
		t.Errorf("matched = %v", body["matched"])
	}
	if !strings.Contains(body["formatted"].(string), "653025") {
		t.Errorf("formatted = %v", body["formatted"])
	}

	if w := do(r, http.MethodPost, "/api/query", gin.H{"message": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRunQuery_NoMatch(t *testing.T) {
	r, _ := newTestRouter(nil, nil, nil)

	w := do(r, http.MethodPost, "/api/query", gin.H{"message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if decode(t, w)["matched"] != false {
		t.Error("matched must be false")
	}
}

func TestExportQuery(t *testing.T) {
	result := &query.Result{
		Type: "Clients in city",
		Rows: []models.Row{{{Name: "client_id", Value: "653025"}}},
	}
	r, _ := newTestRouter(result, nil, nil)

	w := do(r, http.MethodGet, "/api/query/export?message=clients+in+Valencia", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	// XLSX - это zip-архив
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not an xlsx archive")
	}

	if w := do(r, http.MethodGet, "/api/query/export", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExportQuery_Error(t *testing.T) {
	result := &query.Result{Type: query.ResultTypeError, Rows: []models.Row{}, Summary: "Error executing query: boom"}
	r, _ := newTestRouter(result, nil, nil)

	if w := do(r, http.MethodGet, "/api/query/export?message=x", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestStrategies(t *testing.T) {
	r, _ := newTestRouter(nil, nil, nil)

	w := do(r, http.MethodGet, "/api/strategies", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) == 0 {
		t.Fatalf("strategies = %s", w.Body.String())
	}

	body := decode(t, do(r, http.MethodGet, "/api/strategies/classify?label=CloudCastle_3", nil))
	if body["matched_by"] == "default" {
		t.Errorf("matched_by = %v", body["matched_by"])
	}

	body = decode(t, do(r, http.MethodGet, "/api/strategies/classify", nil))
	if body["matched_by"] != "empty" {
		t.Errorf("matched_by = %v, want empty", body["matched_by"])
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty message", chat.ErrEmptyMessage, http.StatusBadRequest},
		{"query failed", fmt.Errorf("%w: Error executing query: boom", chat.ErrQueryFailed), http.StatusInternalServerError},
		{"client load failed", fmt.Errorf("%w 653025: %w", chat.ErrContextFailed, errors.New("boom")), http.StatusInternalServerError},
		{"ai disabled", ai.ErrDisabled, http.StatusServiceUnavailable},
		{"rate limited", ai.ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", fmt.Errorf("gemini: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"provider error", errors.New("upstream 500"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(nil, &fakeChat{err: tt.err}, nil)
			w := do(r, http.MethodPost, "/api/chat", gin.H{"message": "hi"})
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(w.Body.String(), "boom") {
				t.Error("query error details leaked to client")
			}
		})
	}
}

func TestChat_OK(t *testing.T) {
	resp := &chat.Response{Answer: "Increase visit spacing", Source: chat.SourceAI, ClientID: "653025", HasClientData: true}
	r, _ := newTestRouter(nil, &fakeChat{resp: resp}, nil)

	w := do(r, http.MethodPost, "/api/chat", gin.H{"message": "How to improve client 653025?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["answer"] != resp.Answer || body["source"] != chat.SourceAI {
		t.Errorf("body = %v", body)
	}
}

func TestGetAIUsage(t *testing.T) {
	svc := &fakeAI{stats: &ai.UsageStats{TotalRequests: 3}}
	h := NewAIHandler(svc)
	r := gin.New()
	r.GET("/api/ai/usage", h.GetAIUsage)
	r.GET("/api/ai/status", h.GetAIStatus)

	do(r, http.MethodGet, "/api/ai/usage", nil)
	if svc.days != 30 {
		t.Errorf("default days = %d", svc.days)
	}
	do(r, http.MethodGet, "/api/ai/usage?days=1000", nil)
	if svc.days != 30 {
		t.Errorf("out of range days = %d, want default", svc.days)
	}
	w := do(r, http.MethodGet, "/api/ai/usage?days=7", nil)
	if svc.days != 7 {
		t.Errorf("days = %d", svc.days)
	}
	stats := decode(t, w)["stats"].(map[string]any)
	if stats["total_requests"] != 3.0 {
		t.Errorf("stats = %v", stats)
	}

	body := decode(t, do(r, http.MethodGet, "/api/ai/status", nil))
	if body["provider"] != ai.ProviderGemini || body["enabled"] != true {
		t.Errorf("status = %v", body)
	}
}

func TestGetMetrics_FreshBypassesCache(t *testing.T) {
	repo := &fakeRepo{clients: map[string]*models.ClientSummary{}}
	m := &fakeMetrics{engine: metrics.NewEngine(metrics.Costs{VisitCost: 15, LogisticsCost: 10}), repo: repo}
	h := NewHandler(repo, m, &fakeQueries{}, &fakeChat{})
	r := gin.New()
	r.GET("/api/metrics", h.GetMetrics)

	do(r, http.MethodGet, "/api/metrics", nil)
	if m.refreshes != 0 {
		t.Errorf("refreshes = %d, want 0 for cached read", m.refreshes)
	}
	if w := do(r, http.MethodGet, "/api/metrics?fresh=true", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if m.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", m.refreshes)
	}
}
