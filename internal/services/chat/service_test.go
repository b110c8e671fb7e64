package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/route-optimizer-api/internal/models"
	"github.com/user/route-optimizer-api/internal/repository"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
)

func str(v string) *string { return &v }

type fakeClients struct {
	clients map[string]*models.ClientSummary
	err     error
}

func (f *fakeClients) GetClientByID(_ context.Context, id string) (*models.ClientSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrClientNotFound, id)
}

type fakeQueries struct {
	result *query.Result
}

func (f *fakeQueries) ResolveAndExecute(context.Context, string) *query.Result {
	return f.result
}

type fakeMetrics struct {
	engine *metrics.Engine
	store  *fakeClients
	err    error
}

func (f *fakeMetrics) ComputeForClient(ctx context.Context, id string) (*metrics.Metrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, err := f.store.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.engine.ForClient(c), nil
}

type fakeAssistant struct {
	prompt string
	answer string
	err    error
}

func (f *fakeAssistant) Ask(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func newTestService(q *query.Result, metricsErr error) (*Service, *fakeAssistant) {
	clients := &fakeClients{clients: map[string]*models.ClientSummary{
		"653025": {
			ClientID:            "653025",
			City:                str("Valencia"),
			Channel:             str("HORECA"),
			TotalIncome:         str("1000"),
			TotalPromotorVisits: str("10"),
			TotalOrders:         str("5"),
			ClusterName:         str("HighTicket_Efficient_X"),
		},
	}}
	m := &fakeMetrics{engine: metrics.NewEngine(metrics.Costs{VisitCost: 15, LogisticsCost: 10}), store: clients, err: metricsErr}
	assistant := &fakeAssistant{answer: "respuesta del modelo"}
	return NewService(clients, &fakeQueries{result: q}, m, assistant), assistant
}

func TestExtractClientID(t *testing.T) {
	tests := map[string]string{
		"¿Qué tal el cliente 653025?": "653025",
		"client: 42 summary":          "42",
		"CLIENTE12":                   "12",
		"sin identificador":           "",
	}
	for in, want := range tests {
		if got := ExtractClientID(in); got != want {
			t.Errorf("ExtractClientID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandle_EmptyMessage(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	if _, err := svc.Handle(context.Background(), Request{Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestHandle_DirectQueryAnswer(t *testing.T) {
	result := &query.Result{
		Type: "Most efficient clients globally",
		Rows: []models.Row{{{Name: "client_id", Value: "1"}, {Name: "city", Value: "Madrid"}}},
	}
	svc, assistant := newTestService(result, nil)

	resp, err := svc.Handle(context.Background(), Request{Message: "most efficient client"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Source != SourceQuery || resp.QueryType != result.Type {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Answer, "1. Client 1") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if assistant.prompt != "" {
		t.Error("assistant must not be called for a direct answer")
	}
}

func TestHandle_QueryErrorSurfaces(t *testing.T) {
	result := &query.Result{Type: query.ResultTypeError, Rows: []models.Row{}, Summary: "Error executing query: boom"}
	svc, _ := newTestService(result, nil)

	if _, err := svc.Handle(context.Background(), Request{Message: "highest revenue client"}); !errors.Is(err, ErrQueryFailed) {
		t.Errorf("err = %v, want ErrQueryFailed", err)
	}
}

func TestHandle_EmptyResultFallsBackToAssistant(t *testing.T) {
	result := &query.Result{Type: "City statistics summary", Rows: []models.Row{}}
	svc, assistant := newTestService(result, nil)

	resp, err := svc.Handle(context.Background(), Request{Message: "stats of Atlantis"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Source != SourceAI || resp.Answer != "respuesta del modelo" {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(assistant.prompt, "stats of Atlantis") {
		t.Errorf("prompt must contain the question: %q", assistant.prompt)
	}
}

func TestHandle_ClientContext(t *testing.T) {
	svc, assistant := newTestService(nil, nil)

	resp, err := svc.Handle(context.Background(), Request{Message: "¿Cómo optimizo el cliente 653025?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ClientID != "653025" || !resp.HasClientData || !resp.HasMetrics {
		t.Errorf("resp = %+v", resp)
	}
	for _, want := range []string{
		"- client_id: 653025",
		"- promotor_id: N/A",
		"- opportunity_cost: N/A",
		"- Profit: €800.00",
		"- ROI: 400.00%",
		"- Segment: High-Ticket Efficient",
	} {
		if !strings.Contains(assistant.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, assistant.prompt)
		}
	}
}

func TestHandle_ExplicitClientIDWins(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	resp, err := svc.Handle(context.Background(), Request{Message: "resumen cliente 1", ClientID: "653025"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ClientID != "653025" || !resp.HasClientData {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandle_UnknownClientAndMetricsFailure(t *testing.T) {
	svc, assistant := newTestService(nil, errors.New("metrics down"))

	resp, err := svc.Handle(context.Background(), Request{Message: "cliente 999"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.HasClientData || resp.HasMetrics {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(assistant.prompt, "ask for the client ID") {
		t.Errorf("expected no-context prompt, got %q", assistant.prompt)
	}

	resp, err = svc.Handle(context.Background(), Request{Message: "cliente 653025"})
	if err != nil {
		t.Fatalf("metrics failure must not fail the chat: %v", err)
	}
	if !resp.HasClientData || resp.HasMetrics {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandle_StoreErrorFails(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	svc.clients = &fakeClients{err: errors.New("connection reset")}

	_, err := svc.Handle(context.Background(), Request{Message: "cliente 653025"})
	if !errors.Is(err, ErrContextFailed) {
		t.Errorf("err = %v, want ErrContextFailed", err)
	}
}

func TestHandle_AssistantError(t *testing.T) {
	svc, assistant := newTestService(nil, nil)
	assistant.err = errors.New("model unavailable")
	if _, err := svc.Handle(context.Background(), Request{Message: "hola"}); err == nil {
		t.Error("expected assistant error")
	}
}
