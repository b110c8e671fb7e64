package models

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
)

type numericValuer string

func (n numericValuer) Value() (driver.Value, error) { return string(n), nil }

func strPtr(s string) *string { return &s }

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"int64", int64(7), 7},
		{"numeric string", "1234.56", 1234.56},
		{"padded string", "  42 ", 42},
		{"bytes", []byte("3.5"), 3.5},
		{"garbage", "n/a", 0},
		{"empty", "", 0},
		{"string pointer", strPtr("8"), 8},
		{"nil string pointer", (*string)(nil), 0},
		{"valuer", numericValuer("19.75"), 19.75},
		{"NaN string", "NaN", 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Float(tt.in); got != tt.want {
				t.Errorf("Float(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRow_HasAndGet(t *testing.T) {
	row := Row{
		{Name: "city", Value: "Madrid"},
		{Name: "total_clients", Value: int64(3)},
		{Name: "channel", Value: nil},
		{Name: "cluster_name", Value: "  "},
	}

	if !row.Has("city") || !row.Has("total_clients") {
		t.Error("expected city and total_clients to be present")
	}
	if row.Has("channel") || row.Has("cluster_name") || row.Has("client_id") {
		t.Error("nil, blank and missing columns must not be present")
	}
	if row.Text("city") != "Madrid" {
		t.Errorf("Text(city) = %q", row.Text("city"))
	}
	if row.Float("total_clients") != 3 {
		t.Errorf("Float(total_clients) = %v", row.Float("total_clients"))
	}
}

func TestRow_MarshalJSONKeepsOrder(t *testing.T) {
	row := Row{
		{Name: "z", Value: 1},
		{Name: "a", Value: []byte("x")},
		{Name: "m", Value: nil},
	}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"z":1,"a":"x","m":null}` {
		t.Errorf("got %s", data)
	}
}

func TestClientSummary_AsRow(t *testing.T) {
	c := ClientSummary{ClientID: "653025", City: strPtr("Valencia")}
	row := c.AsRow()
	if row[0].Name != "client_id" || row.Text("client_id") != "653025" {
		t.Errorf("unexpected first field: %+v", row[0])
	}
	if row.Text("city") != "Valencia" {
		t.Errorf("city = %q", row.Text("city"))
	}
	if row.Has("channel") {
		t.Error("nil channel must not be present")
	}
}

func TestStringOr(t *testing.T) {
	if got := StringOr(nil, "Unknown"); got != "Unknown" {
		t.Errorf("got %q", got)
	}
	if got := StringOr(strPtr(""), "Unknown"); got != "Unknown" {
		t.Errorf("got %q", got)
	}
	if got := StringOr(strPtr("HORECA"), "Unknown"); got != "HORECA" {
		t.Errorf("got %q", got)
	}
}
