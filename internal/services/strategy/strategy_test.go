package strategy

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		label   string
		wantKey string
		wantBy  string
	}{
		{"", DefaultKey, "empty"},
		{"N/A", DefaultKey, "empty"},
		{"null", DefaultKey, "empty"},
		{"   ", DefaultKey, "empty"},
		{"CloudCastle_2", "CloudCastle_2", "exact"},
		{"LowTicket_Inefficient_B", "LowTicket_Inefficient_B", "exact"},
		{"HighTicket_Efficient_X", "HighTicket_Efficient", "high ticket efficient"},
		{"LowTicket_Efficient_2024", "LowTicket_Efficient", "low ticket efficient"},
		{"HighTicket_Inefficient_Z", "HighTicket_Inefficient", "high ticket inefficient"},
		{"LowTicket_Inefficient_Q", "LowTicket_Inefficient", "low ticket inefficient"},
		{"CloudCastle_9", "HighTicket_Inefficient", "cloud castle family"},
		{"CloudCastle High Visits", "HighTicket_Inefficient", "cloud castle family"},
		{"Segment: High Visits", "CloudCastle_3", "high visits"},
		{"Every Visit Converters", "CloudCastle_0", "every visit converters"},
		{"Moderate Visits group", "CloudCastle_1", "moderate visits"},
		{"VIP Client", "CloudCastle_2", "vip client"},
		{"Occasional buyers", "LowTicket_Inefficient_A", "occasional"},
		{"something else", DefaultKey, "default"},
		{"highticket_efficient", DefaultKey, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			key, by := Resolve(tt.label)
			if key != tt.wantKey || by != tt.wantBy {
				t.Errorf("Resolve(%q) = %s/%s, want %s/%s", tt.label, key, by, tt.wantKey, tt.wantBy)
			}
			if got := Classify(tt.label); got.Key != tt.wantKey {
				t.Errorf("Classify(%q).Key = %s, want %s", tt.label, got.Key, tt.wantKey)
			}
		})
	}
}

func TestClassify_DefaultStrategy(t *testing.T) {
	got := Classify("")
	if got.Label != "Standard Profile" {
		t.Errorf("label = %q, want Standard Profile", got.Label)
	}
	if got.TargetGap != "Current" {
		t.Errorf("target gap = %q", got.TargetGap)
	}
}

func TestClassify_HighTicketEfficientLabel(t *testing.T) {
	if got := Classify("HighTicket_Efficient_X"); got.Label != "High-Ticket Efficient" {
		t.Errorf("label = %q", got.Label)
	}
}

func TestAll(t *testing.T) {
	all := All()
	if len(all) != len(strategies) {
		t.Fatalf("len = %d, want %d", len(all), len(strategies))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Errorf("not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
	for _, s := range all {
		if s.Label == "" || s.Tactic == "" {
			t.Errorf("incomplete strategy %s", s.Key)
		}
	}
}

func TestGet_UnknownKey(t *testing.T) {
	if got := Get("missing"); got.Key != DefaultKey {
		t.Errorf("key = %s, want %s", got.Key, DefaultKey)
	}
}

func TestResolve_PaddedLabel(t *testing.T) {
	for _, label := range []string{"CloudCastle_3", "HighTicket_Efficient_X", "VIP Client"} {
		wantKey, wantBy := Resolve(label)
		for _, padded := range []string{" " + label, label + "\n", "\t" + label + "  "} {
			key, by := Resolve(padded)
			if key != wantKey || by != wantBy {
				t.Errorf("Resolve(%q) = %s/%s, want %s/%s", padded, key, by, wantKey, wantBy)
			}
		}
	}
	if key, by := Resolve(" CloudCastle_3 "); key != "CloudCastle_3" || by != "exact" {
		t.Errorf("padded exact label = %s/%s, want CloudCastle_3/exact", key, by)
	}
}
