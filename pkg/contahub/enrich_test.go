package contahub

import "testing"

func TestEnrich(t *testing.T) {
	records := []Record{
		{"qtd": 1.0, "prd_desc": "Chopp"},
		{"qtd": 1.0, "prd_desc": "Chopp"},
	}

	Enrich(records, ReportAnalitico, 3)

	seen := map[string]bool{}
	for i, record := range records {
		if record["bar_id"] != 3 {
			t.Errorf("record %d bar_id = %v, want 3", i, record["bar_id"])
		}

		key, ok := record["idempotency_key"].(string)
		if !ok || len(key) != 32 {
			t.Fatalf("record %d idempotency key = %v, want 32 hex chars", i, record["idempotency_key"])
		}
		if seen[key] {
			t.Errorf("duplicate idempotency key %s for identical records", key)
		}
		seen[key] = true
	}
}

func TestEnrichEmpty(t *testing.T) {
	if got := Enrich(nil, ReportPeriodo, 3); len(got) != 0 {
		t.Errorf("enriching nothing should return nothing, got %d", len(got))
	}
}
