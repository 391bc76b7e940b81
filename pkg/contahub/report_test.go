package contahub

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		rt      ReportType
		queryID int
		table   string
	}{
		{ReportAnalitico, 77, "contahub_analitico"},
		{ReportFatPorHora, 101, "contahub_fatporhora"},
		{ReportPagamentos, 7, "contahub_pagamentos"},
		{ReportPeriodo, 5, "contahub_periodo"},
		{ReportTempo, 81, "contahub_tempo"},
	}

	for _, tt := range tests {
		spec, err := catalog.Spec(tt.rt)
		if err != nil {
			t.Fatalf("missing spec for %s: %v", tt.rt, err)
		}
		if spec.QueryID != tt.queryID {
			t.Errorf("%s query id = %d, want %d", tt.rt, spec.QueryID, tt.queryID)
		}
		if spec.Table != tt.table {
			t.Errorf("%s table = %s, want %s", tt.rt, spec.Table, tt.table)
		}
		if spec.BatchSize != 100 {
			t.Errorf("%s batch size = %d, want 100", tt.rt, spec.BatchSize)
		}
	}
}

func TestParseReportType(t *testing.T) {
	for _, rt := range ProcessingOrder {
		parsed, err := ParseReportType(string(rt))
		if err != nil {
			t.Errorf("ParseReportType(%s) failed: %v", rt, err)
		}
		if parsed != rt {
			t.Errorf("ParseReportType(%s) = %s", rt, parsed)
		}
	}

	if _, err := ParseReportType("nfe"); err == nil {
		t.Error("expected error for unknown report type")
	}
}

func TestProcessingOrder(t *testing.T) {
	want := []ReportType{ReportPeriodo, ReportAnalitico, ReportPagamentos, ReportTempo, ReportFatPorHora}
	if len(ProcessingOrder) != len(want) {
		t.Fatalf("processing order has %d entries, want %d", len(ProcessingOrder), len(want))
	}
	for i, rt := range want {
		if ProcessingOrder[i] != rt {
			t.Errorf("processing order[%d] = %s, want %s", i, ProcessingOrder[i], rt)
		}
	}
}

func TestLoadCatalogOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.yaml")
	content := []byte(`
reports:
  analitico:
    batch_size: 250
  periodo:
    table: contahub_periodo_v2
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	analitico, _ := catalog.Spec(ReportAnalitico)
	if analitico.BatchSize != 250 {
		t.Errorf("overridden batch size = %d, want 250", analitico.BatchSize)
	}
	if analitico.QueryID != 77 {
		t.Errorf("query id should keep default, got %d", analitico.QueryID)
	}

	periodo, _ := catalog.Spec(ReportPeriodo)
	if periodo.Table != "contahub_periodo_v2" {
		t.Errorf("overridden table = %s", periodo.Table)
	}
	if periodo.QueryID != 5 {
		t.Errorf("query id should keep default, got %d", periodo.QueryID)
	}
}

func TestLoadCatalogRejectsUnknownReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.yaml")
	if err := os.WriteFile(path, []byte("reports:\n  nfe:\n    query_id: 9\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for unknown report name")
	}
}

func TestLoadCatalogEmptyPath(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("empty path should use defaults: %v", err)
	}
	if len(catalog) != 5 {
		t.Errorf("catalog has %d entries, want 5", len(catalog))
	}
}
