package processor

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/zykor/platform/pkg/contahub"
	"github.com/zykor/platform/pkg/loader"
)

type fakeStore struct {
	payloads  map[uint]*contahub.RawPayload
	processed []uint
}

func (f *fakeStore) Get(ctx context.Context, id uint) (*contahub.RawPayload, error) {
	payload, ok := f.payloads[id]
	if !ok {
		return nil, contahub.ErrRawNotFound
	}
	copied := *payload
	return &copied, nil
}

func (f *fakeStore) MarkProcessed(ctx context.Context, id uint) error {
	f.processed = append(f.processed, id)
	if payload, ok := f.payloads[id]; ok {
		payload.Processed = true
	}
	return nil
}

type fakeInserter struct {
	inserted map[string][]contahub.Record
	err      error
}

func (f *fakeInserter) InsertBatch(ctx context.Context, table string, records []contahub.Record) error {
	if f.err != nil {
		return f.err
	}
	if f.inserted == nil {
		f.inserted = map[string][]contahub.Record{}
	}
	f.inserted[table] = append(f.inserted[table], records...)
	return nil
}

func newTestService(store *fakeStore, inserter *fakeInserter) *Service {
	ld := loader.New(inserter, 0)
	return NewService(store, ld, contahub.DefaultCatalog(), nil)
}

func payload(id uint, dataType string, body string, processed bool) *contahub.RawPayload {
	return &contahub.RawPayload{
		ID:        id,
		BarID:     3,
		DataType:  dataType,
		DataDate:  "2025-01-15",
		RawJSON:   datatypes.JSON([]byte(body)),
		Processed: processed,
	}
}

func TestProcess(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "fatporhora", `{"list":[{"hora":"18:00","$valor":"100.50"},{"hora":"19:00","$valor":"80.00"}]}`, false),
	}}
	inserter := &fakeInserter{}
	svc := newTestService(store, inserter)

	result := svc.Process(context.Background(), 7, "")

	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.DataType != "fatporhora" || result.RawDataID != 7 {
		t.Errorf("result identity = %s/%d", result.DataType, result.RawDataID)
	}
	if result.TotalRecords != 2 || result.InsertedRecords != 2 {
		t.Errorf("counts = %d/%d, want 2/2", result.TotalRecords, result.InsertedRecords)
	}

	rows := inserter.inserted["contahub_fatporhora"]
	if len(rows) != 2 {
		t.Fatalf("inserted rows = %d, want 2", len(rows))
	}
	if rows[0]["hora"] != 18 {
		t.Errorf("hora = %v, want 18", rows[0]["hora"])
	}
	if rows[0]["bar_id"] != 3 {
		t.Errorf("bar_id = %v, want 3", rows[0]["bar_id"])
	}
	if key, ok := rows[0]["idempotency_key"].(string); !ok || len(key) != 32 {
		t.Errorf("idempotency key = %v", rows[0]["idempotency_key"])
	}

	if len(store.processed) != 1 || store.processed[0] != 7 {
		t.Errorf("processed marks = %v, want [7]", store.processed)
	}

	// A second run over the now-processed payload is a no-op success.
	again := svc.Process(context.Background(), 7, "")
	if !again.Success || again.InsertedRecords != 0 {
		t.Errorf("second run = %+v, want no-op success", again)
	}
	if len(inserter.inserted["contahub_fatporhora"]) != 2 {
		t.Errorf("second run must insert nothing, rows = %d", len(inserter.inserted["contahub_fatporhora"]))
	}
	if len(store.processed) != 1 {
		t.Errorf("second run must not mark again, got %v", store.processed)
	}
}

func TestProcessAlreadyProcessed(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "periodo", `{"list":[{"dt_gerencial":"2025-01-15"}]}`, true),
	}}
	inserter := &fakeInserter{}
	svc := newTestService(store, inserter)

	result := svc.Process(context.Background(), 7, "")

	if !result.Success {
		t.Fatalf("reprocessing a processed payload must be a no-op success, got %+v", result)
	}
	if len(inserter.inserted) != 0 {
		t.Errorf("no rows should be written, got %v", inserter.inserted)
	}
	if len(store.processed) != 0 {
		t.Errorf("processed flag should not be touched again, got %v", store.processed)
	}
}

func TestProcessUnsupportedType(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "nfe", `{"list":[]}`, false),
	}}
	svc := newTestService(store, &fakeInserter{})

	result := svc.Process(context.Background(), 7, "")

	if result.Success {
		t.Fatal("unsupported type must fail")
	}
	if len(store.processed) != 0 {
		t.Errorf("payload must stay untouched, got marks %v", store.processed)
	}
}

func TestProcessTypeOverride(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "nfe", `{"list":[{"hora":"20:00","$valor":"10"}]}`, false),
	}}
	inserter := &fakeInserter{}
	svc := newTestService(store, inserter)

	result := svc.Process(context.Background(), 7, "fatporhora")

	if !result.Success {
		t.Fatalf("override should rescue a bad stored type, got %+v", result)
	}
	if len(inserter.inserted["contahub_fatporhora"]) != 1 {
		t.Errorf("inserted = %v", inserter.inserted)
	}
}

func TestProcessEmptyListStillMarked(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "tempo", `{"list":[]}`, false),
	}}
	inserter := &fakeInserter{}
	svc := newTestService(store, inserter)

	result := svc.Process(context.Background(), 7, "")

	if !result.Success || result.TotalRecords != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(store.processed) != 1 {
		t.Errorf("empty payloads still get marked processed, got %v", store.processed)
	}
}

func TestProcessAbsentListStillMarked(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "periodo", `{}`, false),
	}}
	inserter := &fakeInserter{}
	svc := newTestService(store, inserter)

	result := svc.Process(context.Background(), 7, "")

	if !result.Success || result.TotalRecords != 0 {
		t.Fatalf("a body with no list is a no-data success, got %+v", result)
	}
	if len(store.processed) != 1 {
		t.Errorf("no-data payloads still get marked processed, got %v", store.processed)
	}
	if len(inserter.inserted) != 0 {
		t.Errorf("nothing should be written, got %v", inserter.inserted)
	}
}

func TestProcessMissingPayload(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{}}
	svc := newTestService(store, &fakeInserter{})

	result := svc.Process(context.Background(), 99, "")

	if result.Success {
		t.Fatal("missing payload must fail")
	}
	if result.Error == "" {
		t.Error("error message expected")
	}
}

func TestProcessPartialFailureStillMarked(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "fatporhora", `{"list":[{"hora":"18:00","$valor":"1"}]}`, false),
	}}
	inserter := &fakeInserter{err: errors.New("connection reset")}
	svc := newTestService(store, inserter)

	result := svc.Process(context.Background(), 7, "")

	if !result.Success {
		t.Fatalf("partial insert failure should not fail the run, got %+v", result)
	}
	if result.InsertedRecords != 0 {
		t.Errorf("inserted = %d, want 0", result.InsertedRecords)
	}
	if result.Error == "" {
		t.Error("result should carry the insert failure note")
	}
	if len(store.processed) != 1 {
		t.Errorf("payload is marked processed regardless, got %v", store.processed)
	}
}

func TestProcessMalformedJSON(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "periodo", `{{{`, false),
	}}
	svc := newTestService(store, &fakeInserter{})

	result := svc.Process(context.Background(), 7, "")

	if result.Success {
		t.Fatal("malformed payload must fail")
	}
	if len(store.processed) != 0 {
		t.Errorf("payload must stay unprocessed, got %v", store.processed)
	}
}
