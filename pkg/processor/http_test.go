package processor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/zykor/platform/pkg/contahub"
)

func newTestServer(store *fakeStore) *httptest.Server {
	svc := newTestService(store, &fakeInserter{})
	handler := NewHandler(svc)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return httptest.NewServer(router)
}

func TestHandleProcessMissingID(t *testing.T) {
	server := newTestServer(&fakeStore{payloads: map[uint]*contahub.RawPayload{}})
	defer server.Close()

	resp, err := http.Post(server.URL+"/process", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleProcessBadBody(t *testing.T) {
	server := newTestServer(&fakeStore{payloads: map[uint]*contahub.RawPayload{}})
	defer server.Close()

	resp, err := http.Post(server.URL+"/process", "application/json", strings.NewReader(`not json`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleProcessSuccess(t *testing.T) {
	store := &fakeStore{payloads: map[uint]*contahub.RawPayload{
		7: payload(7, "fatporhora", `{"list":[{"hora":"18:00","$valor":"10"}]}`, false),
	}}
	server := newTestServer(store)
	defer server.Close()

	resp, err := http.Post(server.URL+"/process", "application/json", strings.NewReader(`{"raw_data_id":7}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.InsertedRecords != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.ProcessingTimeSeconds < 0 {
		t.Errorf("processing time = %v", result.ProcessingTimeSeconds)
	}
}

func TestHandleProcessFailure(t *testing.T) {
	server := newTestServer(&fakeStore{payloads: map[uint]*contahub.RawPayload{}})
	defer server.Close()

	resp, err := http.Post(server.URL+"/process", "application/json", strings.NewReader(`{"raw_data_id":404}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHandleProcessPreflight(t *testing.T) {
	server := newTestServer(&fakeStore{payloads: map[uint]*contahub.RawPayload{}})
	defer server.Close()

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/process", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestHandleResultInvalidID(t *testing.T) {
	server := newTestServer(&fakeStore{payloads: map[uint]*contahub.RawPayload{}})
	defer server.Close()

	resp, err := http.Get(server.URL + "/results/abc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
