package contahub

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zykor/platform/pkg/common/config"
)

func testConfig(baseURL string) *config.ContaHubConfig {
	return &config.ContaHubConfig{
		BaseURL:   baseURL,
		Email:     "ops@example.com",
		Password:  "secret",
		EmpID:     "3768",
		Timeout:   5 * time.Second,
		Retries:   3,
		RetryWait: 0,
	}
}

func TestLogin(t *testing.T) {
	var gotEmail, gotSHA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/contahub.cmds.UsuarioCmd/login/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("emp") != "0" {
			t.Errorf("login emp = %s, want 0", r.URL.Query().Get("emp"))
		}
		r.ParseForm()
		gotEmail = r.PostFormValue("usr_email")
		gotSHA = r.PostFormValue("usr_password_sha1")

		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "uid", Value: "42", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if gotEmail != "ops@example.com" {
		t.Errorf("email = %s", gotEmail)
	}
	digest := sha1.Sum([]byte("secret"))
	if gotSHA != hex.EncodeToString(digest[:]) {
		t.Errorf("password digest = %s", gotSHA)
	}
	if client.session != "JSESSIONID=abc123; uid=42" {
		t.Errorf("session = %q", client.session)
	}
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	err := client.Login(context.Background())
	if err == nil {
		t.Fatal("expected login error")
	}
	if !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("error = %v", err)
	}
}

func TestLoginWithoutCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.Login(context.Background()); err == nil {
		t.Fatal("expected error when no session cookie comes back")
	}
}

func TestFetchReportRequiresLogin(t *testing.T) {
	client := NewClient(testConfig("http://localhost:1"))
	spec := DefaultCatalog()[ReportPeriodo]
	if _, err := client.FetchReport(context.Background(), spec, ReportPeriodo, "2025-01-01"); err == nil {
		t.Fatal("expected error before login")
	}
}

func TestFetchReport(t *testing.T) {
	var gotQuery string
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "login") {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "xyz", Path: "/"})
			return
		}
		gotQuery = r.URL.RawQuery
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte(`{"list":[{"qtd":"1"}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.Login(context.Background()); err != nil {
		t.Fatal(err)
	}

	spec := DefaultCatalog()[ReportAnalitico]
	body, err := client.FetchReport(context.Background(), spec, ReportAnalitico, "2025-01-15")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	list, err := DecodeList(body)
	if err != nil || len(list) != 1 {
		t.Fatalf("decode = %v rows, err %v", len(list), err)
	}

	for _, fragment := range []string{"qry=77", "d0=2025-01-15", "d1=2025-01-15", "produto=", "turno=", "emp=3768", "nfe=1"} {
		if !strings.Contains(gotQuery, fragment) {
			t.Errorf("query %q missing %q", gotQuery, fragment)
		}
	}
	if gotCookie != "JSESSIONID=xyz" {
		t.Errorf("cookie = %q", gotCookie)
	}
}

func TestFetchReportRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "login") {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "xyz", Path: "/"})
			return
		}
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"list":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.Login(context.Background()); err != nil {
		t.Fatal(err)
	}

	spec := DefaultCatalog()[ReportPeriodo]
	if _, err := client.FetchReport(context.Background(), spec, ReportPeriodo, "2025-01-01"); err != nil {
		t.Fatalf("fetch should succeed on third attempt: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestFetchReportExhaustsRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "login") {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "xyz", Path: "/"})
			return
		}
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.Login(context.Background()); err != nil {
		t.Fatal(err)
	}

	spec := DefaultCatalog()[ReportPeriodo]
	_, err := client.FetchReport(context.Background(), spec, ReportPeriodo, "2025-01-01")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestNonceFormat(t *testing.T) {
	n := nonce()
	if len(n) != 17 {
		t.Fatalf("nonce %q has length %d, want 17", n, len(n))
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			t.Fatalf("nonce %q contains non-digit %q", n, r)
		}
	}
}
