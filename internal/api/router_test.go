package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaultkeeper/credvault/internal/core/service"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/memory"
	"github.com/vaultkeeper/credvault/internal/infrastructure/security"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	key, err := security.ParseKey(testKeyHex)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	cipher, err := security.NewCipher(key, security.CipherOptions{Mode: security.ModeCBC, LegacyPlaintext: true})
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	log := zerolog.Nop()
	authSvc := service.NewAuthService(
		memory.NewAccountRepository(),
		security.NewPasswordHasher(bcrypt.MinCost, true),
		security.NewTokenService("e2e-secret", time.Hour),
		log,
	)
	vaultSvc := service.NewVaultService(memory.NewCredentialRepository(), cipher, memory.NewIdempotencyStore(), time.Hour, log)

	e := NewRouter(Deps{Auth: authSvc, Vault: vaultSvc, Log: log, Registerer: prometheus.NewRegistry()})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

type call struct {
	method, path, token, body string
	headers                   map[string]string
}

func do(t *testing.T, srv *httptest.Server, c call) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(c.method, srv.URL+c.path, strings.NewReader(c.body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, buf.Bytes()
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("invalid json %q: %v", body, err)
	}
	return v
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	if code, raw := do(t, srv, call{method: http.MethodPost, path: "/api/register", body: body}); code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", code, raw)
	}

	code, raw := do(t, srv, call{method: http.MethodPost, path: "/api/login", body: body})
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", code, raw)
	}
	resp := decode[map[string]any](t, raw)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("login: no token in %s", raw)
	}
	return token
}

func TestEndToEnd_StoreListReveal(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "u@test.com", "pw123")

	code, raw := do(t, srv, call{
		method: http.MethodPost, path: "/api/credentials", token: token,
		body: `{"platform":"Amazon","usernameOrEmail":"u@test.com","password":"secret1","websiteUrl":"https://amazon.com"}`,
	})
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", code, raw)
	}
	created := decode[map[string]any](t, raw)
	id, _ := created["id"].(string)

	code, raw = do(t, srv, call{method: http.MethodGet, path: "/api/credentials", token: token})
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", code, raw)
	}
	list := decode[[]map[string]any](t, raw)
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
	if list[0]["password"] == "secret1" {
		t.Fatal("stored password must not be the plaintext")
	}

	code, raw = do(t, srv, call{method: http.MethodGet, path: "/api/credentials/" + id + "/secret", token: token})
	if code != http.StatusOK {
		t.Fatalf("reveal: expected 200, got %d: %s", code, raw)
	}
	if got := decode[map[string]any](t, raw)["password"]; got != "secret1" {
		t.Fatalf("expected secret1, got %v", got)
	}

	code, raw = do(t, srv, call{method: http.MethodGet, path: "/api/credentials?reveal=true", token: token})
	if code != http.StatusOK {
		t.Fatalf("list reveal: expected 200, got %d", code)
	}
	if got := decode[[]map[string]any](t, raw)[0]["password"]; got != "secret1" {
		t.Fatalf("expected revealed list password, got %v", got)
	}
}

func TestEndToEnd_TenantIsolation(t *testing.T) {
	srv := newTestServer(t)
	alice := registerAndLogin(t, srv, "alice@test.com", "pw")
	bob := registerAndLogin(t, srv, "bob@test.com", "pw")

	_, raw := do(t, srv, call{
		method: http.MethodPost, path: "/api/credentials", token: alice,
		body: `{"platform":"GitHub","usernameOrEmail":"alice","password":"gh","websiteUrl":"https://github.com"}`,
	})
	id, _ := decode[map[string]any](t, raw)["id"].(string)

	_, raw = do(t, srv, call{method: http.MethodGet, path: "/api/credentials", token: bob})
	if got := decode[[]map[string]any](t, raw); len(got) != 0 {
		t.Fatalf("bob sees alice's records: %v", got)
	}

	for _, c := range []call{
		{method: http.MethodPut, path: "/api/credentials/" + id, token: bob, body: `{"platform":"x"}`},
		{method: http.MethodDelete, path: "/api/credentials/" + id, token: bob},
		{method: http.MethodGet, path: "/api/credentials/" + id + "/secret", token: bob},
	} {
		code, raw := do(t, srv, c)
		if code != http.StatusNotFound {
			t.Fatalf("%s %s as bob: expected 404, got %d", c.method, c.path, code)
		}
		if msg := decode[map[string]string](t, raw)["message"]; msg != "credential not found" {
			t.Fatalf("unexpected message %q", msg)
		}
	}

	code, _ := do(t, srv, call{method: http.MethodDelete, path: "/api/credentials/" + id, token: alice})
	if code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d", code)
	}
}

func TestEndToEnd_AuthFailures(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "u@test.com", "pw")

	code, raw := do(t, srv, call{method: http.MethodPost, path: "/api/register", body: `{"email":"U@TEST.com","password":"x"}`})
	if code != http.StatusBadRequest || decode[map[string]string](t, raw)["message"] != "user already exists" {
		t.Fatalf("duplicate register: got %d %s", code, raw)
	}

	_, unknown := do(t, srv, call{method: http.MethodPost, path: "/api/login", body: `{"email":"nobody@test.com","password":"pw"}`})
	code, wrong := do(t, srv, call{method: http.MethodPost, path: "/api/login", body: `{"email":"u@test.com","password":"nope"}`})
	if code != http.StatusBadRequest {
		t.Fatalf("wrong password: expected 400, got %d", code)
	}
	if !bytes.Equal(unknown, wrong) {
		t.Fatalf("login failures differ: %s vs %s", unknown, wrong)
	}

	if code, _ := do(t, srv, call{method: http.MethodGet, path: "/api/credentials"}); code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", code)
	}
	if code, _ := do(t, srv, call{method: http.MethodGet, path: "/api/credentials", token: "garbage"}); code != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d", code)
	}
}

func TestEndToEnd_IdempotentCreate(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "u@test.com", "pw")

	c := call{
		method: http.MethodPost, path: "/api/credentials", token: token,
		body:    `{"platform":"Amazon","usernameOrEmail":"u","password":"s","websiteUrl":"https://amazon.com"}`,
		headers: map[string]string{"Idempotency-Key": "retry-1"},
	}
	_, first := do(t, srv, c)
	_, second := do(t, srv, c)
	if decode[map[string]any](t, first)["id"] != decode[map[string]any](t, second)["id"] {
		t.Fatalf("expected replay to return the same record")
	}

	_, raw := do(t, srv, call{method: http.MethodGet, path: "/api/credentials", token: token})
	if got := decode[[]map[string]any](t, raw); len(got) != 1 {
		t.Fatalf("expected 1 record after retry, got %d", len(got))
	}
}

func TestEndToEnd_OpsRoutes(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if code, _ := do(t, srv, call{method: http.MethodGet, path: path}); code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, code)
		}
	}
}
