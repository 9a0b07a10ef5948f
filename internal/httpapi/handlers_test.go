package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"identity-gateway/internal/account"
	"identity-gateway/internal/config"
	"identity-gateway/internal/identity"
	"identity-gateway/internal/rbac"
	"identity-gateway/internal/token"

	"github.com/gin-gonic/gin"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type gateway struct {
	router *gin.Engine
	store  *identity.MemoryStore
	tokens *token.Manager
}

func newGateway(t *testing.T, limiter Limiter) gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewManager(config.AuthConfig{
		SigningSecret: testSecret,
		Issuer:        "identity-gateway",
		Audience:      "identity-gateway-clients",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	store := identity.NewMemoryStore(rbac.RoleAdmin, rbac.RoleUser)
	h := Handlers{
		Accounts:     account.NewService(store),
		Tokens:       tokens,
		LoginLimiter: limiter,
	}

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	v1 := r.Group("/v1")
	v1.Use(token.RequireToken(tokens))
	{
		v1.GET("/me", h.Me)
		v1.GET("/random", h.RandomNumber)
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		admin.GET("/ping", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	}

	return gateway{router: r, store: store, tokens: tokens}
}

func (g gateway) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func (g gateway) register(t *testing.T, role, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	return g.do(t, http.MethodPost, "/register?role="+role, "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
}

func (g gateway) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	return g.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	})
}

func TestRegister_CreatesUser(t *testing.T) {
	g := newGateway(t, nil)

	w := g.register(t, "User", "alice", "correct-horse-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "Success" {
		t.Fatalf("unexpected status: %+v", resp)
	}

	// Same username again: creation failure surfaced with store details.
	w = g.register(t, "User", "alice", "correct-horse-2")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "Error" || resp.Message == "" {
		t.Fatalf("expected error details, got %+v", resp)
	}
}

func TestRegister_UnknownRole(t *testing.T) {
	g := newGateway(t, nil)

	w := g.register(t, "Wizard", "alice", "correct-horse-1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if g.store.Len() != 0 {
		t.Fatalf("failed registration must not create an identity")
	}
}

func TestLogin_BadCredentialsSameShape(t *testing.T) {
	g := newGateway(t, nil)
	g.register(t, "User", "alice", "correct-horse-1")

	wrongPw := g.login(t, "alice", "wrong-password-1")
	noUser := g.login(t, "nobody", "anything-at-all-1")

	for name, w := range map[string]*httptest.ResponseRecorder{"wrong password": wrongPw, "unknown user": noUser} {
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Fatalf("%s: expected empty body, got %q", name, w.Body.String())
		}
	}
}

func TestEndToEnd_RegisterLoginProtected(t *testing.T) {
	g := newGateway(t, nil)

	if w := g.register(t, "User", "alice", "correct-horse-1"); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w := g.login(t, "alice", "correct-horse-1")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" || resp.Expiration.IsZero() {
		t.Fatalf("expected token and expiration, got %+v", resp)
	}

	// Token grants access to protected endpoints.
	w = g.do(t, http.MethodGet, "/v1/me", resp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "alice" || len(me.Roles) != 1 || me.Roles[0] != "User" {
		t.Fatalf("unexpected claims echo: %+v", me)
	}

	// No token: rejected before any business logic runs.
	if w := g.do(t, http.MethodGet, "/v1/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}

	// Token issued before the validity window opened on the wall clock.
	expired, _, err := g.tokens.Issue(time.Now().UTC().Add(-2*time.Hour), "alice", []string{"User"})
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if w := g.do(t, http.MethodGet, "/v1/me", expired, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", w.Code)
	}
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	g := newGateway(t, nil)

	g.register(t, "User", "alice", "correct-horse-1")
	g.register(t, "Admin", "root", "correct-horse-2")

	userToken, _, err := g.tokens.Issue(time.Now().UTC(), "alice", []string{"User"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	adminToken, _, err := g.tokens.Issue(time.Now().UTC(), "root", []string{"Admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if w := g.do(t, http.MethodGet, "/v1/admin/ping", userToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("user: expected 403, got %d", w.Code)
	}
	if w := g.do(t, http.MethodGet, "/v1/admin/ping", adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}
}

type stubLimiter struct {
	allowed bool
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, nil
}

func TestLogin_Throttled(t *testing.T) {
	lim := &stubLimiter{allowed: false}
	g := newGateway(t, lim)
	g.register(t, "User", "alice", "correct-horse-1")

	w := g.login(t, "alice", "correct-horse-1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if len(lim.keys) != 1 || lim.keys[0] != "login:alice" {
		t.Fatalf("unexpected limiter keys: %v", lim.keys)
	}
}

func TestRandomNumber_SevenDigits(t *testing.T) {
	g := newGateway(t, nil)
	g.register(t, "User", "alice", "correct-horse-1")

	tok, _, err := g.tokens.Issue(time.Now().UTC(), "alice", []string{"User"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := g.do(t, http.MethodGet, "/v1/random", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Number string `json:"number"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Number) != 7 {
		t.Fatalf("expected 7-digit number, got %q", resp.Number)
	}
}
