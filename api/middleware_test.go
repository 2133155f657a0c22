package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dutlink/internal/config"
	"dutlink/internal/observability"

	"github.com/gin-gonic/gin"
)

func TestAuthMiddlewareDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(config.SecurityConfig{}, nil))
	router.GET("/x", func(c *gin.Context) {
		role, _ := c.Get("role")
		c.JSON(http.StatusOK, gin.H{"role": role})
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.SecurityConfig{
		Enabled:     true,
		RequireAuth: true,
		Tokens:      []config.TokenConfig{{Value: "tok-1", Role: "ops"}},
	}
	router := gin.New()
	router.Use(AuthMiddleware(cfg, nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddlewareAcceptsAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.SecurityConfig{
		Enabled:     true,
		RequireAuth: true,
		Tokens:      []config.TokenConfig{{Value: "tok-1", Role: "ops"}},
	}
	router := gin.New()
	router.Use(AuthMiddleware(cfg, nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-API-Key", "tok-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddlewareAcceptsBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.SecurityConfig{
		Enabled:     true,
		RequireAuth: true,
		Tokens:      []config.TokenConfig{{Value: "tok-1", Role: "admin"}},
	}
	router := gin.New()
	router.Use(AuthMiddleware(cfg, nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddlewareResolvesEnvToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("DUTLINK_API_TOKEN", "env-tok")
	cfg := config.SecurityConfig{
		Enabled:     true,
		RequireAuth: true,
		Tokens:      []config.TokenConfig{{Value: "env:DUTLINK_API_TOKEN", Role: "read"}},
	}
	router := gin.New()
	router.Use(AuthMiddleware(cfg, nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-API-Key", "env-tok")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRequireRoleForbidsLowerRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("role", "read") })
	router.POST("/x", RequireRole(roleOps), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestRequireRoleAllowsHigherRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("role", "admin") })
	router.POST("/x", RequireRole(roleOps), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestTraceMiddlewareRecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := observability.NewStore(10)
	router := gin.New()
	router.Use(TraceMiddleware(store))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Header().Get("X-Trace-Id") == "" {
		t.Fatalf("expected trace id header")
	}
	traces := store.List()
	if len(traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(traces))
	}
	if traces[0].Path != "/x" || traces[0].Status != http.StatusOK {
		t.Fatalf("unexpected trace: %+v", traces[0])
	}
}

func TestTraceMiddlewarePropagatesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := observability.NewStore(10)
	router := gin.New()
	router.Use(TraceMiddleware(store))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Trace-Id", "abc-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Header().Get("X-Trace-Id") != "abc-123" {
		t.Fatalf("expected trace id to be preserved")
	}
}
