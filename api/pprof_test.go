package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRegisterPprofRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterPprof(router, "pprof")

	cases := []struct {
		path string
		want int
	}{
		{"/pprof/", http.StatusOK},
		{"/pprof/goroutine", http.StatusOK},
		{"/pprof/heap", http.StatusOK},
		{"/pprof/cmdline", http.StatusNotFound},
		{"/pprof/symbol", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, resp.Code)
		}
	}
}

func TestRegisterPprofDefaultPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterPprof(router, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "goroutine") {
		t.Fatalf("expected profile index content")
	}
}
