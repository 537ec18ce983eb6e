package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "coderelay/pkg/errors"
	"coderelay/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
)

func performRequest(router http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestTraceContextMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seenTrace, seenRequest string
	router := gin.New()
	router.Use(TraceContextMiddleware())
	router.GET("/resource", func(c *gin.Context) {
		seenTrace, _ = c.Request.Context().Value(contextkey.TraceID).(string)
		seenRequest, _ = c.Request.Context().Value(contextkey.RequestID).(string)
		c.Status(http.StatusOK)
	})

	rec := performRequest(router, http.MethodGet, "/resource", map[string]string{TraceIDHeader: "trace-abc"})
	if seenTrace != "trace-abc" || rec.Header().Get(TraceIDHeader) != "trace-abc" {
		t.Fatalf("trace id not propagated: ctx=%q header=%q", seenTrace, rec.Header().Get(TraceIDHeader))
	}
	if seenRequest == "" || rec.Header().Get(RequestIDHeader) != seenRequest {
		t.Fatalf("request id not generated: %q", seenRequest)
	}

	rec = performRequest(router, http.MethodGet, "/resource", map[string]string{TraceIDHeader: strings.Repeat("x", maxIDLength+1)})
	if got := rec.Header().Get(TraceIDHeader); len(got) > maxIDLength || got == "" {
		t.Fatalf("oversized trace id must be replaced, got %q", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		config     CORSConfig
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{
			name:       "disabled cors",
			config:     CORSConfig{Enabled: false},
			method:     http.MethodGet,
			origin:     "http://localhost:5173",
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed preflight",
			config:     DefaultCORSConfig(),
			method:     http.MethodOptions,
			origin:     "http://localhost:5173",
			wantStatus: http.StatusNoContent,
			wantOrigin: "http://localhost:5173",
		},
		{
			name:       "allowed simple request",
			config:     DefaultCORSConfig(),
			method:     http.MethodGet,
			origin:     "http://127.0.0.1:5173",
			wantStatus: http.StatusOK,
			wantOrigin: "http://127.0.0.1:5173",
		},
		{
			name:       "blocked preflight",
			config:     DefaultCORSConfig(),
			method:     http.MethodOptions,
			origin:     "https://evil.example",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "blocked simple request passes without headers",
			config:     DefaultCORSConfig(),
			method:     http.MethodGet,
			origin:     "https://evil.example",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard without credentials",
			config:     CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "https://any.example",
			wantStatus: http.StatusOK,
			wantOrigin: "*",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tc.config))
			router.GET("/resource", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			rec := performRequest(router, tc.method, "/resource", map[string]string{"Origin": tc.origin})
			if rec.Code != tc.wantStatus {
				t.Fatalf("unexpected status: %d", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("unexpected allow origin: %q", got)
			}
		})
	}
}

type fakeAuthenticator struct {
	userID int64
	err    error
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if token != "good-token" {
		return 0, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return f.userID, nil
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		auth       TokenAuthenticator
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "missing header", auth: &fakeAuthenticator{userID: 7}, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", auth: &fakeAuthenticator{userID: 7}, header: "Basic good-token", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", auth: &fakeAuthenticator{userID: 7}, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "expired token", auth: &fakeAuthenticator{err: pkgerrors.New(pkgerrors.TokenExpired)}, header: "Bearer good-token", wantStatus: http.StatusUnauthorized},
		{name: "valid token", auth: &fakeAuthenticator{userID: 7}, header: "bearer good-token", wantStatus: http.StatusOK, wantUser: "7"},
		{name: "no authenticator", auth: nil, header: "Bearer good-token", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var seenUser string
			router := gin.New()
			var authenticator TokenAuthenticator
			if tc.auth != nil {
				authenticator = tc.auth
			}
			router.Use(AuthMiddleware(authenticator))
			router.GET("/resource", func(c *gin.Context) {
				seenUser, _ = c.Request.Context().Value(contextkey.UserID).(string)
				c.Status(http.StatusOK)
			})

			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			rec := performRequest(router, http.MethodGet, "/resource", headers)
			if rec.Code != tc.wantStatus {
				t.Fatalf("unexpected status: %d", rec.Code)
			}
			if seenUser != tc.wantUser {
				t.Fatalf("unexpected user id: %q", seenUser)
			}
			if tc.wantStatus != http.StatusOK {
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["message"] == "" {
					t.Fatalf("expected message body, got %s", rec.Body.String())
				}
			}
		})
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/resource", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	rec := performRequest(router, http.MethodGet, "/resource", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
