package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/throughput-autoscaler/internal/auth"
	"github.com/OldStager01/throughput-autoscaler/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("a"))
	}
}

func TestJWTAuth(t *testing.T) {
	svc := auth.NewService("secret", time.Hour, "test")
	token, err := svc.GenerateToken("operator")
	require.NoError(t, err)

	expired, err := auth.NewService("secret", -time.Hour, "test").GenerateToken("operator")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/private", JWTAuth(svc), func(c *gin.Context) {
		c.String(http.StatusOK, GetUsername(c))
	})

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing header",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "missing authorization header",
		},
		{
			name:       "wrong scheme",
			setup:      func(r *http.Request) { r.Header.Set(AuthorizationHeader, "Basic abc") },
			wantStatus: http.StatusUnauthorized,
			wantBody:   "invalid authorization header format",
		},
		{
			name:       "expired",
			setup:      func(r *http.Request) { r.Header.Set(AuthorizationHeader, BearerPrefix+expired) },
			wantStatus: http.StatusUnauthorized,
			wantBody:   "token expired",
		},
		{
			name:       "bearer",
			setup:      func(r *http.Request) { r.Header.Set(AuthorizationHeader, BearerPrefix+token) },
			wantStatus: http.StatusOK,
			wantBody:   "operator",
		},
		{
			name:       "cookie",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AuthCookie, Value: token}) },
			wantStatus: http.StatusOK,
			wantBody:   "operator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestTraceID(t *testing.T) {
	router := gin.New()
	router.Use(TraceID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.TraceIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "trace-123", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
}

func TestRequestSizeLimit(t *testing.T) {
	router := gin.New()
	router.POST("/", RequestSizeLimit(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
