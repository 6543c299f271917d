package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver map[string]*models.Identity

func (f fakeResolver) ResolveSession(_ context.Context, token string) (*models.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return nil, apperrors.Unauthenticated("Please authenticate")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(c), header)
	}
}

func TestAuthMiddleware(t *testing.T) {
	customer := &models.Identity{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}
	admin := &models.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	resolver := fakeResolver{"cust": customer, "admin": admin}

	r := gin.New()
	r.Use(ErrorHandler(logrus.New(), false))
	r.GET("/me", AuthMiddleware(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentIdentity(c).UserID.Hex()})
	})
	r.GET("/admin", AuthMiddleware(resolver), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		path, token string
		status      int
		errMsg      string
	}{
		{"/me", "", http.StatusUnauthorized, "Please authenticate"},
		{"/me", "expired", http.StatusUnauthorized, "Please authenticate"},
		{"/me", "cust", http.StatusOK, ""},
		{"/admin", "cust", http.StatusForbidden, "Admin access required"},
		{"/admin", "admin", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.token, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.errMsg != "" {
				body := decode(t, w)
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.errMsg, body["error"])
			}
		})
	}
}

func TestRespondError_HidesDetailsInProduction(t *testing.T) {
	for _, expose := range []bool{true, false} {
		r := gin.New()
		r.Use(ErrorHandler(logrus.New(), expose))
		r.GET("/boom", func(c *gin.Context) {
			RespondError(c, errors.New("connection refused"))
		})
		r.GET("/panic", func(c *gin.Context) {
			panic("nil map")
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Something went wrong!", body["error"])
		if expose {
			assert.Equal(t, "connection refused", body["message"])
		} else {
			assert.NotContains(t, body, "message")
		}

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, decode(t, w)["success"])
	}
}

func TestRespondError_Taxonomy(t *testing.T) {
	cases := map[error]int{
		apperrors.Validation("bad"):      http.StatusBadRequest,
		apperrors.Duplicate("dup"):       http.StatusBadRequest,
		apperrors.Unauthenticated("who"): http.StatusUnauthorized,
		apperrors.Forbidden("no"):        http.StatusForbidden,
		apperrors.NotFound("gone"):       http.StatusNotFound,
		apperrors.Internal("oops", nil):  http.StatusInternalServerError,
	}
	for err, status := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondError(c, err)
		assert.Equal(t, status, w.Code, err.Error())
	}
}

func TestNotFoundHandler(t *testing.T) {
	r := gin.New()
	r.NoRoute(NotFoundHandler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decode(t, w)["error"])
}

func TestRateLimiter(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := gin.New()
	r.POST("/login", NewRateLimiter(1, 2, log).Handler(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "buckets are per client")
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-42", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.Equal(t, "/ping", entry.Data["path"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
