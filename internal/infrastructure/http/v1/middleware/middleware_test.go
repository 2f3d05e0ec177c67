package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/infrastructure/storage/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withUser(user *appctx.UserContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		}
		c.Next()
	}
}

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name   string
		user   *appctx.UserContext
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"missing permission", &appctx.UserContext{UserID: "u1", Permissions: []string{"customers:read"}}, http.StatusForbidden},
		{"granted", &appctx.UserContext{UserID: "u1", Permissions: []string{"reports:read"}}, http.StatusOK},
		{"admin bypass", &appctx.UserContext{UserID: "a1", IsAdmin: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(), withUser(tt.user))
			r.GET("/reports", RequirePermission("reports:read"), ok)

			w := serve(r, http.MethodGet, "/reports", "")
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				body := decodeError(t, w)
				assert.Equal(t, apperror.CodeForbidden, body.Code)
				assert.Equal(t, "reports:read", body.Details["required_permission"])
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), withUser(&appctx.UserContext{UserID: "u1", Permissions: []string{"maintenance:read"}}))
	r.GET("/migration", RequireAdmin(), ok)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/migration", "").Code)
}

type validatorFake struct{}

func (validatorFake) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &appctx.UserContext{UserID: "u1"}, nil
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), Auth(validatorFake{}))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})

	for header, status := range map[string]int{
		"":            http.StatusUnauthorized,
		"Basic abc":   http.StatusUnauthorized,
		"Bearer bad":  http.StatusUnauthorized,
		"bearer good": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, header)
		if status == http.StatusOK {
			assert.Equal(t, "u1", w.Body.String())
		}
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	l, err := NewIPLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/auth/login", RateLimit(l), ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/login", "{}").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/login", "{}").Code)

	w := serve(r, http.MethodPost, "/auth/login", "{}")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, apperror.CodeRateLimited, decodeError(t, w).Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestNewIPLimiter_InvalidRate(t *testing.T) {
	_, err := NewIPLimiter("five per minute")
	assert.Error(t, err)
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pq: relation does not exist")) })
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(apperror.NewNotFound("customer", "CUS0001")) })

	w := serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotContains(t, w.Body.String(), "relation")
	assert.Equal(t, w.Header().Get(HeaderRequestID), body.Details["request_id"])

	w = serve(r, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decodeError(t, w).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "nil map")
}

type storeFake struct {
	replay    *postgres.IdempotencyReplay
	completed map[string][]byte
	failed    map[string]int
	released  []string
}

func newStoreFake() *storeFake {
	return &storeFake{completed: map[string][]byte{}, failed: map[string]int{}}
}

func (s *storeFake) AcquireKey(_ context.Context, key, _, _, _ string) (*postgres.IdempotencyReplay, error) {
	if body, ok := s.completed[key]; ok {
		return &postgres.IdempotencyReplay{StatusCode: http.StatusCreated, ContentType: "application/json", Body: body}, nil
	}
	return s.replay, nil
}

func (s *storeFake) CompleteKey(_ context.Context, key string, _ int, _ string, body []byte) error {
	s.completed[key] = append([]byte(nil), body...)
	return nil
}

func (s *storeFake) FailKey(_ context.Context, key string, status int, _ string, _ []byte) error {
	s.failed[key] = status
	return nil
}

func (s *storeFake) ReleaseKey(_ context.Context, key string) error {
	s.released = append(s.released, key)
	return nil
}

func TestIdempotency_ReplaysCompletedRequest(t *testing.T) {
	store := newStoreFake()
	calls := 0

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/customers", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"customerId": "CUS0001"})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"name":"Acme"}`))
		req.Header.Set(HeaderIdempotencyKey, "k1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_StoresClientErrorsAndReleasesServerErrors(t *testing.T) {
	store := newStoreFake()

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/bad", func(c *gin.Context) { _ = c.Error(apperror.NewValidation("name is required")) })
	r.POST("/down", func(c *gin.Context) { _ = c.Error(errors.New("connection reset")) })

	for _, path := range []string{"/bad", "/down"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		req.Header.Set(HeaderIdempotencyKey, path)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
	}

	assert.Equal(t, http.StatusBadRequest, store.failed["/bad"])
	assert.Equal(t, []string{"/down"}, store.released)
}

type moneyRequest struct {
	Amount decimal.Decimal  `validate:"money_positive"`
	Total  *decimal.Decimal `validate:"omitempty,money_nonneg"`
	Type   string           `validate:"payment_type"`
	Status string           `validate:"business_status=sales_order"`
}

func TestValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerOn(v))

	neg := decimal.NewFromInt(-1)
	zero := decimal.Zero

	tests := []struct {
		name  string
		req   moneyRequest
		field string
	}{
		{"valid", moneyRequest{Amount: decimal.NewFromInt(5), Total: &zero, Type: "Bank", Status: "Completed"}, ""},
		{"zero amount", moneyRequest{Amount: decimal.Zero}, "Amount"},
		{"negative total", moneyRequest{Amount: decimal.NewFromInt(1), Total: &neg}, "Total"},
		{"payment type", moneyRequest{Amount: decimal.NewFromInt(1), Type: "Crypto"}, "Type"},
		{"status", moneyRequest{Amount: decimal.NewFromInt(1), Status: "Received"}, "Status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}
