package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/infrastructure/barcode"
	"bizbook/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBindError_ListsFields(t *testing.T) {
	type request struct {
		Name     string `validate:"required"`
		Quantity int64  `validate:"min=1"`
	}
	err := validator.New().Struct(request{})
	require.Error(t, err)

	appErr := bindError("invalid request body", err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, map[string]string{
		"name":     "required",
		"quantity": "min=1",
	}, appErr.Details["fields"])
}

func TestBindError_Syntax(t *testing.T) {
	appErr := bindError("invalid request body", errors.New("unexpected EOF"))
	assert.Equal(t, "unexpected EOF", appErr.Details["error"])
}

type fakeProducts map[id.ID]*product.Product

func (f fakeProducts) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	if p, ok := f[productID]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product", productID)
}

type fakeOrders map[id.ID]*sales_order.SalesOrder

func (f fakeOrders) GetByID(_ context.Context, orderID id.ID) (*sales_order.SalesOrder, error) {
	if o, ok := f[orderID]; ok {
		return o, nil
	}
	return nil, apperror.NewNotFound("sales order", orderID)
}

func barcodeRouter(products fakeProducts, orders fakeOrders) *gin.Engine {
	h := NewBarcodeHandler(NewBaseHandler(), products, orders)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/barcode/products/:id", h.Product)
	r.GET("/barcode/sales-orders/:id", h.SalesOrder)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestBarcodeHandler_Product(t *testing.T) {
	withBarcode := product.NewProduct("PAP-A4", "Office paper A4")
	withBarcode.Barcode = "4600000000001"
	withoutBarcode := product.NewProduct("PEN-BLU", "Ballpoint pen")

	r := barcodeRouter(fakeProducts{
		withBarcode.ID:    withBarcode,
		withoutBarcode.ID: withoutBarcode,
	}, fakeOrders{})

	for _, p := range []*product.Product{withBarcode, withoutBarcode} {
		w := get(r, "/barcode/products/"+p.ID.String())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, barcode.ContentType, w.Header().Get("Content-Type"))

		img, err := png.Decode(w.Body)
		require.NoError(t, err)
		assert.Equal(t, barcode.DefaultWidth, img.Bounds().Dx())
	}
}

func TestBarcodeHandler_SalesOrder(t *testing.T) {
	order := sales_order.NewSalesOrder()
	order.Number = "SO-240101-001"
	r := barcodeRouter(fakeProducts{}, fakeOrders{order.ID: order})

	w := get(r, "/barcode/sales-orders/"+order.ID.String()+"?width=400&height=120")
	require.Equal(t, http.StatusOK, w.Code)

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestBarcodeHandler_Errors(t *testing.T) {
	r := barcodeRouter(fakeProducts{}, fakeOrders{})

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"malformed id", "/barcode/products/not-a-uuid", http.StatusBadRequest, apperror.CodeValidation},
		{"unknown product", "/barcode/products/" + id.New().String(), http.StatusNotFound, apperror.CodeNotFound},
		{"unknown order", "/barcode/sales-orders/" + id.New().String(), http.StatusNotFound, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.path)
			assert.Equal(t, tt.status, w.Code)

			var body middleware.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all healthy", func(t *testing.T) {
		h := NewHealthHandler("test", map[string]Pinger{"postgres": healthy})
		r := gin.New()
		r.GET("/ready", h.Ready)

		w := get(r, "/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"postgres":"healthy"`)
	})

	t.Run("dependency down", func(t *testing.T) {
		h := NewHealthHandler("test", map[string]Pinger{"postgres": healthy, "redis": down})
		r := gin.New()
		r.GET("/ready", h.Ready)

		w := get(r, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unhealthy: connection refused")
	})
}
