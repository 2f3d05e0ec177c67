package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/infrastructure/barcode"
)

// ProductGetter reads products.
type ProductGetter interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// SalesOrderGetter reads sales orders.
type SalesOrderGetter interface {
	GetByID(ctx context.Context, orderID id.ID) (*sales_order.SalesOrder, error)
}

// BarcodeHandler renders Code128 PNGs of products and sales orders.
type BarcodeHandler struct {
	*BaseHandler
	products ProductGetter
	orders   SalesOrderGetter
}

// NewBarcodeHandler creates a new barcode handler.
func NewBarcodeHandler(base *BaseHandler, products ProductGetter, orders SalesOrderGetter) *BarcodeHandler {
	return &BarcodeHandler{
		BaseHandler: base,
		products:    products,
		orders:      orders,
	}
}

// Product handles GET /barcode/products/:id. The product barcode is encoded,
// or its productId when it has none.
func (h *BarcodeHandler) Product(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	content := p.Barcode
	if content == "" {
		content = p.Code
	}
	h.render(c, content)
}

// SalesOrder handles GET /barcode/sales-orders/:id; the orderNumber is encoded.
func (h *BarcodeHandler) SalesOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, o.Number)
}

func (h *BarcodeHandler) render(c *gin.Context, content string) {
	opts := barcode.Options{
		Width:  h.ParseIntQuery(c, "width", 0),
		Height: h.ParseIntQuery(c, "height", 0),
	}
	png, err := barcode.Render(content, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Data(http.StatusOK, barcode.ContentType, png)
}
