package entity

import (
	"time"

	"bizbook/internal/core/id"
)

// StockMovement is one applied stock delta in the stock register.
// Movements are append-only; the product row holds the running balance.
type StockMovement struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderType is the document type that caused the movement (sales_order, sales_return, ...)
	RecorderType string `db:"recorder_type" json:"recorderType"`
	RecorderID   id.ID  `db:"recorder_id" json:"recorderId"`

	// RecorderNumber is the business number of the recorder (SO-240101-001)
	RecorderNumber string `db:"recorder_number" json:"recorderNumber"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity is signed: receipt > 0, issue < 0
	Quantity int64 `db:"quantity" json:"quantity"`

	// BalanceAfter is product stock right after the movement was applied
	BalanceAfter int64 `db:"balance_after" json:"balanceAfter"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewStockMovement creates a movement with a generated line id.
func NewStockMovement(recorderType string, recorderID id.ID, recorderNumber string, productID id.ID, quantity, balanceAfter int64) StockMovement {
	return StockMovement{
		LineID:         id.New(),
		RecorderType:   recorderType,
		RecorderID:     recorderID,
		RecorderNumber: recorderNumber,
		ProductID:      productID,
		Quantity:       quantity,
		BalanceAfter:   balanceAfter,
		CreatedAt:      time.Now().UTC(),
	}
}
