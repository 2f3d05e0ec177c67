package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/ledger"
)

// --- Purchases ---

// PaymentRequest is one payment of a purchase.
type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"money_positive"`
	Type          string          `json:"type" binding:"required,payment_type"`
	AccountNumber string          `json:"accountNumber"`
	Date          *Date           `json:"date"`
}

// CreatePurchaseRequest is the request body for creating a purchase.
type CreatePurchaseRequest struct {
	SupplierID  id.ID            `json:"supplierId" binding:"required"`
	ProductID   id.ID            `json:"productId" binding:"required"`
	WarehouseID id.ID            `json:"warehouseId" binding:"required"`
	Quantity    int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal  `json:"unitPrice" binding:"money_nonneg"`
	Total       decimal.Decimal  `json:"total" binding:"money_nonneg"`
	OrderDate   *Date            `json:"orderDate"`
	Status      string           `json:"status" binding:"business_status=purchase"`
	Comment     string           `json:"comment"`
	Payments    []PaymentRequest `json:"payments" binding:"omitempty,dive"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePurchaseRequest) ToEntity() *purchase.Purchase {
	p := purchase.NewPurchase()
	r.fill(p)
	return p
}

func (r *CreatePurchaseRequest) fill(p *purchase.Purchase) {
	supplierID := r.SupplierID
	p.SupplierID = &supplierID
	p.ProductID = r.ProductID
	p.WarehouseID = r.WarehouseID
	p.Quantity = r.Quantity
	p.UnitPrice = r.UnitPrice
	p.Total = r.Total
	p.Comment = r.Comment
	if t := r.OrderDate.Ptr(); t != nil {
		p.Date = *t
	}
	if status, err := purchase.ParseStatus(r.Status); err == nil {
		p.Status = status
	}

	p.Payments = make([]purchase.Payment, 0, len(r.Payments))
	for i, pay := range r.Payments {
		payType, _ := ledger.ParsePaymentType(pay.Type)
		p.Payments = append(p.Payments, purchase.Payment{
			LineNo:        i + 1,
			Amount:        pay.Amount,
			Type:          payType,
			AccountNumber: pay.AccountNumber,
			PaidAt:        pay.Date.Ptr(),
		})
	}
}

// UpdatePurchaseRequest is the request body for updating a purchase.
type UpdatePurchaseRequest struct {
	CreatePurchaseRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity. Total is recomputed from the
// new quantity and price unless given.
func (r *UpdatePurchaseRequest) ApplyTo(p *purchase.Purchase) {
	r.fill(p)
	p.Version = r.Version
}

// PaymentResponse is one payment of a purchase.
type PaymentResponse struct {
	LineNo        int             `json:"lineNo"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Date          *time.Time      `json:"date,omitempty"`
}

// PurchaseResponse is the response body for a purchase.
type PurchaseResponse struct {
	ID           string            `json:"id"`
	OrderID      string            `json:"orderId"`
	OrderDate    time.Time         `json:"orderDate"`
	SupplierID   string            `json:"supplierId,omitempty"`
	SupplierName string            `json:"supplierName"`
	ProductID    string            `json:"productId"`
	WarehouseID  string            `json:"warehouseId"`
	Quantity     int64             `json:"quantity"`
	UnitPrice    decimal.Decimal   `json:"unitPrice"`
	Total        decimal.Decimal   `json:"total"`
	AmountPaid   decimal.Decimal   `json:"amountPaid"`
	Balance      decimal.Decimal   `json:"balance"`
	Status       string            `json:"status"`
	Comment      string            `json:"comment,omitempty"`
	Payments     []PaymentResponse `json:"payments"`
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FromPurchase creates response DTO from domain entity.
func FromPurchase(p *purchase.Purchase) PurchaseResponse {
	resp := PurchaseResponse{
		ID:           p.ID.String(),
		OrderID:      p.Number,
		OrderDate:    p.Date,
		SupplierName: p.SupplierName,
		ProductID:    p.ProductID.String(),
		WarehouseID:  p.WarehouseID.String(),
		Quantity:     p.Quantity,
		UnitPrice:    p.UnitPrice,
		Total:        p.Total,
		AmountPaid:   p.AmountPaid,
		Balance:      p.Balance,
		Status:       string(p.Status),
		Comment:      p.Comment,
		Payments:     make([]PaymentResponse, 0, len(p.Payments)),
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.SupplierID != nil {
		resp.SupplierID = p.SupplierID.String()
	}
	for _, pay := range p.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			LineNo:        pay.LineNo,
			Amount:        pay.Amount,
			Type:          string(pay.Type),
			AccountNumber: pay.AccountNumber,
			Date:          pay.PaidAt,
		})
	}
	return resp
}

// --- Sales orders ---

// CreateSalesOrderRequest is the request body for creating a sales order.
type CreateSalesOrderRequest struct {
	CustomerID    id.ID           `json:"customerId" binding:"required"`
	ProductID     id.ID           `json:"productId" binding:"required"`
	WarehouseID   id.ID           `json:"warehouseId" binding:"required"`
	Quantity      int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice     decimal.Decimal `json:"unitPrice" binding:"money_nonneg"`
	Total         decimal.Decimal `json:"total" binding:"money_nonneg"`
	PaymentAmount decimal.Decimal `json:"paymentAmount" binding:"money_nonneg"`
	PaymentType   string          `json:"paymentType" binding:"payment_type"`
	AccountNumber string          `json:"accountNumber"`
	OrderDate     *Date           `json:"orderDate"`
	DueDate       *Date           `json:"dueDate"`
	Status        string          `json:"status" binding:"business_status=sales_order"`
	Comment       string          `json:"comment"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSalesOrderRequest) ToEntity() *sales_order.SalesOrder {
	o := sales_order.NewSalesOrder()
	r.fill(o)
	return o
}

func (r *CreateSalesOrderRequest) fill(o *sales_order.SalesOrder) {
	customerID := r.CustomerID
	o.CustomerID = &customerID
	o.ProductID = r.ProductID
	o.WarehouseID = r.WarehouseID
	o.Quantity = r.Quantity
	o.UnitPrice = r.UnitPrice
	o.Total = r.Total
	o.PaymentAmount = r.PaymentAmount
	o.AccountNumber = r.AccountNumber
	o.Comment = r.Comment
	if r.PaymentType != "" {
		if pt, err := ledger.ParsePaymentType(r.PaymentType); err == nil {
			o.PaymentType = pt
		}
	}
	if t := r.OrderDate.Ptr(); t != nil {
		o.Date = *t
	}
	// Zero due date defaults to the order date on Recalculate.
	o.DueDate = time.Time{}
	if t := r.DueDate.Ptr(); t != nil {
		o.DueDate = *t
	}
	if r.Status != "" {
		if status, err := sales_order.ParseStatus(r.Status); err == nil {
			o.Status = status
		}
	}
}

// UpdateSalesOrderRequest is the request body for updating a sales order.
type UpdateSalesOrderRequest struct {
	CreateSalesOrderRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSalesOrderRequest) ApplyTo(o *sales_order.SalesOrder) {
	r.fill(o)
	o.Version = r.Version
}

// SalesOrderResponse is the response body for a sales order.
type SalesOrderResponse struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	OrderDate     time.Time       `json:"orderDate"`
	DueDate       time.Time       `json:"dueDate"`
	CustomerID    string          `json:"customerId,omitempty"`
	CustomerName  string          `json:"customerName"`
	ProductID     string          `json:"productId"`
	WarehouseID   string          `json:"warehouseId"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Total         decimal.Decimal `json:"total"`
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	PaymentType   string          `json:"paymentType"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	Comment       string          `json:"comment,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FromSalesOrder creates response DTO from domain entity.
func FromSalesOrder(o *sales_order.SalesOrder) SalesOrderResponse {
	resp := SalesOrderResponse{
		ID:            o.ID.String(),
		OrderNumber:   o.Number,
		OrderDate:     o.Date,
		DueDate:       o.DueDate,
		CustomerName:  o.CustomerName,
		ProductID:     o.ProductID.String(),
		WarehouseID:   o.WarehouseID.String(),
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice,
		Total:         o.Total,
		PaymentAmount: o.PaymentAmount,
		PaymentType:   string(o.PaymentType),
		AccountNumber: o.AccountNumber,
		Balance:       o.Balance,
		TransactionID: o.TransactionID(),
		Status:        string(o.Status),
		Comment:       o.Comment,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.CustomerID != nil {
		resp.CustomerID = o.CustomerID.String()
	}
	return resp
}

// --- Returns ---

// CreateReturnRequest is the request body for creating a purchase or sales return.
type CreateReturnRequest struct {
	OrderNumber string          `json:"orderNumber" binding:"required"`
	Quantity    int64           `json:"quantity" binding:"required,gt=0"`
	Total       decimal.Decimal `json:"total" binding:"money_nonneg"`
	Reason      string          `json:"reason"`
	ReturnDate  *Date           `json:"returnDate"`
	Status      string          `json:"status" binding:"business_status=return"`
}

// ToEntity converts DTO to a return of the given kind.
func (r *CreateReturnRequest) ToEntity(kind returns.Kind) *returns.Return {
	ret := returns.NewReturn(kind)
	r.fill(ret)
	return ret
}

func (r *CreateReturnRequest) fill(ret *returns.Return) {
	ret.OrderNumber = r.OrderNumber
	ret.Quantity = r.Quantity
	ret.Total = r.Total
	ret.Reason = r.Reason
	if t := r.ReturnDate.Ptr(); t != nil {
		ret.Date = *t
	}
	if r.Status != "" {
		if status, err := returns.ParseStatus(r.Status); err == nil {
			ret.Status = status
		}
	}
}

// UpdateReturnRequest is the request body for updating a return.
type UpdateReturnRequest struct {
	CreateReturnRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateReturnRequest) ApplyTo(ret *returns.Return) {
	r.fill(ret)
	ret.Version = r.Version
}

// ReturnResponse is a purchase or sales return; the party fields follow the kind.
type ReturnResponse struct {
	ID           string          `json:"id"`
	ReturnID     string          `json:"returnId"`
	ReturnDate   time.Time       `json:"returnDate"`
	OrderID      string          `json:"orderId"`
	OrderNumber  string          `json:"orderNumber"`
	SupplierID   string          `json:"supplierId,omitempty"`
	SupplierName string          `json:"supplierName,omitempty"`
	CustomerID   string          `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName,omitempty"`
	ProductID    string          `json:"productId"`
	WarehouseID  string          `json:"warehouseId"`
	Quantity     int64           `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
	Reason       string          `json:"reason,omitempty"`
	Status       string          `json:"status"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// FromReturn creates response DTO from domain entity.
func FromReturn(r *returns.Return) ReturnResponse {
	resp := ReturnResponse{
		ID:          r.ID.String(),
		ReturnID:    r.Number,
		ReturnDate:  r.Date,
		OrderID:     r.OrderID.String(),
		OrderNumber: r.OrderNumber,
		ProductID:   r.ProductID.String(),
		WarehouseID: r.WarehouseID.String(),
		Quantity:    r.Quantity,
		Total:       r.Total,
		Reason:      r.Reason,
		Status:      string(r.Status),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	var partyID string
	if r.PartyID != nil {
		partyID = r.PartyID.String()
	}
	if r.Kind == returns.KindPurchase {
		resp.SupplierID, resp.SupplierName = partyID, r.PartyName
	} else {
		resp.CustomerID, resp.CustomerName = partyID, r.PartyName
	}
	return resp
}

// --- Expenses ---

// CreateExpenseRequest is the request body for creating an expense.
// An empty status lets the approval rule decide.
type CreateExpenseRequest struct {
	Category    string          `json:"category" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"money_positive"`
	PaymentType string          `json:"paymentType" binding:"payment_type"`
	Description string          `json:"description"`
	ExpenseDate *Date           `json:"expenseDate"`
	Status      string          `json:"status" binding:"business_status=expense"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateExpenseRequest) ToEntity() *expense.Expense {
	e := expense.NewExpense()
	r.fill(e)
	return e
}

func (r *CreateExpenseRequest) fill(e *expense.Expense) {
	e.Category = r.Category
	e.Amount = r.Amount
	e.Description = r.Description
	if r.PaymentType != "" {
		if pt, err := ledger.ParsePaymentType(r.PaymentType); err == nil {
			e.PaymentType = pt
		}
	}
	if t := r.ExpenseDate.Ptr(); t != nil {
		e.Date = *t
	}
	if status, err := expense.ParseStatus(r.Status); err == nil && status != "" {
		e.Status = status
	}
}

// UpdateExpenseRequest is the request body for updating an expense.
type UpdateExpenseRequest struct {
	CreateExpenseRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateExpenseRequest) ApplyTo(e *expense.Expense) {
	r.fill(e)
	e.Version = r.Version
}

// ExpenseResponse is the response body for an expense.
type ExpenseResponse struct {
	ID            string          `json:"id"`
	ExpenseNumber string          `json:"expenseNumber"`
	ExpenseDate   time.Time       `json:"expenseDate"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentType   string          `json:"paymentType"`
	Description   string          `json:"description,omitempty"`
	Status        string          `json:"status"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FromExpense creates response DTO from domain entity.
func FromExpense(e *expense.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID.String(),
		ExpenseNumber: e.Number,
		ExpenseDate:   e.Date,
		Category:      e.Category,
		Amount:        e.Amount,
		PaymentType:   string(e.PaymentType),
		Description:   e.Description,
		Status:        string(e.Status),
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
