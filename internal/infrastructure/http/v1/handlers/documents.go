package handlers

import (
	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves purchases.
type PurchaseHandler = BaseDocumentHandler[
	*purchase.Purchase,
	dto.CreatePurchaseRequest,
	dto.UpdatePurchaseRequest,
	dto.PurchaseResponse,
]

// NewPurchaseHandler creates the purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[
		*purchase.Purchase,
		dto.CreatePurchaseRequest,
		dto.UpdatePurchaseRequest,
		dto.PurchaseResponse,
	]{
		Service: service,
		MapCreateDTO: func(req dto.CreatePurchaseRequest) *purchase.Purchase {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePurchaseRequest, existing *purchase.Purchase) *purchase.Purchase {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: dto.FromPurchase,
	})
}

// SalesOrderHandler serves sales orders.
type SalesOrderHandler = BaseDocumentHandler[
	*sales_order.SalesOrder,
	dto.CreateSalesOrderRequest,
	dto.UpdateSalesOrderRequest,
	dto.SalesOrderResponse,
]

// NewSalesOrderHandler creates the sales order handler.
func NewSalesOrderHandler(base *BaseHandler, service *sales_order.Service) *SalesOrderHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[
		*sales_order.SalesOrder,
		dto.CreateSalesOrderRequest,
		dto.UpdateSalesOrderRequest,
		dto.SalesOrderResponse,
	]{
		Service: service,
		MapCreateDTO: func(req dto.CreateSalesOrderRequest) *sales_order.SalesOrder {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateSalesOrderRequest, existing *sales_order.SalesOrder) *sales_order.SalesOrder {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: dto.FromSalesOrder,
	})
}

// ReturnHandler serves purchase or sales returns.
type ReturnHandler = BaseDocumentHandler[
	*returns.Return,
	dto.CreateReturnRequest,
	dto.UpdateReturnRequest,
	dto.ReturnResponse,
]

// NewReturnHandler creates the handler of one kind of returns.
func NewReturnHandler(base *BaseHandler, service *returns.Service) *ReturnHandler {
	kind := service.Kind()
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[
		*returns.Return,
		dto.CreateReturnRequest,
		dto.UpdateReturnRequest,
		dto.ReturnResponse,
	]{
		Service: service,
		MapCreateDTO: func(req dto.CreateReturnRequest) *returns.Return {
			return req.ToEntity(kind)
		},
		MapUpdateDTO: func(req dto.UpdateReturnRequest, existing *returns.Return) *returns.Return {
			existing.Kind = kind
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(r *returns.Return) dto.ReturnResponse {
			r.Kind = kind
			return dto.FromReturn(r)
		},
	})
}

// ExpenseHandler serves expenses.
type ExpenseHandler = BaseDocumentHandler[
	*expense.Expense,
	dto.CreateExpenseRequest,
	dto.UpdateExpenseRequest,
	dto.ExpenseResponse,
]

// NewExpenseHandler creates the expense handler.
func NewExpenseHandler(base *BaseHandler, service *expense.Service) *ExpenseHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[
		*expense.Expense,
		dto.CreateExpenseRequest,
		dto.UpdateExpenseRequest,
		dto.ExpenseResponse,
	]{
		Service: service,
		MapCreateDTO: func(req dto.CreateExpenseRequest) *expense.Expense {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateExpenseRequest, existing *expense.Expense) *expense.Expense {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: dto.FromExpense,
	})
}
