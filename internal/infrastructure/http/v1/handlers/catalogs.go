package handlers

import (
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/catalogs/productgroup"
	"bizbook/internal/domain/catalogs/warehouse"
	"bizbook/internal/domain/reports"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// PartyHTTPHandler serves customers or suppliers.
type PartyHTTPHandler = CatalogHandler[
	*party.Party,
	dto.CreatePartyRequest,
	dto.UpdatePartyRequest,
	dto.PartyResponse,
]

// NewPartyHandler creates the handler of one party catalog.
func NewPartyHandler(base *BaseHandler, service *party.Service) *PartyHTTPHandler {
	kind := service.Kind()
	name := "customers"
	if kind == party.KindSupplier {
		name = "suppliers"
	}

	return NewCatalogHandler(base, CatalogHandlerConfig[
		*party.Party,
		dto.CreatePartyRequest,
		dto.UpdatePartyRequest,
		dto.PartyResponse,
	]{
		Service:    service.CatalogService,
		EntityName: name,
		MapCreateDTO: func(req dto.CreatePartyRequest) *party.Party {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePartyRequest, existing *party.Party) *party.Party {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: dto.PartyMapper(kind),
		ExportTable: func(items []*party.Party) reports.Table {
			return partyTable(kind, items)
		},
	})
}

func partyTable(kind party.Kind, items []*party.Party) reports.Table {
	t := reports.Table{
		Title:   "Customers",
		Headers: []string{"Customer ID", "Name", "Email", "Phone", "Address"},
	}
	if kind == party.KindSupplier {
		t.Title = "Suppliers"
		t.Headers[0] = "Supplier ID"
	}
	for _, p := range items {
		t.Rows = append(t.Rows, []any{p.Code, p.Name, p.Email, p.Phone, p.Address})
	}
	return t
}

// ProductHTTPHandler serves products.
type ProductHTTPHandler = CatalogHandler[
	*product.Product,
	dto.CreateProductRequest,
	dto.UpdateProductRequest,
	dto.ProductResponse,
]

// NewProductHandler creates the product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
		dto.ProductResponse,
	]{
		Service:    service.CatalogService,
		EntityName: "products",
		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO:    dto.FromProduct,
		ExportTable: productTable,
	})
}

func productTable(items []*product.Product) reports.Table {
	t := reports.Table{
		Title:   "Products",
		Headers: []string{"Product ID", "Barcode", "Name", "Brand", "Category", "Price", "Stock", "Value"},
	}
	for _, p := range items {
		t.Rows = append(t.Rows, []any{
			p.Code, p.Barcode, p.Name, p.Brand, p.Category,
			p.Price.InexactFloat64(), p.Stock, p.Value().InexactFloat64(),
		})
	}
	return t
}

// GroupHTTPHandler serves brands or categories.
type GroupHTTPHandler = CatalogHandler[
	*productgroup.Group,
	dto.CreateGroupRequest,
	dto.UpdateGroupRequest,
	dto.GroupResponse,
]

// NewGroupHandler creates the handler of one product group catalog.
func NewGroupHandler(base *BaseHandler, kind productgroup.Kind, service *productgroup.Service) *GroupHTTPHandler {
	name := "brands"
	if kind == productgroup.KindCategory {
		name = "categories"
	}

	return NewCatalogHandler(base, CatalogHandlerConfig[
		*productgroup.Group,
		dto.CreateGroupRequest,
		dto.UpdateGroupRequest,
		dto.GroupResponse,
	]{
		Service:    service.CatalogService,
		EntityName: name,
		MapCreateDTO: func(req dto.CreateGroupRequest) *productgroup.Group {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateGroupRequest, existing *productgroup.Group) *productgroup.Group {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: dto.FromGroup,
	})
}

// WarehouseHTTPHandler serves warehouses.
type WarehouseHTTPHandler = CatalogHandler[
	*warehouse.Warehouse,
	dto.CreateWarehouseRequest,
	dto.UpdateWarehouseRequest,
	dto.WarehouseResponse,
]

// NewWarehouseHandler creates the warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service) *WarehouseHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*warehouse.Warehouse,
		dto.CreateWarehouseRequest,
		dto.UpdateWarehouseRequest,
		dto.WarehouseResponse,
	]{
		Service:    service.CatalogService,
		EntityName: "warehouses",
		MapCreateDTO: func(req dto.CreateWarehouseRequest) *warehouse.Warehouse {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateWarehouseRequest, existing *warehouse.Warehouse) *warehouse.Warehouse {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: dto.FromWarehouse,
	})
}
