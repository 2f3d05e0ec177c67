package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/catalogs/productgroup"
	"bizbook/internal/domain/catalogs/warehouse"
)

// --- Customers and suppliers ---

// CreatePartyRequest is the request body for creating a customer or supplier.
type CreatePartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePartyRequest) ToEntity() *party.Party {
	return party.New(r.Name, r.Email, r.Phone, r.Address)
}

// UpdatePartyRequest is the request body for updating a customer or supplier.
type UpdatePartyRequest struct {
	CreatePartyRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdatePartyRequest) ApplyTo(p *party.Party) {
	fresh := r.ToEntity()
	p.Name = fresh.Name
	p.Email = fresh.Email
	p.Phone = fresh.Phone
	p.Address = fresh.Address
	p.Version = r.Version
}

// PartyResponse is a customer or supplier; exactly one of the business id fields is set.
type PartyResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId,omitempty"`
	SupplierID   string    `json:"supplierId,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	DeletionMark bool      `json:"deletionMark"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PartyMapper returns the response mapper of one party catalog.
func PartyMapper(kind party.Kind) func(*party.Party) PartyResponse {
	return func(p *party.Party) PartyResponse {
		resp := PartyResponse{
			ID:           p.ID.String(),
			Name:         p.Name,
			Email:        p.Email,
			Phone:        p.Phone,
			Address:      p.Address,
			DeletionMark: p.DeletionMark,
			Version:      p.Version,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
		if kind == party.KindSupplier {
			resp.SupplierID = p.Code
		} else {
			resp.CustomerID = p.Code
		}
		return resp
	}
}

// --- Products ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	ProductID   string          `json:"productId" binding:"required"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name" binding:"required"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"money_positive"`
	Stock       int64           `json:"stock" binding:"min=0"`
	WarehouseID id.ID           `json:"warehouseId" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.ProductID, r.Name)
	r.fill(p)
	return p
}

func (r *CreateProductRequest) fill(p *product.Product) {
	p.Barcode = r.Barcode
	p.Brand = r.Brand
	p.Category = r.Category
	p.Description = r.Description
	p.Price = r.Price
	p.Stock = r.Stock
	p.WarehouseID = r.WarehouseID
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	CreateProductRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	fresh := product.NewProduct(r.ProductID, r.Name)
	p.Code = fresh.Code
	p.Name = fresh.Name
	r.fill(p)
	p.Version = r.Version
}

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Value       decimal.Decimal `json:"value"`
	WarehouseID string          `json:"warehouseId"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		ProductID:   p.Code,
		Barcode:     p.Barcode,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Value:       p.Value(),
		WarehouseID: p.WarehouseID.String(),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// --- Brands and categories ---

// CreateGroupRequest is the request body for creating a brand or category.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateGroupRequest) ToEntity() *productgroup.Group {
	return productgroup.New(r.Name, r.Description)
}

// UpdateGroupRequest is the request body for updating a brand or category.
type UpdateGroupRequest struct {
	CreateGroupRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateGroupRequest) ApplyTo(g *productgroup.Group) {
	fresh := r.ToEntity()
	g.Name = fresh.Name
	g.Description = fresh.Description
	g.Version = r.Version
}

// GroupResponse is the response body for a brand or category.
type GroupResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	TotalProducts int64     `json:"totalProducts"`
	TotalStock    int64     `json:"totalStock"`
	AutoCreated   bool      `json:"autoCreated"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromGroup creates response DTO from domain entity.
func FromGroup(g *productgroup.Group) GroupResponse {
	return GroupResponse{
		ID:            g.ID.String(),
		Name:          g.Name,
		Description:   g.Description,
		TotalProducts: g.TotalProducts,
		TotalStock:    g.TotalStock,
		AutoCreated:   g.AutoCreated,
		Version:       g.Version,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

// --- Warehouses ---

// CreateWarehouseRequest is the request body for creating a warehouse.
type CreateWarehouseRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	return warehouse.NewWarehouse(r.Name, r.Location)
}

// UpdateWarehouseRequest is the request body for updating a warehouse.
type UpdateWarehouseRequest struct {
	CreateWarehouseRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateWarehouseRequest) ApplyTo(wh *warehouse.Warehouse) {
	fresh := r.ToEntity()
	wh.Name = fresh.Name
	wh.Location = fresh.Location
	wh.Version = r.Version
}

// WarehouseResponse is the response body for a warehouse.
type WarehouseResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Location      string    `json:"location,omitempty"`
	TotalProducts int64     `json:"totalProducts"`
	TotalStock    int64     `json:"totalStock"`
	DeletionMark  bool      `json:"deletionMark"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromWarehouse creates response DTO from domain entity.
func FromWarehouse(wh *warehouse.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:            wh.ID.String(),
		Code:          wh.Code,
		Name:          wh.Name,
		Location:      wh.Location,
		TotalProducts: wh.TotalProducts,
		TotalStock:    wh.TotalStock,
		DeletionMark:  wh.DeletionMark,
		Version:       wh.Version,
		CreatedAt:     wh.CreatedAt,
		UpdatedAt:     wh.UpdatedAt,
	}
}
