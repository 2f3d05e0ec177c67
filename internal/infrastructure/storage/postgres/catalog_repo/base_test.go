package catalog_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/domain"
	"bizbook/internal/domain/catalogs/productgroup"
	"bizbook/internal/domain/catalogs/warehouse"
	"bizbook/internal/domain/filter"
)

func TestUpdateQuery_SkipsManagedColumns(t *testing.T) {
	r := NewWarehouseRepo(nil)
	w := warehouse.NewWarehouse("Main", "Dock 4")
	w.Version = 3
	w.TotalStock = 99

	q, version, err := r.updateQuery(w)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "UPDATE cat_warehouses SET"))
	assert.NotContains(t, sql, "total_stock")
	assert.NotContains(t, sql, "total_products")
	assert.NotContains(t, sql, "created_at")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "updated_at = NOW()")
	assert.Contains(t, sql, "WHERE id = ")
	assert.Equal(t, 3, args[len(args)-1])
}

func TestWritableData_LeavesZeroTimestampsToDefaults(t *testing.T) {
	r := NewWarehouseRepo(nil)
	w := warehouse.NewWarehouse("Main", "")

	data, err := r.writableData(&warehouse.Warehouse{Catalog: w.Catalog, Location: "Dock 4"})
	require.NoError(t, err)

	assert.Contains(t, data, "name")
	assert.Contains(t, data, "code")
	assert.NotContains(t, data, "created_at")
	assert.NotContains(t, data, "updated_at")
	assert.NotContains(t, data, "total_products")
}

func TestListQuery_Search(t *testing.T) {
	r := NewProductRepo(nil)

	q, err := r.listQuery(domain.ListFilter{Search: "drill"})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "deletion_mark = $1")
	assert.Contains(t, sql, "(name ILIKE $2 OR code ILIKE $3 OR barcode ILIKE $4 OR brand ILIKE $5 OR category ILIKE $6)")
	assert.Equal(t, "%drill%", args[1])
}

func TestListQuery_AdvancedFilters(t *testing.T) {
	r := NewProductRepo(nil)

	tests := []struct {
		name     string
		item     filter.Item
		contains string
		errCode  string
	}{
		{name: "eq", item: filter.Item{Field: "brand", Operator: filter.Equal, Value: "Acme"}, contains: "brand = $2"},
		{name: "in", item: filter.Item{Field: "category", Operator: filter.InList, Value: []string{"a", "b"}}, contains: "category IN ($2,$3)"},
		{name: "gte", item: filter.Item{Field: "stock", Operator: filter.GreaterOrEqual, Value: 5}, contains: "stock >= $2"},
		{name: "null", item: filter.Item{Field: "description", Operator: filter.IsNull}, contains: "description IS NULL"},
		{name: "contains", item: filter.Item{Field: "name", Operator: filter.Contains, Value: "saw"}, contains: "name ILIKE $2"},
		{name: "unknown column", item: filter.Item{Field: "password", Operator: filter.Equal, Value: "x"}, errCode: apperror.CodeValidation},
		{name: "unknown operator", item: filter.Item{Field: "name", Operator: "regex", Value: "x"}, errCode: apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := r.listQuery(domain.ListFilter{AdvancedFilters: []filter.Item{tt.item}})
			if tt.errCode != "" {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, tt.errCode))
				return
			}
			require.NoError(t, err)

			sql, _, err := q.ToSql()
			require.NoError(t, err)
			assert.Contains(t, sql, tt.contains)
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	r := NewProductRepo(nil)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "name ASC"},
		{in: "price", want: "price ASC"},
		{in: "-stock", want: "stock DESC"},
		{in: "+code", want: "code ASC"},
		{in: "price; DROP TABLE cat_products", wantErr: true},
		{in: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := r.parseOrderBy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupRepo_CodeIsName(t *testing.T) {
	r := NewBrandRepo(nil)
	assert.Equal(t, "name", r.codeColumn)
	assert.Equal(t, "cat_brands", r.TableName())

	sql, args, err := r.countProductsQuery("Acme").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM cat_products WHERE brand = $1", sql)
	assert.Equal(t, []any{"Acme"}, args)

	c := NewCategoryRepo(nil)
	sql, _, err = c.countProductsQuery("Tools").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM cat_products WHERE category = $1", sql)
}

func TestGroupRepo_CreateKeepsCountersOut(t *testing.T) {
	r := NewCategoryRepo(nil)
	g := productgroup.New("Tools", "Hand tools")
	g.TotalProducts = 7

	data, err := r.writableData(g)
	require.NoError(t, err)

	assert.Equal(t, "Tools", data["name"])
	assert.NotContains(t, data, "total_products")
	assert.NotContains(t, data, "total_stock")
	assert.Contains(t, data, "auto_created")
}
