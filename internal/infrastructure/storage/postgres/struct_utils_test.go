package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
)

type testCatalog struct {
	entity.Catalog
	Email   string `db:"email"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[testCatalog]()

	assert.Equal(t, []string{"id", "deletion_mark", "version", "code", "name", "email"}, cols)
}

func TestStructToMap_Embedded(t *testing.T) {
	c := testCatalog{
		Catalog: entity.Catalog{
			Record: entity.Record{ID: id.New(), Version: 3},
			Code:   "CUS0001",
			Name:   "Acme",
		},
		Email:   "a@acme.test",
		Ignored: "x",
	}

	m := StructToMap(&c)

	assert.Equal(t, c.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "CUS0001", m["code"])
	assert.Equal(t, "a@acme.test", m["email"])
	assert.NotContains(t, m, "Ignored")
	assert.NotContains(t, m, "NoTag")
	assert.Len(t, m, 6)
}

func TestFilterColumns(t *testing.T) {
	m := map[string]any{"id": 1, "name": "x", "total_stock": 5}

	got := FilterColumns(m, []string{"id", "name"})

	assert.Equal(t, map[string]any{"id": 1, "name": "x"}, got)
}
