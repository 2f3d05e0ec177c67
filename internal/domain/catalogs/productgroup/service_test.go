package productgroup_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain/catalogs/catalogtest"
	"bizbook/internal/domain/catalogs/productgroup"
)

// groupRepo counts products per group name from a plain map.
type groupRepo struct {
	*catalogtest.Repo[*productgroup.Group]
	products map[string]int64
}

func (r groupRepo) CountProducts(_ context.Context, name string) (int64, error) {
	return r.products[name], nil
}

func newService(t *testing.T, kind productgroup.Kind) (*productgroup.Service, groupRepo, *productgroup.Group) {
	t.Helper()
	repo := groupRepo{
		Repo:     catalogtest.NewRepo(catalogtest.Copy[productgroup.Group]),
		products: make(map[string]int64),
	}
	svc := productgroup.NewService(kind, repo, tx.Inline{})

	g := productgroup.New("Acme", "hand tools")
	require.NoError(t, svc.Create(context.Background(), g))
	return svc, repo, g
}

func TestCreate_ClearsAutoCreated(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t, productgroup.KindBrand)

	g := productgroup.New("Beta", "")
	g.AutoCreated = true
	require.NoError(t, svc.Create(ctx, g))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, stored.AutoCreated)
}

func TestGuards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		products int64
		rename   bool
		wantErr  bool
	}{
		{"rename referenced", 3, true, true},
		{"delete referenced", 3, false, true},
		{"rename unreferenced", 0, true, false},
		{"delete unreferenced", 0, false, false},
	}
	for _, kind := range []productgroup.Kind{productgroup.KindBrand, productgroup.KindCategory} {
		for _, tt := range tests {
			t.Run(string(kind)+"/"+tt.name, func(t *testing.T) {
				svc, repo, g := newService(t, kind)
				repo.products["Acme"] = tt.products

				var err error
				if tt.rename {
					g.Name = "Acme Tools"
					err = svc.Update(ctx, g)
				} else {
					err = svc.Delete(ctx, g.ID)
				}

				if !tt.wantErr {
					require.NoError(t, err)
					return
				}
				appErr, ok := apperror.AsAppError(err)
				require.True(t, ok)
				assert.Equal(t, apperror.CodeConflict, appErr.Code)
				assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
				assert.Equal(t, "Acme", appErr.Details["name"])
				assert.Equal(t, int64(3), appErr.Details["products"])

				stored, err := repo.GetByID(ctx, g.ID)
				require.NoError(t, err)
				assert.Equal(t, "Acme", stored.Name)
			})
		}
	}
}

func TestUpdate_DescriptionOfReferencedGroup(t *testing.T) {
	ctx := context.Background()
	svc, repo, g := newService(t, productgroup.KindCategory)
	repo.products["Acme"] = 5

	g.Description = "all hand tools"
	require.NoError(t, svc.Update(ctx, g))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "all hand tools", stored.Description)
}

func TestValidate_RequiresName(t *testing.T) {
	err := productgroup.New("  ", "").Validate(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
