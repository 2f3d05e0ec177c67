// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/filter"
	"bizbook/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T

	// codeColumn holds the business code used by GetByCode
	codeColumn string
	searchCols []string
	// managedCols are written by the ledger and never by Create/Update
	managedCols map[string]struct{}
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:   txManager,
		tableName:   tableName,
		entityName:  entityName,
		selectCols:  selectCols,
		newFn:       newFn,
		codeColumn:  "code",
		searchCols:  []string{"name", "code"},
		managedCols: map[string]struct{}{},
	}
}

// WithCodeColumn sets the column GetByCode matches (brands and categories use "name").
func (r *BaseCatalogRepo[T]) WithCodeColumn(col string) *BaseCatalogRepo[T] {
	r.codeColumn = col
	return r
}

// WithSearchColumns sets the columns matched by ListFilter.Search.
func (r *BaseCatalogRepo[T]) WithSearchColumns(cols ...string) *BaseCatalogRepo[T] {
	r.searchCols = cols
	return r
}

// WithManagedColumns excludes counter columns from Create and Update.
func (r *BaseCatalogRepo[T]) WithManagedColumns(cols ...string) *BaseCatalogRepo[T] {
	for _, c := range cols {
		r.managedCols[c] = struct{}{}
	}
	return r
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction of ctx or the pool.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// TableName returns the catalog table.
func (r *BaseCatalogRepo[T]) TableName() string {
	return r.tableName
}

// writableData returns the column map of entity without managed columns.
// Zero timestamps are left to the column defaults.
func (r *BaseCatalogRepo[T]) writableData(entity T) (map[string]any, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return nil, fmt.Errorf("no db tags found in entity")
	}

	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if _, managed := r.managedCols[col]; managed {
			continue
		}
		val, ok := data[col]
		if !ok {
			continue
		}
		if ts, isTime := val.(time.Time); isTime && ts.IsZero() {
			continue
		}
		out[col] = val
	}
	return out, nil
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data, err := r.writableData(entity)
	if err != nil {
		return err
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.entityName)
	}
	return nil
}

type versioned interface {
	SetVersion(v int)
}

// Update modifies an existing entity with optimistic locking.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	q, version, err := r.updateQuery(entity)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entityName)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, postgres.StructToMap(entity)["id"])
	}

	if v, ok := any(entity).(versioned); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) updateQuery(entity T) (squirrel.UpdateBuilder, int, error) {
	data, err := r.writableData(entity)
	if err != nil {
		return squirrel.UpdateBuilder{}, 0, err
	}

	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, 0, fmt.Errorf("entity has no 'id' field with db tag")
	}

	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, 0, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	set := make(map[string]any, len(data))
	for col, val := range data {
		switch col {
		case "id", "version", "created_at", "updated_at":
			continue
		}
		set[col] = val
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1"))
	if r.hasColumn("updated_at") {
		q = q.Set("updated_at", squirrel.Expr("NOW()"))
	}
	q = q.Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})

	return q, version, nil
}

func (r *BaseCatalogRepo[T]) hasColumn(col string) bool {
	for _, c := range r.selectCols {
		if c == col {
			return true
		}
	}
	return false
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// BaseSelect exposes the SELECT builder to embedding repositories.
func (r *BaseCatalogRepo[T]) BaseSelect() squirrel.SelectBuilder {
	return r.baseSelect()
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// GetByCode retrieves entity by its business code.
func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{r.codeColumn: code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.get(ctx, q, code)
}

// GetForUpdate retrieves entity by ID with row lock.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
	return r.get(ctx, q, entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder) (T, error) {
	return r.get(ctx, q, "matching query")
}

func (r *BaseCatalogRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// listQuery applies search, ids and advanced filters.
func (r *BaseCatalogRepo[T]) listQuery(f domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := r.baseSelect()

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if f.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + f.Search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	return r.applyAdvancedFilters(q, f.AdvancedFilters)
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q, err := r.listQuery(f)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.entityName, err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.entityName, err)
	}
	return result, nil
}

// applyAdvancedFilters applies column filters. Columns are whitelisted
// against the select list.
func (r *BaseCatalogRepo[T]) applyAdvancedFilters(q squirrel.SelectBuilder, items []filter.Item) (squirrel.SelectBuilder, error) {
	for _, item := range items {
		if !r.hasColumn(item.Field) {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal, filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual, filter.NotInList:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		case filter.NotContains:
			q = q.Where(squirrel.NotILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		default:
			return q, apperror.NewValidation("invalid filter operator").WithDetail("operator", item.Operator)
		}
	}
	return q, nil
}

// Exists checks if entity exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"id": entityID})
}

// ExistsByCode checks if entity with given code exists.
func (r *BaseCatalogRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, squirrel.And{
		squirrel.Eq{r.codeColumn: code},
		squirrel.Eq{"deletion_mark": false},
	})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.entityName, err)
	}
	return true, nil
}

// Delete performs physical removal from the database. Rows still referenced
// by documents yield a 409.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entityName)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// SetDeletionMark sets or clears the deletion mark (soft delete).
func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "name ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !r.hasColumn(field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
