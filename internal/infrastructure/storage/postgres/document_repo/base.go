// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/infrastructure/storage/postgres"
)

const defaultListLimit = 50

// BaseDocumentRepo provides common CRUD operations for document entities.
// Documents are removed physically; their ledger effect is reversed first.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	searchCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository. Search
// matches number and the given columns.
func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	newFn func() T,
	searchCols ...string,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		searchCols: append([]string{"number"}, searchCols...),
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction of ctx or the pool.
func (r *BaseDocumentRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) insertQuery(entity T) squirrel.InsertBuilder {
	data := postgres.FilterColumns(postgres.StructToMap(entity), r.selectCols)
	return r.Builder().
		Insert(r.tableName).
		SetMap(data)
}

// Create inserts a new document.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	sql, args, err := r.insertQuery(entity).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.entityName)
	}
	return nil
}

type versioned interface {
	GetVersion() int
	SetVersion(v int)
}

func (r *BaseDocumentRepo[T]) updateQuery(entity T) (squirrel.UpdateBuilder, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("entity has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	set := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "number", "created_at", "created_by", "version", "updated_at":
			continue
		}
		if val, ok := data[col]; ok {
			set[col] = val
		}
	}

	return r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}), nil
}

// Update updates an existing document with optimistic locking.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, entity T) error {
	q, err := r.updateQuery(entity)
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
		v.SetVersion(v.GetVersion() + 1)
	}
	return nil
}

// Delete removes a document. Rows still referenced by other documents
// (a purchase with returns) yield a 409.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
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

// baseSelect creates a SELECT builder.
func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
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

// GetByID retrieves a document by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}), entityID.String())
}

// GetByNumber retrieves a document by Number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"number": number}), number)
}

// GetForUpdate retrieves document with row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
	return r.get(ctx, q, entityID.String())
}

// LockByNumber retrieves a document by Number with row lock.
func (r *BaseDocumentRepo[T]) LockByNumber(ctx context.Context, number string) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"number": number}).
		Suffix("FOR UPDATE")
	return r.get(ctx, q, number)
}

// listQuery applies search, ids and the date range.
func (r *BaseDocumentRepo[T]) listQuery(f domain.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if f.Search != "" {
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
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": f.DateFrom.UTC()})
	}
	if before := f.DateBefore(); before != nil {
		q = q.Where(squirrel.Lt{"date": *before})
	}
	return q
}

// List retrieves documents with standard filtering.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  limit,
		Offset: f.Offset,
	}

	q := r.listQuery(f)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.entityName, err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy).Limit(uint64(limit))
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

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	// "name" is the catalog default of ListFilter and means nothing here.
	if orderBy == "" || orderBy == "name" {
		return "date DESC, number DESC", nil
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
	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
}

// scalar runs a single-value query.
func (r *BaseDocumentRepo[T]) scalar(ctx context.Context, q squirrel.SelectBuilder, dest any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(dest); err != nil {
		return fmt.Errorf("query %s: %w", r.entityName, err)
	}
	return nil
}
