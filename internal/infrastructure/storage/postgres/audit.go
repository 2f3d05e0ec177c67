package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/id"
)

const (
	auditTable = "sys_audit"

	// Change sets above this size are stored zstd-compressed.
	defaultCompressThreshold = 10 * 1024
	defaultHistoryLimit      = 100
)

// AuditAction is what happened to the audited row.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionAdjust AuditAction = "adjust"
)

// CompressionAlgo tells how changes_compressed is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is one row of sys_audit. Changes is always decoded when read.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          id.ID           `db:"entity_id" json:"entityId"`
	Action            AuditAction     `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId,omitempty"`
	UserEmail         string          `db:"user_email" json:"userEmail,omitempty"`
	Changes           json.RawMessage `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	Metadata          json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

var auditColumns = ExtractDBColumns[AuditEntry]()

// AuditService is the ledger's audit log: manual adjustments and the
// before/after states it keeps for history. It writes on the caller's
// transaction when there is one.
type AuditService struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
	enc       *zstd.Encoder
	dec       *zstd.Decoder
	threshold int
}

func NewAuditService(txManager *TxManager) (*AuditService, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		enc:       enc,
		dec:       dec,
		threshold: defaultCompressThreshold,
	}, nil
}

// LogChange records changes for one entity. metadata may be nil; the ledger
// puts the source document there.
func (s *AuditService) LogChange(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	action string,
	changes map[string]any,
	metadata map[string]any,
) error {
	entry := AuditEntry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     AuditAction(action),
		UserID:     appctx.Actor(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if user := appctx.GetUser(ctx); user != nil {
		entry.UserEmail = user.Email
	}

	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	s.pack(&entry, raw)

	if len(metadata) > 0 {
		if entry.Metadata, err = json.Marshal(metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}
	return s.insert(ctx, entry)
}

func (s *AuditService) insert(ctx context.Context, e AuditEntry) error {
	sql, args, err := s.builder.Insert(auditTable).
		Columns(auditColumns...).
		Values(e.ID, e.EntityType, e.EntityID, e.Action, e.UserID, e.UserEmail,
			nullableJSON(e.Changes), e.ChangesCompressed, e.CompressionAlgo,
			nullableJSON(e.Metadata), e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// pack stores raw in Changes, or compressed when it is above the threshold.
func (s *AuditService) pack(e *AuditEntry, raw []byte) {
	if len(raw) <= s.threshold {
		e.Changes, e.CompressionAlgo = raw, CompressionNone
		return
	}
	e.ChangesCompressed = s.enc.EncodeAll(raw, nil)
	e.CompressionAlgo = CompressionZstd
}

// unpack is the inverse of pack.
func (s *AuditService) unpack(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.dec.DecodeAll(e.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit %s: %w", e.ID, err)
	}
	e.Changes, e.ChangesCompressed = raw, nil
	return nil
}

// GetEntityHistory returns up to limit entries of one entity, newest first.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	sql, args, err := s.builder.Select(auditColumns...).
		From(auditTable).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	entries := make([]AuditEntry, 0)
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	for i := range entries {
		if err := s.unpack(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
