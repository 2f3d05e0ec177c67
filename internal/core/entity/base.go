// Package entity holds the shapes shared by catalogs, documents and the stock
// register.
package entity

import (
	"context"

	"bizbook/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants
// without touching the database.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Record is the identity shared by catalogs and documents.
type Record struct {
	ID           id.ID `db:"id" json:"id"`
	DeletionMark bool  `db:"deletion_mark" json:"deletionMark"`

	// Version is the optimistic lock; repositories bump it on every update.
	Version int `db:"version" json:"version"`
}

// NewRecord returns a record with a fresh UUIDv7 at version 1.
func NewRecord() Record {
	return Record{ID: id.New(), Version: 1}
}

func (r *Record) GetID() id.ID { return r.ID }

func (r *Record) GetVersion() int { return r.Version }

func (r *Record) SetVersion(v int) { r.Version = v }
