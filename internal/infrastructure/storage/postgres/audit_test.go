package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditColumns(t *testing.T) {
	assert.Equal(t, []string{
		"id", "entity_type", "entity_id", "action", "user_id", "user_email",
		"changes", "changes_compressed", "compression_algo", "metadata", "created_at",
	}, auditColumns)
}

func TestAuditPack(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)
	s.threshold = 64

	t.Run("small change set stays plain", func(t *testing.T) {
		var e AuditEntry
		s.pack(&e, []byte(`{"quantity":{"old":3,"new":5}}`))

		assert.Equal(t, CompressionNone, e.CompressionAlgo)
		assert.JSONEq(t, `{"quantity":{"old":3,"new":5}}`, string(e.Changes))
		assert.Nil(t, e.ChangesCompressed)
		require.NoError(t, s.unpack(&e))
	})

	t.Run("large change set round-trips through zstd", func(t *testing.T) {
		raw := []byte(`{"note":"` + string(bytes.Repeat([]byte("a"), 500)) + `"}`)
		var e AuditEntry
		s.pack(&e, raw)

		assert.Equal(t, CompressionZstd, e.CompressionAlgo)
		assert.Nil(t, e.Changes)
		assert.Less(t, len(e.ChangesCompressed), len(raw))

		require.NoError(t, s.unpack(&e))
		assert.Equal(t, raw, []byte(e.Changes))
		assert.Nil(t, e.ChangesCompressed)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		e := AuditEntry{CompressionAlgo: CompressionZstd, ChangesCompressed: []byte("not zstd")}
		assert.Error(t, s.unpack(&e))
	})
}
