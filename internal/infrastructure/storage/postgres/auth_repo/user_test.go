package auth_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/domain/auth"
)

func TestListQuery(t *testing.T) {
	active := true
	sql, args, err := listQuery(auth.UserFilter{Search: "ana", IsActive: &active, RoleCode: "admin"}).
		Column("COUNT(*)").
		ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT COUNT(*) FROM users u WHERE u.deleted_at IS NULL")
	assert.Contains(t, sql, "(u.email ILIKE $1 OR u.first_name ILIKE $2 OR u.last_name ILIKE $3)")
	assert.Contains(t, sql, "u.is_active = $4")
	assert.Contains(t, sql, "r.code = $5")
	assert.Equal(t, []any{"%ana%", "%ana%", "%ana%", true, "admin"}, args)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "r.id, r.code, r.name, r.description, r.permissions, r.is_system, r.created_at, r.updated_at",
		prefixedList("r.", roleColumns))
	assert.Equal(t, "u.id", prefixed("u.", userColumns)[0])
	assert.Equal(t, "u.version", prefixed("u.", userColumns)[len(prefixed("u.", userColumns))-1])
}
