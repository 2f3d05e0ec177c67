package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActor(t *testing.T) {
	bg := context.Background()
	user := WithUser(bg, &UserContext{UserID: "u-1"})

	assert.Equal(t, "", Actor(bg))
	assert.Equal(t, "u-1", Actor(user))
	assert.Equal(t, "job:recount", Actor(WithJob(bg, "recount")))
	assert.Equal(t, "u-1", Actor(WithJob(user, "recount")), "the caller wins over the job")
}

func TestHasPermission(t *testing.T) {
	var anonymous *UserContext
	assert.False(t, anonymous.HasPermission("reports:read"))

	clerk := &UserContext{UserID: "u-1", Permissions: []string{"sales-orders:create"}}
	assert.True(t, clerk.HasPermission("sales-orders:create"))
	assert.False(t, clerk.HasPermission("sales-orders:delete"))

	admin := &UserContext{UserID: "a-1", IsAdmin: true}
	assert.True(t, admin.HasPermission("maintenance:update"))
}
