package postgres

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJudge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	base := IdempotencyRecord{
		UserID:      "u-1",
		Operation:   "POST /api/v1/sales-orders",
		RequestHash: "abc",
		Status:      IdempotencyStatusPending,
		UpdatedAt:   now.Add(-10 * time.Second),
	}

	tests := []struct {
		name string
		edit func(r *IdempotencyRecord)
		want claimOutcome
	}{
		{"in flight", func(*IdempotencyRecord) {}, claimBusy},
		{"stale pending", func(r *IdempotencyRecord) { r.UpdatedAt = now.Add(-2 * time.Minute) }, claimReclaim},
		{"finished", func(r *IdempotencyRecord) { r.Status = IdempotencyStatusSuccess }, claimReplay},
		{"failed is replayed too", func(r *IdempotencyRecord) { r.Status = IdempotencyStatusFailed }, claimReplay},
		{"other user", func(r *IdempotencyRecord) { r.UserID = "u-2" }, claimMismatch},
		{"other route", func(r *IdempotencyRecord) { r.Operation = "POST /api/v1/purchases" }, claimMismatch},
		{"other body", func(r *IdempotencyRecord) { r.RequestHash = "def" }, claimMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.edit(&rec)
			assert.Equal(t, tt.want, judge(rec, "u-1", "POST /api/v1/sales-orders", "abc", now))
		})
	}
}

func TestIdempotencyRecord_ReplayDefaults(t *testing.T) {
	r := IdempotencyRecord{Response: []byte(`{}`)}.replay()
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "application/json", r.ContentType)

	r = IdempotencyRecord{StatusCode: http.StatusCreated, ContentType: "text/plain"}.replay()
	assert.Equal(t, http.StatusCreated, r.StatusCode)
	assert.Equal(t, "text/plain", r.ContentType)
}
