package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2024-01-02T10:30:00Z"`, time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), false},
		{"rfc3339 offset", `"2024-01-02T12:30:00+02:00"`, time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), false},
		{"short date", `"2024-01-02"`, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"null", `null`, time.Time{}, false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"02/01/2024"`, time.Time{}, true},
		{"number", `20240102`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %s", d.Time)
		})
	}
}

func TestDate_PtrOmitsZero(t *testing.T) {
	var d *Date
	assert.Nil(t, d.Ptr())
	assert.Nil(t, (&Date{}).Ptr())

	set := NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, set.Ptr())
	assert.Equal(t, 2024, set.Ptr().Year())
}

func TestMultiply(t *testing.T) {
	price := decimal.RequireFromString("10.50")
	assert.True(t, decimal.RequireFromString("31.50").Equal(Multiply(price, 3)))
	assert.True(t, decimal.Zero.Equal(Multiply(price, 0)))
	assert.Equal(t, "0.33", Multiply(decimal.RequireFromString("0.333"), 1).String())
}
