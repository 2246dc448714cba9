package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from Status
		want Status
	}{
		{StatusPreparing, StatusReady},
		{StatusReady, StatusDelivered},
		{StatusDelivered, StatusPreparing},
		{"", StatusPreparing},
		{"cancelled", StatusPreparing},
	}
	for _, tt := range tests {
		if got := NextStatus(tt.from); got != tt.want {
			t.Errorf("NextStatus(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestNextStatusIsThreeCycle(t *testing.T) {
	for _, s := range []Status{StatusPreparing, StatusReady, StatusDelivered} {
		assert.Equal(t, s, NextStatus(NextStatus(NextStatus(s))))
	}
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "#f59e0b", StatusColor(StatusPreparing))
	assert.Equal(t, "#00d4aa", StatusColor(StatusReady))
	assert.Equal(t, "#3498db", StatusColor(StatusDelivered))
	assert.Equal(t, "#7c3aed", StatusColor("lost"))

	seen := map[string]bool{}
	for _, s := range []Status{StatusPreparing, StatusReady, StatusDelivered, "lost"} {
		seen[StatusColor(s)] = true
	}
	assert.Len(t, seen, 4, "fallback colour must differ from the canonical ones")
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPreparing, ParseStatus("hazırlanıyor"))
	assert.Equal(t, StatusReady, ParseStatus("hazır"))
	assert.Equal(t, StatusDelivered, ParseStatus("teslim edildi"))
	assert.Equal(t, StatusReady, ParseStatus("ready"))
	assert.Equal(t, Status("other"), ParseStatus("other"))
	assert.False(t, Status("other").Valid())
}

func TestOrderQuantities(t *testing.T) {
	drink := int64(4)

	o := Order{MealQuantity: 0}
	assert.Equal(t, 1, o.MealCount())
	assert.Equal(t, 0, o.DrinkCount())

	o = Order{MealQuantity: 3, DrinkID: &drink}
	assert.Equal(t, 3, o.MealCount())
	assert.Equal(t, 1, o.DrinkCount())

	o.DrinkQuantity = 2
	assert.Equal(t, 2, o.DrinkCount())
}

func TestOrderUnmarshalLegacy(t *testing.T) {
	raw := `{"id":4,"userId":4,"foodId":5,"quantity":2,"date":"2025-07-28","time":"14:00","status":"hazırlanıyor"}`

	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.Equal(t, int64(4), o.ID)
	assert.Equal(t, int64(5), o.MealID)
	assert.Equal(t, 2, o.MealQuantity)
	assert.Nil(t, o.DrinkID)
	assert.Equal(t, StatusPreparing, o.Status)
}

func TestOrderUnmarshalCurrent(t *testing.T) {
	raw := `{"id":9,"userId":1,"foodId":2,"drinkId":3,"foodQuantity":1,"drinkQuantity":2,"status":"ready"}`

	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	require.NotNil(t, o.DrinkID)
	assert.Equal(t, int64(3), *o.DrinkID)
	assert.Equal(t, 2, o.DrinkQuantity)
	assert.Equal(t, StatusReady, o.Status)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("drink")
	require.NoError(t, err)
	assert.Equal(t, "drinks", k.Table())
	assert.Equal(t, "drinks", k.StorageKey())

	k, err = ParseKind("meal")
	require.NoError(t, err)
	assert.Equal(t, "meals", k.Table())
	assert.Equal(t, "foods", k.StorageKey())

	_, err = ParseKind("dessert")
	assert.Error(t, err)
}
