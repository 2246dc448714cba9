package models

import (
	"encoding/json"
	"fmt"
)

// Status represents where an order is in the kitchen cycle
type Status string

const (
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// Display colours for the status badge and the advance button.
const (
	ColorPreparing = "#f59e0b"
	ColorReady     = "#00d4aa"
	ColorDelivered = "#3498db"
	ColorUnknown   = "#7c3aed"
)

// legacyStatuses maps the labels written by the first version of the panel.
var legacyStatuses = map[string]Status{
	"hazırlanıyor":  StatusPreparing,
	"hazır":         StatusReady,
	"teslim edildi": StatusDelivered,
}

// NextStatus returns the status an order moves to when staff advance it.
// The cycle is preparing -> ready -> delivered -> preparing; any unrecognised
// value restarts at preparing.
func NextStatus(s Status) Status {
	switch s {
	case StatusPreparing:
		return StatusReady
	case StatusReady:
		return StatusDelivered
	case StatusDelivered:
		return StatusPreparing
	default:
		return StatusPreparing
	}
}

// StatusColor returns the badge colour for a status
func StatusColor(s Status) string {
	switch s {
	case StatusPreparing:
		return ColorPreparing
	case StatusReady:
		return ColorReady
	case StatusDelivered:
		return ColorDelivered
	default:
		return ColorUnknown
	}
}

// ParseStatus accepts canonical or legacy labels. Unknown values are returned as is.
func ParseStatus(raw string) Status {
	if s, ok := legacyStatuses[raw]; ok {
		return s
	}
	return Status(raw)
}

// Valid reports whether s is one of the three canonical statuses
func (s Status) Valid() bool {
	return s == StatusPreparing || s == StatusReady || s == StatusDelivered
}

// Order is a single meal (and optional drink) ordered by a user.
type Order struct {
	ID            int64  `json:"id" gorm:"primary_key"`
	UserID        int64  `json:"userId" gorm:"index;not null"`
	MealID        int64  `json:"foodId" gorm:"not null"`
	DrinkID       *int64 `json:"drinkId"`
	MealQuantity  int    `json:"foodQuantity"`
	DrinkQuantity int    `json:"drinkQuantity"`
	Date          string `json:"date" gorm:"type:varchar(10)"`
	Time          string `json:"time" gorm:"type:varchar(5)"`
	Status        Status `json:"status" gorm:"type:varchar(32);not null"`
}

// TableName sets the table name for Order
func (Order) TableName() string {
	return "orders"
}

// HasDrink reports whether a drink was ordered alongside the meal
func (o Order) HasDrink() bool {
	return o.DrinkID != nil && *o.DrinkID != 0
}

// MealCount is the meal quantity with the legacy default of one.
func (o Order) MealCount() int {
	if o.MealQuantity <= 0 {
		return 1
	}
	return o.MealQuantity
}

// DrinkCount is the drink quantity, one when a drink exists but no quantity was kept.
func (o Order) DrinkCount() int {
	if !o.HasDrink() {
		return 0
	}
	if o.DrinkQuantity <= 0 {
		return 1
	}
	return o.DrinkQuantity
}

// UnmarshalJSON also reads documents saved by the first version of the panel,
// which used a single "quantity" field and Turkish status labels.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var raw struct {
		plain
		Quantity *int `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode order: %w", err)
	}
	*o = Order(raw.plain)
	if o.MealQuantity == 0 && raw.Quantity != nil {
		o.MealQuantity = *raw.Quantity
	}
	o.Status = ParseStatus(string(o.Status))
	return nil
}
