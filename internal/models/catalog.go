package models

import "fmt"

// CatalogKind selects one of the two parallel catalog collections
type CatalogKind string

const (
	KindMeal  CatalogKind = "meal"
	KindDrink CatalogKind = "drink"
)

// CatalogItem is a meal or drink offered for order. Both collections share this shape.
type CatalogItem struct {
	ID          int64  `json:"id" gorm:"primary_key"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
}

// ParseKind validates a kind coming from a URL or form
func ParseKind(raw string) (CatalogKind, error) {
	switch CatalogKind(raw) {
	case KindMeal, KindDrink:
		return CatalogKind(raw), nil
	}
	return "", fmt.Errorf("unknown catalog kind %q", raw)
}

// Table is the relational table backing the kind
func (k CatalogKind) Table() string {
	if k == KindDrink {
		return "drinks"
	}
	return "meals"
}

// StorageKey is the top-level key used by the file store
func (k CatalogKind) StorageKey() string {
	if k == KindDrink {
		return "drinks"
	}
	return "foods"
}
