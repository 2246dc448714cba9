// Package store holds the persistence adapters behind the panel state.
// Exactly one adapter is active per process: the JSON file store or the
// relational table store.
package store

import (
	"context"
	"errors"

	"mealdesk/internal/models"
)

// ErrNotFound is returned when an update or delete targets a missing row.
var ErrNotFound = errors.New("record not found")

// Store is the storage capability injected into the panel. Inserts return the
// record as persisted, including the identifier assigned by the store.
type Store interface {
	ListItems(ctx context.Context, kind models.CatalogKind) ([]models.CatalogItem, error)
	InsertItem(ctx context.Context, kind models.CatalogKind, item models.CatalogItem) (models.CatalogItem, error)
	DeleteItem(ctx context.Context, kind models.CatalogKind, id int64) error

	ListUsers(ctx context.Context) ([]models.User, error)
	InsertUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	ListOrders(ctx context.Context) ([]models.Order, error)
	InsertOrder(ctx context.Context, order models.Order) (models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	DeleteOrder(ctx context.Context, id int64) error

	Close() error
}

// CredentialStore backs the auth service. Both adapters implement it.
type CredentialStore interface {
	InsertCredential(ctx context.Context, cred models.Credential) (models.Credential, error)
	FindCredential(ctx context.Context, login string) (models.Credential, error)
}
