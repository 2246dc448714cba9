package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"

	"mealdesk/internal/models"
)

// SQLStore is the relational table store: meals, drinks, profiles, orders and
// credentials, accessed through gorm.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore wraps an open, migrated gorm handle
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ListItems selects the catalog table for kind in insertion order
func (s *SQLStore) ListItems(ctx context.Context, kind models.CatalogKind) ([]models.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := []models.CatalogItem{}
	if err := s.db.Table(kind.Table()).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("select %s: %w", kind.Table(), err)
	}
	return items, nil
}

// InsertItem inserts a catalog row and returns it with the store-assigned id
func (s *SQLStore) InsertItem(ctx context.Context, kind models.CatalogKind, item models.CatalogItem) (models.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return models.CatalogItem{}, err
	}
	item.ID = 0
	if err := s.db.Table(kind.Table()).Create(&item).Error; err != nil {
		return models.CatalogItem{}, fmt.Errorf("insert into %s: %w", kind.Table(), err)
	}
	return item, nil
}

// DeleteItem deletes a catalog row by id
func (s *SQLStore) DeleteItem(ctx context.Context, kind models.CatalogKind, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Table(kind.Table()).Where("id = ?", id).Delete(&models.CatalogItem{})
	if res.Error != nil {
		return fmt.Errorf("delete from %s: %w", kind.Table(), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers selects all profiles
func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := s.db.Order("id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	return users, nil
}

// InsertUser inserts a profile. Its id must be the credential id.
func (s *SQLStore) InsertUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if user.ID == 0 {
		return models.User{}, errors.New("insert into profiles: profile id must match a credential id")
	}
	if err := s.db.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("insert into profiles: %w", err)
	}
	return user, nil
}

// DeleteUser deletes a profile by id
func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("delete from profiles: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders selects all orders
func (s *SQLStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orders := []models.Order{}
	if err := s.db.Order("id asc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

// InsertOrder inserts an order and returns it with the store-assigned id
func (s *SQLStore) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	order.ID = 0
	if err := s.db.Create(&order).Error; err != nil {
		return models.Order{}, fmt.Errorf("insert into orders: %w", err)
	}
	return order, nil
}

// UpdateOrder replaces every column of the order row
func (s *SQLStore) UpdateOrder(ctx context.Context, order models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"user_id":        order.UserID,
		"meal_id":        order.MealID,
		"drink_id":       order.DrinkID,
		"meal_quantity":  order.MealQuantity,
		"drink_quantity": order.DrinkQuantity,
		"date":           order.Date,
		"time":           order.Time,
		"status":         string(order.Status),
	})
	if res.Error != nil {
		return fmt.Errorf("update orders: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrder deletes an order by id
func (s *SQLStore) DeleteOrder(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return fmt.Errorf("delete from orders: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertCredential stores a login and returns its id
func (s *SQLStore) InsertCredential(ctx context.Context, cred models.Credential) (models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return models.Credential{}, err
	}
	var count int
	if err := s.db.Model(&models.Credential{}).Where("login = ?", cred.Login).Count(&count).Error; err != nil {
		return models.Credential{}, fmt.Errorf("select credentials: %w", err)
	}
	if count > 0 {
		return models.Credential{}, fmt.Errorf("login %q: %w", cred.Login, ErrDuplicate)
	}
	cred.ID = 0
	if err := s.db.Create(&cred).Error; err != nil {
		return models.Credential{}, fmt.Errorf("insert into credentials: %w", err)
	}
	return cred, nil
}

// FindCredential looks a login up by name
func (s *SQLStore) FindCredential(ctx context.Context, login string) (models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return models.Credential{}, err
	}
	var cred models.Credential
	err := s.db.Where("login = ?", login).First(&cred).Error
	if gorm.IsRecordNotFoundError(err) {
		return models.Credential{}, ErrNotFound
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("select credentials: %w", err)
	}
	return cred, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
