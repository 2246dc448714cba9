package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealdesk/internal/models"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestClockIDsAreIncreasing(t *testing.T) {
	ids := NewClockIDs(fixedClock(1000))

	a := ids.Next()
	b := ids.Next()
	assert.Equal(t, int64(1000), a)
	assert.Equal(t, int64(1001), b)

	ids.Observe(5000)
	assert.Equal(t, int64(5001), ids.Next())
}

func TestFileStoreMemoryMode(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile("", NewClockIDs(fixedClock(10)))
	require.NoError(t, err)

	items, err := s.ListItems(ctx, models.KindMeal)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotContains(t, s.doc, KeyFoods)

	soup, err := s.InsertItem(ctx, models.KindMeal, models.CatalogItem{Name: "Soup"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), soup.ID)
	assert.Contains(t, s.doc, KeyFoods)

	drinks, err := s.ListItems(ctx, models.KindDrink)
	require.NoError(t, err)
	assert.Empty(t, drinks, "meals and drinks are separate collections")
}

func TestFileStoreDeleteOnlyTarget(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile("", nil)
	require.NoError(t, err)

	var inserted []models.CatalogItem
	for _, name := range []string{"Tea", "Coffee", "Ayran"} {
		it, err := s.InsertItem(ctx, models.KindDrink, models.CatalogItem{Name: name})
		require.NoError(t, err)
		inserted = append(inserted, it)
	}

	require.NoError(t, s.DeleteItem(ctx, models.KindDrink, inserted[1].ID))

	left, err := s.ListItems(ctx, models.KindDrink)
	require.NoError(t, err)
	assert.Equal(t, []models.CatalogItem{inserted[0], inserted[2]}, left)

	err = s.DeleteItem(ctx, models.KindDrink, inserted[1].ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStoreOrders(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile("", nil)
	require.NoError(t, err)

	o, err := s.InsertOrder(ctx, models.Order{UserID: 1, MealID: 2, MealQuantity: 1, Status: models.StatusPreparing})
	require.NoError(t, err)
	require.NotZero(t, o.ID)

	o.Status = models.StatusReady
	require.NoError(t, s.UpdateOrder(ctx, o))

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusReady, orders[0].Status)

	assert.ErrorIs(t, s.UpdateOrder(ctx, models.Order{ID: 999}), ErrNotFound)
	require.NoError(t, s.DeleteOrder(ctx, o.ID))
	assert.ErrorIs(t, s.DeleteOrder(ctx, o.ID), ErrNotFound)
}

func TestFileStoreUsersAndCredentials(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile("", nil)
	require.NoError(t, err)

	cred, err := s.InsertCredential(ctx, models.Credential{Login: "Ada", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = s.InsertCredential(ctx, models.Credential{Login: "Ada", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := s.InsertUser(ctx, models.User{ID: cred.ID, Name: "Ada", Office: "Ofis 1"})
	require.NoError(t, err)
	assert.Equal(t, cred.ID, u.ID)

	_, err = s.InsertUser(ctx, models.User{ID: cred.ID, Name: "Ada again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := s.FindCredential(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, cred, found)

	_, err = s.FindCredential(ctx, "Bob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "mealdesk.json")

	s, err := OpenFile(path, nil)
	require.NoError(t, err)
	pizza, err := s.InsertItem(ctx, models.KindMeal, models.CatalogItem{Name: "Pizza", Description: "margherita"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenFile(path, nil)
	require.NoError(t, err)
	meals, err := reopened.ListItems(ctx, models.KindMeal)
	require.NoError(t, err)
	assert.Equal(t, []models.CatalogItem{pizza}, meals)

	next, err := reopened.InsertItem(ctx, models.KindMeal, models.CatalogItem{Name: "Tost"})
	require.NoError(t, err)
	assert.Greater(t, next.ID, pizza.ID, "ids keep increasing after reopen")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed away")
}

func TestFileStoreReadsLegacyDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.json")
	doc := `{
  "foods": [{"id": 5, "name": "Pizza"}],
  "users": [{"id": 4, "name": "Adem Köse", "office": "Ofis 3", "password": "789"}],
  "orders": [{"id": 4, "userId": 4, "foodId": 5, "quantity": 2, "date": "2025-07-28", "time": "14:00", "status": "hazır"}]
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := OpenFile(path, nil)
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ofis 3", users[0].Office)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].MealQuantity)
	assert.Equal(t, models.StatusReady, orders[0].Status)
}

func TestFileStoreRejectsCancelledContext(t *testing.T) {
	s, err := OpenFile("", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.InsertItem(ctx, models.KindMeal, models.CatalogItem{Name: "Soup"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, s.doc, KeyFoods)
}
