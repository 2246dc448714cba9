package seed

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealdesk/internal/auth"
	"mealdesk/internal/config"
	"mealdesk/internal/database"
	"mealdesk/internal/models"
	"mealdesk/internal/panel"
	"mealdesk/internal/store"
)

var quiet = log.New(io.Discard, "", 0)

func TestRunSeedsEmptyFileStore(t *testing.T) {
	ctx := context.Background()
	fs, err := store.OpenFile("", nil)
	require.NoError(t, err)
	p := panel.New(fs, panel.WithLogger(quiet))
	svc := auth.NewService(fs, p, "s", time.Hour, quiet)

	require.NoError(t, Run(ctx, p, svc, quiet))

	assert.Len(t, p.Foods(), len(DefaultMeals))
	assert.Len(t, p.Drinks(), len(DefaultDrinks))
	assert.Len(t, p.Users(), len(DefaultUsers))
	require.Len(t, p.Orders(), len(sampleOrders))

	state := p.State()
	assert.Equal(t, map[string]int{"Karışık Tost": 1, "Soğuk Sandviç": 1}, panel.OfficeOrderTotals(state, "Ofis 1"))
	assert.Equal(t, map[string]int{"Pizza": 2, "Hamburger": 1, "Domates-Peynir Tost": 1}, panel.OfficeOrderTotals(state, "Ofis 3"))
	assert.Len(t, panel.PendingOrderView(state), 5, "one sample order is delivered")

	_, err = svc.Login(ctx, "Elif Sakar", "admin")
	assert.NoError(t, err)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs, err := store.OpenFile("", nil)
	require.NoError(t, err)
	p := panel.New(fs, panel.WithLogger(quiet))
	svc := auth.NewService(fs, p, "s", time.Hour, quiet)

	require.NoError(t, Run(ctx, p, svc, quiet))
	require.NoError(t, Run(ctx, p, svc, quiet))

	assert.Len(t, p.Foods(), len(DefaultMeals))
	assert.Len(t, p.Orders(), len(sampleOrders))
}

func TestRunSkipsOrdersForExistingCatalog(t *testing.T) {
	ctx := context.Background()
	fs, err := store.OpenFile("", nil)
	require.NoError(t, err)
	p := panel.New(fs, panel.WithLogger(quiet))
	svc := auth.NewService(fs, p, "s", time.Hour, quiet)

	_, err = p.AddItem(ctx, models.KindMeal, panel.CatalogForm{Name: "Soup"})
	require.NoError(t, err)

	require.NoError(t, Run(ctx, p, svc, quiet))
	assert.Len(t, p.Foods(), 1)
	assert.Len(t, p.Users(), len(DefaultUsers))
	assert.Empty(t, p.Orders())
}

func TestRunOnSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	s := store.NewSQLStore(db)
	defer s.Close()

	p := panel.New(s, panel.WithLogger(quiet))
	svc := auth.NewService(s, p, "s", time.Hour, quiet)
	require.NoError(t, Run(ctx, p, svc, quiet))

	reloaded := panel.New(s, panel.WithLogger(quiet))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, p.State(), reloaded.State())

	statuses := map[models.Status]int{}
	for _, o := range reloaded.Orders() {
		statuses[o.Status]++
	}
	assert.Equal(t, map[models.Status]int{models.StatusPreparing: 3, models.StatusReady: 2, models.StatusDelivered: 1}, statuses)
}
