package panel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealdesk/internal/models"
)

func ptr(v int64) *int64 { return &v }

func sampleState() State {
	return State{
		Foods: []models.CatalogItem{
			{ID: 1, Name: "Pizza"},
			{ID: 2, Name: "Tost"},
		},
		Drinks: []models.CatalogItem{
			{ID: 10, Name: "Çay"},
			{ID: 11, Name: "Ayran"},
		},
		Users: []models.User{
			{ID: 100, Name: "Neslihan", Office: "Ofis 1"},
			{ID: 101, Name: "Elif", Office: "Ofis 1"},
			{ID: 102, Name: "Şeval", Office: "Ofis 2"},
		},
		Orders: []models.Order{
			{ID: 1, UserID: 100, MealID: 1, MealQuantity: 2, DrinkID: ptr(10), DrinkQuantity: 1, Status: models.StatusPreparing},
			{ID: 2, UserID: 101, MealID: 1, MealQuantity: 1, Status: models.StatusDelivered},
			{ID: 3, UserID: 102, MealID: 2, MealQuantity: 1, DrinkID: ptr(11), Status: models.StatusReady},
			{ID: 4, UserID: 100, MealID: 99, DrinkID: ptr(11), DrinkQuantity: 3, Status: models.StatusReady},
			{ID: 5, UserID: 555, MealID: 2, Status: models.StatusPreparing},
			{ID: 6, UserID: 101, MealID: 2, DrinkID: ptr(98), Status: models.StatusReady},
		},
	}
}

func TestOfficeOrderTotals(t *testing.T) {
	s := sampleState()

	assert.Equal(t, map[string]int{"Pizza": 3, "Çay": 1, "Ayran": 3, "Tost": 1}, OfficeOrderTotals(s, "Ofis 1"))
	assert.Equal(t, map[string]int{"Tost": 1, "Ayran": 1}, OfficeOrderTotals(s, "Ofis 2"))
	assert.Empty(t, OfficeOrderTotals(s, "Ofis 3"))
}

func TestOfficeOrderTotalsOnlyOfficeUsers(t *testing.T) {
	s := sampleState()
	for _, office := range []string{"Ofis 1", "Ofis 2", "Ofis 3"} {
		totals := OfficeOrderTotals(s, office)

		// every counted unit comes from a resolved side of an order placed in this office
		want := 0
		for _, o := range s.Orders {
			var user *models.User
			for i := range s.Users {
				if s.Users[i].ID == o.UserID {
					user = &s.Users[i]
				}
			}
			if user == nil || user.Office != office {
				continue
			}
			for _, f := range s.Foods {
				if f.ID == o.MealID {
					want += o.MealCount()
				}
			}
			if o.HasDrink() {
				for _, d := range s.Drinks {
					if d.ID == *o.DrinkID {
						want += o.DrinkCount()
					}
				}
			}
		}
		got := 0
		for _, n := range totals {
			got += n
		}
		assert.Equal(t, want, got, office)
	}
}

func TestAllOfficeTotals(t *testing.T) {
	all := AllOfficeTotals(sampleState(), []string{"Ofis 1", "Ofis 3"})
	assert.Len(t, all, 2)
	assert.Empty(t, all["Ofis 3"])
}

func TestPendingOrderView(t *testing.T) {
	view := PendingOrderView(sampleState())

	var ids []int64
	for _, row := range view {
		ids = append(ids, row.ID)
		assert.NotEqual(t, models.StatusDelivered, row.Status)
	}
	// 2 is delivered, 4 has no meal, 5 has no user
	assert.Equal(t, []int64{1, 3, 6}, ids)

	first := view[0]
	assert.Equal(t, "Neslihan", first.UserName)
	assert.Equal(t, "Pizza", first.MealName)
	assert.Equal(t, 2, first.MealQuantity)
	assert.Equal(t, "Çay", first.DrinkName)
	assert.Equal(t, 1, first.DrinkQuantity)
	assert.Equal(t, models.ColorPreparing, first.Color)
	assert.Equal(t, models.StatusReady, first.NextStatus)
	assert.Equal(t, models.ColorReady, first.NextColor)

	assert.Equal(t, "Ayran", view[1].DrinkName)
	assert.Equal(t, 1, view[1].DrinkQuantity)
	assert.Empty(t, view[2].DrinkName, "dangling drink is shown as absent")
}

func TestPendingOrderViewEmpty(t *testing.T) {
	view := PendingOrderView(State{})
	assert.NotNil(t, view)
	assert.Empty(t, view)
}

func TestItemDetail(t *testing.T) {
	s := sampleState()

	stats, ok := ItemDetail(s, models.KindMeal, 1)
	require.True(t, ok)
	assert.Equal(t, 2, stats.OrderCount)
	assert.Equal(t, 3, stats.TotalQuantity)
	assert.Len(t, stats.Users, 2)
	assert.Equal(t, map[models.Status]int{models.StatusPreparing: 1, models.StatusDelivered: 1}, stats.ByStatus)
	require.Len(t, stats.Recent, 2)
	assert.Equal(t, int64(2), stats.Recent[0].ID, "newest first")

	stats, ok = ItemDetail(s, models.KindDrink, 11)
	require.True(t, ok)
	assert.Equal(t, 2, stats.OrderCount)
	assert.Equal(t, 4, stats.TotalQuantity)

	_, ok = ItemDetail(s, models.KindDrink, 1)
	assert.False(t, ok, "ids are looked up in the matching catalog only")
}

func TestItemDetailKeepsFiveRecent(t *testing.T) {
	s := State{Foods: []models.CatalogItem{{ID: 1, Name: "Soup"}}}
	for i := int64(1); i <= 8; i++ {
		s.Orders = append(s.Orders, models.Order{ID: i, UserID: 1, MealID: 1, Status: models.StatusPreparing})
	}
	stats, ok := ItemDetail(s, models.KindMeal, 1)
	require.True(t, ok)
	require.Len(t, stats.Recent, 5)
	assert.Equal(t, int64(8), stats.Recent[0].ID)
	assert.Equal(t, int64(4), stats.Recent[4].ID)
}

func TestEndToEndAdaOrdersSoup(t *testing.T) {
	p, _ := newTestPanel(t)
	ctx := context.Background()

	ada, err := p.AddUser(ctx, models.User{Name: "Ada", Office: models.OfficeLabel(1)})
	require.NoError(t, err)
	soup, err := p.AddItem(ctx, models.KindMeal, CatalogForm{Name: "Soup"})
	require.NoError(t, err)
	order, err := p.AddOrder(ctx, OrderForm{UserID: ada.ID, MealID: soup.ID})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Soup": 1}, OfficeOrderTotals(p.State(), "Ofis 1"))
	view := PendingOrderView(p.State())
	require.Len(t, view, 1)
	assert.Equal(t, models.StatusPreparing, view[0].Status)

	_, err = p.AdvanceOrder(ctx, order.ID)
	require.NoError(t, err)
	delivered, err := p.AdvanceOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)

	assert.Empty(t, PendingOrderView(p.State()))
	assert.Equal(t, map[string]int{"Soup": 1}, OfficeOrderTotals(p.State(), "Ofis 1"), "delivered orders still count")
}
