package panel

import (
	"mealdesk/internal/models"
)

// PendingOrder is one row of the pending-order list
type PendingOrder struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"userId"`
	UserName      string        `json:"userName"`
	MealName      string        `json:"foodName"`
	MealQuantity  int           `json:"foodQuantity"`
	DrinkName     string        `json:"drinkName,omitempty"`
	DrinkQuantity int           `json:"drinkQuantity"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Status        models.Status `json:"status"`
	Color         string        `json:"color"`
	NextStatus    models.Status `json:"nextStatus"`
	NextColor     string        `json:"nextColor"`
}

// ItemStats summarises the orders placed for one catalog item
type ItemStats struct {
	Item          models.CatalogItem    `json:"item"`
	Kind          models.CatalogKind    `json:"kind"`
	OrderCount    int                   `json:"orderCount"`
	TotalQuantity int                   `json:"totalQuantity"`
	Users         []models.User         `json:"users"`
	ByStatus      map[models.Status]int `json:"byStatus"`
	Recent        []models.Order        `json:"recent"`
}

const recentOrders = 5

type index struct {
	users  map[int64]models.User
	foods  map[int64]models.CatalogItem
	drinks map[int64]models.CatalogItem
}

func newIndex(s State) index {
	idx := index{
		users:  make(map[int64]models.User, len(s.Users)),
		foods:  make(map[int64]models.CatalogItem, len(s.Foods)),
		drinks: make(map[int64]models.CatalogItem, len(s.Drinks)),
	}
	for _, u := range s.Users {
		idx.users[u.ID] = u
	}
	for _, f := range s.Foods {
		idx.foods[f.ID] = f
	}
	for _, d := range s.Drinks {
		idx.drinks[d.ID] = d
	}
	return idx
}

// OfficeOrderTotals counts meals and drinks by name across the orders of every
// user in office. Delivered orders count too. A side whose catalog item no
// longer exists contributes nothing.
func OfficeOrderTotals(s State, office string) map[string]int {
	inOffice := make(map[int64]bool)
	for _, u := range s.Users {
		if u.Office == office {
			inOffice[u.ID] = true
		}
	}

	idx := newIndex(s)
	totals := make(map[string]int)
	for _, o := range s.Orders {
		if !inOffice[o.UserID] {
			continue
		}
		if meal, ok := idx.foods[o.MealID]; ok {
			totals[meal.Name] += o.MealCount()
		}
		if o.HasDrink() {
			if drink, ok := idx.drinks[*o.DrinkID]; ok {
				totals[drink.Name] += o.DrinkCount()
			}
		}
	}
	return totals
}

// AllOfficeTotals runs OfficeOrderTotals for every office label
func AllOfficeTotals(s State, offices []string) map[string]map[string]int {
	out := make(map[string]map[string]int, len(offices))
	for _, office := range offices {
		out[office] = OfficeOrderTotals(s, office)
	}
	return out
}

// PendingOrderView lists undelivered orders whose user and meal still exist,
// in collection order.
func PendingOrderView(s State) []PendingOrder {
	idx := newIndex(s)
	view := []PendingOrder{}
	for _, o := range s.Orders {
		if o.Status == models.StatusDelivered {
			continue
		}
		user, ok := idx.users[o.UserID]
		if !ok {
			continue
		}
		meal, ok := idx.foods[o.MealID]
		if !ok {
			continue
		}

		row := PendingOrder{
			ID:           o.ID,
			UserID:       o.UserID,
			UserName:     user.Name,
			MealName:     meal.Name,
			MealQuantity: o.MealCount(),
			Date:         o.Date,
			Time:         o.Time,
			Status:       o.Status,
			Color:        models.StatusColor(o.Status),
			NextStatus:   models.NextStatus(o.Status),
		}
		row.NextColor = models.StatusColor(row.NextStatus)
		if o.HasDrink() {
			if drink, ok := idx.drinks[*o.DrinkID]; ok {
				row.DrinkName = drink.Name
				row.DrinkQuantity = o.DrinkCount()
			}
		}
		view = append(view, row)
	}
	return view
}

// ItemDetail collects the order history of one meal or drink. ok is false
// when the item is not in the catalog.
func ItemDetail(s State, kind models.CatalogKind, id int64) (ItemStats, bool) {
	items := s.Foods
	if kind == models.KindDrink {
		items = s.Drinks
	}
	var (
		item  models.CatalogItem
		found bool
	)
	for _, it := range items {
		if it.ID == id {
			item, found = it, true
			break
		}
	}
	if !found {
		return ItemStats{}, false
	}

	stats := ItemStats{
		Item:     item,
		Kind:     kind,
		Users:    []models.User{},
		ByStatus: make(map[models.Status]int),
		Recent:   []models.Order{},
	}
	var matched []models.Order
	userIDs := make(map[int64]bool)
	for _, o := range s.Orders {
		switch {
		case kind == models.KindMeal && o.MealID == id:
			stats.TotalQuantity += o.MealCount()
		case kind == models.KindDrink && o.HasDrink() && *o.DrinkID == id:
			stats.TotalQuantity += o.DrinkCount()
		default:
			continue
		}
		matched = append(matched, o)
		userIDs[o.UserID] = true
		stats.ByStatus[o.Status]++
	}
	stats.OrderCount = len(matched)

	for _, u := range s.Users {
		if userIDs[u.ID] {
			stats.Users = append(stats.Users, u)
		}
	}
	for i := len(matched) - 1; i >= 0 && len(stats.Recent) < recentOrders; i-- {
		stats.Recent = append(stats.Recent, matched[i])
	}
	return stats, true
}
