// Package seed fills an empty desk with the default catalog, staff and a few
// sample orders.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mealdesk/internal/auth"
	"mealdesk/internal/models"
	"mealdesk/internal/panel"
)

// DefaultMeals is the starter meal catalog. The first entry lets a user order only a drink.
var DefaultMeals = []string{
	"İstemiyorum",
	"Soğuk Sandviç",
	"Domates-Peynir Tost",
	"Karışık Tost",
	"Pizza",
	"Hamburger",
	"Patates Kızartması",
	"Sezar Salata",
	"Ton Balıklı Salata",
	"Tavuk Döner",
}

var DefaultDrinks = []string{
	"Su",
	"Çay",
	"Kahve",
	"Kola",
	"Ayran",
	"Meyve Suyu",
	"Soda",
	"Limonata",
}

var DefaultUsers = []panel.UserForm{
	{Name: "Neslihan Lokman", Office: "Ofis 1", Password: "123"},
	{Name: "Elif Sakar", Office: "Ofis 1", Password: "admin"},
	{Name: "Şeval Pöze", Office: "Ofis 2", Password: "456"},
	{Name: "Adem Köse", Office: "Ofis 3", Password: "789"},
	{Name: "Eymen Köse", Office: "Ofis 3", Password: "101"},
	{Name: "Emine Ceri", Office: "Ofis 2", Password: "123456"},
	{Name: "Deniz Aren Toy", Office: "Ofis 3", Password: "101"},
}

// sampleOrder refers to users and meals by their position in the default lists.
type sampleOrder struct {
	user, meal int
	quantity   int
	date, time string
	status     models.Status
}

var sampleOrders = []sampleOrder{
	{0, 3, 1, "2025-07-28", "12:30", models.StatusPreparing},
	{0, 1, 1, "2025-07-28", "12:30", models.StatusReady},
	{2, 1, 1, "2025-07-28", "13:15", models.StatusDelivered},
	{3, 4, 2, "2025-07-28", "14:00", models.StatusPreparing},
	{4, 5, 1, "2025-07-28", "14:30", models.StatusReady},
	{4, 2, 1, "2025-07-28", "14:30", models.StatusPreparing},
}

// Run seeds every collection that is still empty. Sample orders are added only
// when users and meals were seeded in the same run, so their references resolve.
func Run(ctx context.Context, p *panel.Panel, svc *auth.Service, logger *log.Logger) error {
	var meals []models.CatalogItem
	if len(p.Foods()) == 0 {
		for _, name := range DefaultMeals {
			it, err := p.AddItem(ctx, models.KindMeal, panel.CatalogForm{Name: name})
			if err != nil {
				return fmt.Errorf("seed meals: %w", err)
			}
			meals = append(meals, it)
		}
		logger.Printf("seeded %d meals", len(meals))
	}

	if len(p.Drinks()) == 0 {
		for _, name := range DefaultDrinks {
			if _, err := p.AddItem(ctx, models.KindDrink, panel.CatalogForm{Name: name}); err != nil {
				return fmt.Errorf("seed drinks: %w", err)
			}
		}
		logger.Printf("seeded %d drinks", len(DefaultDrinks))
	}

	var users []models.User
	if len(p.Users()) == 0 {
		for _, form := range DefaultUsers {
			u, err := svc.Register(ctx, form)
			if errors.Is(err, auth.ErrLoginTaken) {
				logger.Printf("seed user %q: credential exists without profile, skipping", form.Name)
				continue
			}
			if err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
			users = append(users, u)
		}
		logger.Printf("seeded %d users", len(users))
	}

	if len(p.Orders()) > 0 || len(meals) != len(DefaultMeals) || len(users) != len(DefaultUsers) {
		return nil
	}
	for _, so := range sampleOrders {
		o, err := p.AddOrder(ctx, panel.OrderForm{
			UserID:       users[so.user].ID,
			MealID:       meals[so.meal].ID,
			MealQuantity: so.quantity,
			Date:         so.date,
			Time:         so.time,
		})
		if err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}
		if so.status != o.Status {
			if _, err := p.UpdateOrderStatus(ctx, o.ID, so.status); err != nil {
				return fmt.Errorf("seed orders: %w", err)
			}
		}
	}
	logger.Printf("seeded %d orders", len(sampleOrders))
	return nil
}
