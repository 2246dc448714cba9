package panel

import (
	"fmt"
	"strings"
	"time"

	"mealdesk/internal/models"
)

// CatalogForm is the add form shared by meals and drinks
type CatalogForm struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

func (f CatalogForm) item() (models.CatalogItem, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return models.CatalogItem{}, fmt.Errorf("%w: name is required", ErrIncomplete)
	}
	return models.CatalogItem{Name: name, Description: strings.TrimSpace(f.Description)}, nil
}

// UserForm is the registration form. The password only reaches the credential store.
// Login is optional and defaults to the name, so staff sharing a name register
// with distinct logins.
type UserForm struct {
	Name     string `json:"name" form:"name"`
	Login    string `json:"login" form:"login"`
	Office   string `json:"office" form:"office"`
	Password string `json:"password" form:"password"`
}

// LoginName is the trimmed login, or the name when no login was given
func (f UserForm) LoginName() string {
	if login := strings.TrimSpace(f.Login); login != "" {
		return login
	}
	return strings.TrimSpace(f.Name)
}

// Validate requires all three fields
func (f UserForm) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(f.Office) == "" {
		missing = append(missing, "office")
	}
	if f.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// OrderForm is the order placement form. A zero DrinkID means no drink;
// empty Date and Time are filled from the panel clock.
type OrderForm struct {
	UserID        int64  `json:"userId" form:"userId"`
	MealID        int64  `json:"foodId" form:"foodId"`
	DrinkID       int64  `json:"drinkId" form:"drinkId"`
	MealQuantity  int    `json:"foodQuantity" form:"foodQuantity"`
	DrinkQuantity int    `json:"drinkQuantity" form:"drinkQuantity"`
	Date          string `json:"date" form:"date"`
	Time          string `json:"time" form:"time"`
}

func (f OrderForm) order(now time.Time) (models.Order, error) {
	if f.UserID == 0 || f.MealID == 0 {
		return models.Order{}, fmt.Errorf("%w: user and meal are required", ErrIncomplete)
	}
	o := models.Order{
		UserID:       f.UserID,
		MealID:       f.MealID,
		MealQuantity: f.MealQuantity,
		Date:         strings.TrimSpace(f.Date),
		Time:         strings.TrimSpace(f.Time),
		Status:       models.StatusPreparing,
	}
	if o.MealQuantity < 1 {
		o.MealQuantity = 1
	}
	if f.DrinkID != 0 {
		drink := f.DrinkID
		o.DrinkID = &drink
		o.DrinkQuantity = f.DrinkQuantity
		if o.DrinkQuantity < 1 {
			o.DrinkQuantity = 1
		}
	}
	if o.Date == "" {
		o.Date = now.Format("2006-01-02")
	}
	if o.Time == "" {
		o.Time = now.Format("15:04")
	}
	return o, nil
}
