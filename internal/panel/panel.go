// Package panel owns the in-memory meals, drinks, users and orders of the desk
// and keeps them in step with the active store.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"mealdesk/internal/models"
	"mealdesk/internal/store"
)

var (
	// ErrIncomplete is returned when a form lacks a required field. Nothing is stored.
	ErrIncomplete = errors.New("incomplete form")
	// ErrNotFound is returned when the id is not in the in-memory collection.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus is returned for a status outside the order cycle.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Entity names used in events and metrics.
const (
	EntityMeal  = "meal"
	EntityDrink = "drink"
	EntityUser  = "user"
	EntityOrder = "order"
)

// EventKind tells listeners what happened to an entity
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventDeleted EventKind = "deleted"
	EventStatus  EventKind = "status"
)

// Event is emitted after every successful write
type Event struct {
	Kind   EventKind     `json:"kind"`
	Entity string        `json:"entity"`
	ID     int64         `json:"id"`
	Status models.Status `json:"status,omitempty"`
	At     time.Time     `json:"at"`
}

// Notifier receives panel events
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Observer is told about every write attempt and the resulting collections.
type Observer interface {
	ObserveWrite(entity, op string, err error)
	ObserveState(s State)
}

// State is a value copy of the four collections
type State struct {
	Foods  []models.CatalogItem `json:"foods"`
	Drinks []models.CatalogItem `json:"drinks"`
	Users  []models.User        `json:"users"`
	Orders []models.Order       `json:"orders"`
}

func (s State) clone() State {
	return State{
		Foods:  slices.Clone(s.Foods),
		Drinks: slices.Clone(s.Drinks),
		Users:  slices.Clone(s.Users),
		Orders: cloneOrders(s.Orders),
	}
}

func cloneOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i, o := range orders {
		if o.DrinkID != nil {
			d := *o.DrinkID
			o.DrinkID = &d
		}
		out[i] = o
	}
	return out
}

// Option configures a Panel
type Option func(*Panel)

// WithLogger replaces the default stderr logger
func WithLogger(l *log.Logger) Option {
	return func(p *Panel) { p.log = l }
}

// WithNotifier sets the event listener
func WithNotifier(n Notifier) Option {
	return func(p *Panel) { p.notifier = n }
}

// WithObserver sets the metrics hook
func WithObserver(o Observer) Option {
	return func(p *Panel) { p.observer = o }
}

// WithClock sets the clock used for default order dates and event times
func WithClock(now func() time.Time) Option {
	return func(p *Panel) { p.now = now }
}

// WithOffices restricts registration to the given office labels
func WithOffices(offices []string) Option {
	return func(p *Panel) { p.offices = slices.Clone(offices) }
}

// Panel owns the desk state. Writes are serialised by writeMu and go to the
// store first; memory changes only after the store accepts it. The state is
// mutated only with both locks held, so readers wait for the apply step and
// never for a store round trip.
type Panel struct {
	writeMu  sync.Mutex
	mu       sync.RWMutex
	store    store.Store
	state    State
	offices  []string
	log      *log.Logger
	notifier Notifier
	observer Observer
	now      func() time.Time
}

// New creates an empty panel over s. Call Load to read the stored collections.
func New(s store.Store, opts ...Option) *Panel {
	p := &Panel{
		store:   s,
		offices: slices.Clone(models.DefaultOffices),
		log:     log.New(os.Stderr, "[panel] ", log.LstdFlags),
		now:     time.Now,
		state: State{
			Foods:  []models.CatalogItem{},
			Drinks: []models.CatalogItem{},
			Users:  []models.User{},
			Orders: []models.Order{},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Offices returns the office labels users can register under
func (p *Panel) Offices() []string {
	return slices.Clone(p.offices)
}

// Load replaces the in-memory collections with the store contents. On error
// the previous collections are kept.
func (p *Panel) Load(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	foods, err := p.store.ListItems(ctx, models.KindMeal)
	if err != nil {
		return p.failed(EntityMeal, "load", err)
	}
	drinks, err := p.store.ListItems(ctx, models.KindDrink)
	if err != nil {
		return p.failed(EntityDrink, "load", err)
	}
	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return p.failed(EntityUser, "load", err)
	}
	orders, err := p.store.ListOrders(ctx)
	if err != nil {
		return p.failed(EntityOrder, "load", err)
	}

	p.apply(func(s *State) {
		*s = State{Foods: foods, Drinks: drinks, Users: users, Orders: orders}
	})
	p.observeState()
	p.log.Printf("loaded %d meals, %d drinks, %d users, %d orders", len(foods), len(drinks), len(users), len(orders))
	return nil
}

// State returns a copy of all four collections
func (p *Panel) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.clone()
}

// Foods returns a copy of the meal catalog
func (p *Panel) Foods() []models.CatalogItem {
	return p.Items(models.KindMeal)
}

// Drinks returns a copy of the drink catalog
func (p *Panel) Drinks() []models.CatalogItem {
	return p.Items(models.KindDrink)
}

// Items returns a copy of the catalog for kind
func (p *Panel) Items(kind models.CatalogKind) []models.CatalogItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(*p.state.catalog(kind))
}

// Users returns a copy of the user list
func (p *Panel) Users() []models.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.state.Users)
}

// Orders returns a copy of the order list
func (p *Panel) Orders() []models.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneOrders(p.state.Orders)
}

func (s *State) catalog(kind models.CatalogKind) *[]models.CatalogItem {
	if kind == models.KindDrink {
		return &s.Drinks
	}
	return &s.Foods
}

// apply mutates the state under the state lock. Callers hold writeMu, which
// also makes their unlocked reads of p.state safe.
func (p *Panel) apply(fn func(s *State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
}

func entityOf(kind models.CatalogKind) string {
	if kind == models.KindDrink {
		return EntityDrink
	}
	return EntityMeal
}

// AddItem validates the form and inserts a meal or drink
func (p *Panel) AddItem(ctx context.Context, kind models.CatalogKind, form CatalogForm) (models.CatalogItem, error) {
	entity := entityOf(kind)
	item, err := form.item()
	if err != nil {
		return models.CatalogItem{}, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	created, err := p.store.InsertItem(ctx, kind, item)
	if err != nil {
		return models.CatalogItem{}, p.failed(entity, "add", err)
	}
	p.apply(func(s *State) {
		items := s.catalog(kind)
		*items = append(*items, created)
	})
	p.succeeded(ctx, entity, "add", Event{Kind: EventAdded, Entity: entity, ID: created.ID})
	return created, nil
}

// DeleteItem removes a meal or drink. Orders that reference it stay and drop
// out of the derived views.
func (p *Panel) DeleteItem(ctx context.Context, kind models.CatalogKind, id int64) error {
	entity := entityOf(kind)

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	items := p.state.catalog(kind)
	if !slices.ContainsFunc(*items, func(it models.CatalogItem) bool { return it.ID == id }) {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	if err := p.store.DeleteItem(ctx, kind, id); err != nil {
		return p.failed(entity, "delete", err)
	}
	p.apply(func(s *State) {
		items := s.catalog(kind)
		*items = slices.DeleteFunc(*items, func(it models.CatalogItem) bool { return it.ID == id })
	})
	p.succeeded(ctx, entity, "delete", Event{Kind: EventDeleted, Entity: entity, ID: id})
	return nil
}

// AddUser stores a profile. Registration goes through the auth service, which
// sets the id to the credential id.
func (p *Panel) AddUser(ctx context.Context, user models.User) (models.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Office = strings.TrimSpace(user.Office)
	if user.Name == "" || user.Office == "" {
		return models.User{}, fmt.Errorf("%w: name and office are required", ErrIncomplete)
	}
	if err := p.CheckOffice(user.Office); err != nil {
		return models.User{}, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	created, err := p.store.InsertUser(ctx, user)
	if err != nil {
		return models.User{}, p.failed(EntityUser, "add", err)
	}
	p.apply(func(s *State) { s.Users = append(s.Users, created) })
	p.succeeded(ctx, EntityUser, "add", Event{Kind: EventAdded, Entity: EntityUser, ID: created.ID})
	return created, nil
}

// CheckOffice rejects labels outside the configured office list
func (p *Panel) CheckOffice(office string) error {
	if !slices.Contains(p.offices, office) {
		return fmt.Errorf("%w: unknown office %q", ErrIncomplete, office)
	}
	return nil
}

// DeleteUser removes a profile. The credential is kept.
func (p *Panel) DeleteUser(ctx context.Context, id int64) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if !slices.ContainsFunc(p.state.Users, func(u models.User) bool { return u.ID == id }) {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err := p.store.DeleteUser(ctx, id); err != nil {
		return p.failed(EntityUser, "delete", err)
	}
	p.apply(func(s *State) {
		s.Users = slices.DeleteFunc(s.Users, func(u models.User) bool { return u.ID == id })
	})
	p.succeeded(ctx, EntityUser, "delete", Event{Kind: EventDeleted, Entity: EntityUser, ID: id})
	return nil
}

// AddOrder validates the form, fills defaults and inserts the order as preparing
func (p *Panel) AddOrder(ctx context.Context, form OrderForm) (models.Order, error) {
	order, err := form.order(p.now())
	if err != nil {
		return models.Order{}, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	created, err := p.store.InsertOrder(ctx, order)
	if err != nil {
		return models.Order{}, p.failed(EntityOrder, "add", err)
	}
	p.apply(func(s *State) { s.Orders = append(s.Orders, created) })
	p.succeeded(ctx, EntityOrder, "add", Event{Kind: EventAdded, Entity: EntityOrder, ID: created.ID, Status: created.Status})
	return created, nil
}

// DeleteOrder removes an order
func (p *Panel) DeleteOrder(ctx context.Context, id int64) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.orderIndex(id) < 0 {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err := p.store.DeleteOrder(ctx, id); err != nil {
		return p.failed(EntityOrder, "delete", err)
	}
	p.apply(func(s *State) {
		s.Orders = slices.DeleteFunc(s.Orders, func(o models.Order) bool { return o.ID == id })
	})
	p.succeeded(ctx, EntityOrder, "delete", Event{Kind: EventDeleted, Entity: EntityOrder, ID: id})
	return nil
}

// UpdateOrderStatus sets the status of one order
func (p *Panel) UpdateOrderStatus(ctx context.Context, id int64, status models.Status) (models.Order, error) {
	status = models.ParseStatus(string(status))
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.setStatus(ctx, id, func(models.Status) models.Status { return status })
}

// AdvanceOrder moves an order to the next status in the cycle
func (p *Panel) AdvanceOrder(ctx context.Context, id int64) (models.Order, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.setStatus(ctx, id, models.NextStatus)
}

func (p *Panel) setStatus(ctx context.Context, id int64, next func(models.Status) models.Status) (models.Order, error) {
	i := p.orderIndex(id)
	if i < 0 {
		return models.Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	updated := cloneOrders(p.state.Orders[i : i+1])[0]
	updated.Status = next(updated.Status)

	if err := p.store.UpdateOrder(ctx, updated); err != nil {
		return models.Order{}, p.failed(EntityOrder, "status", err)
	}
	p.apply(func(s *State) { s.Orders[i] = updated })
	p.succeeded(ctx, EntityOrder, "status", Event{Kind: EventStatus, Entity: EntityOrder, ID: id, Status: updated.Status})
	return cloneOrders([]models.Order{updated})[0], nil
}

func (p *Panel) orderIndex(id int64) int {
	return slices.IndexFunc(p.state.Orders, func(o models.Order) bool { return o.ID == id })
}

// failed logs a store failure and reports it; memory is untouched.
// failed, succeeded and observeState run with writeMu held and the state lock
// released, so listeners see writes in order while reads go on.
func (p *Panel) failed(entity, op string, err error) error {
	p.log.Printf("%s %s failed: %v", op, entity, err)
	if p.observer != nil {
		p.observer.ObserveWrite(entity, op, err)
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}

func (p *Panel) succeeded(ctx context.Context, entity, op string, ev Event) {
	if p.observer != nil {
		p.observer.ObserveWrite(entity, op, nil)
	}
	p.observeState()
	if p.notifier == nil {
		return
	}
	ev.At = p.now()
	if err := p.notifier.Notify(ctx, ev); err != nil {
		p.log.Printf("notify %s %s %d: %v", ev.Kind, ev.Entity, ev.ID, err)
	}
}

func (p *Panel) observeState() {
	if p.observer != nil {
		p.observer.ObserveState(p.state)
	}
}
