package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mealdesk/internal/models"
)

// ErrDuplicate is returned when an insert collides with an existing key.
var ErrDuplicate = errors.New("duplicate record")

// Top-level keys of the file document.
const (
	KeyFoods       = "foods"
	KeyDrinks      = "drinks"
	KeyUsers       = "users"
	KeyOrders      = "orders"
	KeyCredentials = "credentials"
)

// FileStore keeps every collection as a JSON array under its own key in a single
// document, the same layout the browser panel used in local storage. Each write
// re-encodes the touched key and rewrites the whole file.
type FileStore struct {
	mu   sync.Mutex
	path string
	doc  map[string]json.RawMessage
	ids  *ClockIDs
}

// OpenFile loads the document at path. An empty path keeps everything in memory.
func OpenFile(path string, ids *ClockIDs) (*FileStore, error) {
	if ids == nil {
		ids = NewClockIDs(nil)
	}
	s := &FileStore{
		path: path,
		doc:  make(map[string]json.RawMessage),
		ids:  ids,
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("decode store file %s: %w", path, err)
		}
	}
	if err := s.observeIDs(); err != nil {
		return nil, err
	}
	return s, nil
}

// observeIDs moves the generator past every identifier already in the document.
func (s *FileStore) observeIDs() error {
	for _, key := range []string{KeyFoods, KeyDrinks} {
		items, err := readKey[models.CatalogItem](s, key)
		if err != nil {
			return err
		}
		for _, it := range items {
			s.ids.Observe(it.ID)
		}
	}
	users, err := readKey[models.User](s, KeyUsers)
	if err != nil {
		return err
	}
	for _, u := range users {
		s.ids.Observe(u.ID)
	}
	orders, err := readKey[models.Order](s, KeyOrders)
	if err != nil {
		return err
	}
	for _, o := range orders {
		s.ids.Observe(o.ID)
	}
	creds, err := readKey[models.Credential](s, KeyCredentials)
	if err != nil {
		return err
	}
	for _, c := range creds {
		s.ids.Observe(c.ID)
	}
	return nil
}

func readKey[T any](s *FileStore, key string) ([]T, error) {
	raw, ok := s.doc[key]
	if !ok || len(raw) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// writeKey replaces one key and flushes; the previous value is restored if the flush fails.
func writeKey[T any](s *FileStore, key string, items []T) error {
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	prev, had := s.doc[key]
	s.doc[key] = encoded
	if err := s.flush(); err != nil {
		if had {
			s.doc[key] = prev
		} else {
			delete(s.doc, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) flush() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".mealdesk-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// ListItems returns the catalog collection for kind
func (s *FileStore) ListItems(ctx context.Context, kind models.CatalogKind) ([]models.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readKey[models.CatalogItem](s, kind.StorageKey())
}

// InsertItem appends a catalog item with a fresh clock identifier
func (s *FileStore) InsertItem(ctx context.Context, kind models.CatalogKind, item models.CatalogItem) (models.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return models.CatalogItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readKey[models.CatalogItem](s, kind.StorageKey())
	if err != nil {
		return models.CatalogItem{}, err
	}
	item.ID = s.ids.Next()
	if err := writeKey(s, kind.StorageKey(), append(items, item)); err != nil {
		return models.CatalogItem{}, err
	}
	return item, nil
}

// DeleteItem removes a catalog item by id
func (s *FileStore) DeleteItem(ctx context.Context, kind models.CatalogKind, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readKey[models.CatalogItem](s, kind.StorageKey())
	if err != nil {
		return err
	}
	kept, found := without(items, func(it models.CatalogItem) bool { return it.ID == id })
	if !found {
		return ErrNotFound
	}
	return writeKey(s, kind.StorageKey(), kept)
}

// ListUsers returns all profiles
func (s *FileStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readKey[models.User](s, KeyUsers)
}

// InsertUser stores a profile. A zero ID gets a clock identifier.
func (s *FileStore) InsertUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := readKey[models.User](s, KeyUsers)
	if err != nil {
		return models.User{}, err
	}
	if user.ID == 0 {
		user.ID = s.ids.Next()
	}
	for _, u := range users {
		if u.ID == user.ID {
			return models.User{}, fmt.Errorf("user %d: %w", user.ID, ErrDuplicate)
		}
	}
	s.ids.Observe(user.ID)
	if err := writeKey(s, KeyUsers, append(users, user)); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// DeleteUser removes a profile by id
func (s *FileStore) DeleteUser(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := readKey[models.User](s, KeyUsers)
	if err != nil {
		return err
	}
	kept, found := without(users, func(u models.User) bool { return u.ID == id })
	if !found {
		return ErrNotFound
	}
	return writeKey(s, KeyUsers, kept)
}

// ListOrders returns all orders
func (s *FileStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readKey[models.Order](s, KeyOrders)
}

// InsertOrder appends an order with a fresh clock identifier
func (s *FileStore) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := readKey[models.Order](s, KeyOrders)
	if err != nil {
		return models.Order{}, err
	}
	order.ID = s.ids.Next()
	if err := writeKey(s, KeyOrders, append(orders, order)); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// UpdateOrder replaces the stored order with the same id
func (s *FileStore) UpdateOrder(ctx context.Context, order models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := readKey[models.Order](s, KeyOrders)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID == order.ID {
			orders[i] = order
			return writeKey(s, KeyOrders, orders)
		}
	}
	return ErrNotFound
}

// DeleteOrder removes an order by id
func (s *FileStore) DeleteOrder(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := readKey[models.Order](s, KeyOrders)
	if err != nil {
		return err
	}
	kept, found := without(orders, func(o models.Order) bool { return o.ID == id })
	if !found {
		return ErrNotFound
	}
	return writeKey(s, KeyOrders, kept)
}

// InsertCredential stores a login. Logins are unique.
func (s *FileStore) InsertCredential(ctx context.Context, cred models.Credential) (models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return models.Credential{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := readKey[models.Credential](s, KeyCredentials)
	if err != nil {
		return models.Credential{}, err
	}
	for _, c := range creds {
		if c.Login == cred.Login {
			return models.Credential{}, fmt.Errorf("login %q: %w", cred.Login, ErrDuplicate)
		}
	}
	cred.ID = s.ids.Next()
	if err := writeKey(s, KeyCredentials, append(creds, cred)); err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

// FindCredential looks a login up by name
func (s *FileStore) FindCredential(ctx context.Context, login string) (models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return models.Credential{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := readKey[models.Credential](s, KeyCredentials)
	if err != nil {
		return models.Credential{}, err
	}
	for _, c := range creds {
		if c.Login == login {
			return c, nil
		}
	}
	return models.Credential{}, ErrNotFound
}

// Close flushes nothing; every write is already on disk.
func (s *FileStore) Close() error {
	return nil
}

func without[T any](items []T, match func(T) bool) ([]T, bool) {
	kept := make([]T, 0, len(items))
	found := false
	for _, it := range items {
		if match(it) {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	return kept, found
}
