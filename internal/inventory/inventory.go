// Package inventory keeps the item list shown to each profile type. Game
// masters author items; lists are persisted under inventory_<type>.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"charsheet/internal/pkg/async"
	"charsheet/internal/profiles"
	"charsheet/internal/storage"
)

// KeyPrefix prefixes the storage key of every item list.
const KeyPrefix = "inventory_"

// ErrItemIncomplete is returned when an item lacks a name or description.
var ErrItemIncomplete = errors.New("item name and description are required")

// Item is one inventory entry. Image is a file name under the public assets
// directory, or a URL.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"image"`
}

func (i Item) validate() error {
	if strings.TrimSpace(i.Name) == "" || strings.TrimSpace(i.Description) == "" {
		return ErrItemIncomplete
	}
	return nil
}

// Key returns the storage key of the item list for typ.
func Key(typ profiles.Type) string {
	return KeyPrefix + string(typ)
}

// Store caches item lists per profile type.
type Store struct {
	kv     profiles.Storage
	writer profiles.Persister
	logger *slog.Logger

	mu    sync.Mutex
	lists map[profiles.Type][]Item
}

// NewStore returns a Store. Lists are loaded on first use.
func NewStore(kv profiles.Storage, writer profiles.Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		writer: writer,
		logger: logger.With(slog.String("component", "inventory")),
		lists:  make(map[profiles.Type][]Item),
	}
}

// Items returns the item list for typ. Without a stored list the default
// catalog is returned.
func (s *Store) Items(ctx context.Context, typ profiles.Type) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.listLocked(ctx, typ))
}

// AddItem appends an item to the list for typ.
func (s *Store) AddItem(ctx context.Context, typ profiles.Type, name, description, image string) (Item, error) {
	item := Item{
		ID:          profiles.NewID(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Image:       strings.TrimSpace(image),
	}
	if err := item.validate(); err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(cloneItems(s.listLocked(ctx, typ)), item)
	s.replaceLocked(typ, list)
	return item, nil
}

// RemoveItem deletes the item with the given id. It reports whether an item
// was removed; unknown ids are not an error.
func (s *Store) RemoveItem(ctx context.Context, typ profiles.Type, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.listLocked(ctx, typ)
	list := make([]Item, 0, len(current))
	for _, item := range current {
		if item.ID != id {
			list = append(list, item)
		}
	}
	if len(list) == len(current) {
		return false
	}
	s.replaceLocked(typ, list)
	return true
}

// ReplaceItems swaps the whole list for typ, for bulk imports.
func (s *Store) ReplaceItems(ctx context.Context, typ profiles.Type, items []Item) error {
	for _, item := range items {
		if err := item.validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(typ, cloneItems(items))
	return nil
}

func (s *Store) listLocked(ctx context.Context, typ profiles.Type) []Item {
	if list, ok := s.lists[typ]; ok {
		return list
	}
	list := s.read(ctx, typ)
	s.lists[typ] = list
	return list
}

func (s *Store) read(ctx context.Context, typ profiles.Type) []Item {
	for _, key := range []string{Key(typ), KeyPrefix + typ.LegacyTag()} {
		raw, err := s.kv.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to load inventory", slog.String("key", key), slog.Any("error", err))
			break
		}
		var items []Item
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.logger.Error("Failed to decode stored inventory", slog.String("key", key), slog.Any("error", err))
			break
		}
		if items == nil {
			items = []Item{}
		}
		return items
	}
	return DefaultItems()
}

func (s *Store) replaceLocked(typ profiles.Type, list []Item) {
	s.lists[typ] = list

	data, err := json.Marshal(list)
	if err != nil {
		s.logger.Error("Failed to encode inventory", slog.Any("error", err))
		return
	}
	key, value := Key(typ), string(data)
	s.writer.Submit(async.Task{Name: key, Execute: func() error {
		return s.kv.Set(context.Background(), key, value)
	}})
}

func cloneItems(in []Item) []Item {
	out := make([]Item, len(in))
	copy(out, in)
	return out
}
