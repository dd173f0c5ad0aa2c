// Package cache is the read-side query cache. Entries are keyed by resource
// type and shop and live until a write to that resource invalidates them;
// there is no TTL.
package cache

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Resource is a cacheable resource type.
type Resource string

const (
	Shops          Resource = "shops"
	Categories     Resource = "categories"
	Products       Resource = "products"
	Tables         Resource = "tables"
	Reservations   Resource = "reservations"
	Orders         Resource = "orders"
	KitchenTickets Resource = "kitchen_tickets"
	Reports        Resource = "reports"
)

// Key identifies one cached read.
type Key struct {
	Resource Resource
	ShopID   uuid.UUID
	Params   string
}

// NewKey builds a key from extra parameters, such as a status filter or a
// date range. Parameter order matters.
func NewKey(res Resource, shopID uuid.UUID, params ...string) Key {
	return Key{Resource: res, ShopID: shopID, Params: strings.Join(params, "\x1f")}
}

func (k Key) String() string {
	if k.Params == "" {
		return string(k.Resource) + "/" + k.ShopID.String()
	}
	return string(k.Resource) + "/" + k.ShopID.String() + "?" + strings.ReplaceAll(k.Params, "\x1f", "&")
}

// Store holds encoded responses grouped by shop.
//
// Every (shop, resource) pair carries a generation that Invalidate and Drop
// advance. A reader takes the generation before loading and stores its
// result with SetIfUnchanged, so a load that raced a write is discarded.
type Store struct {
	mu     sync.RWMutex
	shops  map[uuid.UUID]map[Key][]byte
	gens   map[uuid.UUID]*generation
	hits   uint64
	misses uint64
}

type generation struct {
	shop      uint64
	resources map[Resource]uint64
}

// Version identifies the generation of a key's resource.
type Version uint64

func New() *Store {
	return &Store{
		shops: make(map[uuid.UUID]map[Key][]byte),
		gens:  make(map[uuid.UUID]*generation),
	}
}

func (s *Store) generationFor(shopID uuid.UUID) *generation {
	g := s.gens[shopID]
	if g == nil {
		g = &generation{resources: make(map[Resource]uint64)}
		s.gens[shopID] = g
	}
	return g
}

// Version returns the current generation of k's shop and resource. Both
// counters only grow, so their sum changes whenever either advances.
func (s *Store) Version(k Key) Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.gens[k.ShopID]
	if g == nil {
		return 0
	}
	return Version(g.shop + g.resources[k.Resource])
}

func (s *Store) Get(k Key) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.shops[k.ShopID][k]
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return v, ok
}

func (s *Store) Set(k Key, v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(k, v)
}

// SetIfUnchanged stores v only if k's resource has not been invalidated
// since ver was taken. It reports whether the entry was stored.
func (s *Store) SetIfUnchanged(k Key, ver Version, v []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cur Version
	if g := s.gens[k.ShopID]; g != nil {
		cur = Version(g.shop + g.resources[k.Resource])
	}
	if cur != ver {
		return false
	}
	s.set(k, v)
	return true
}

func (s *Store) set(k Key, v []byte) {
	entries := s.shops[k.ShopID]
	if entries == nil {
		entries = make(map[Key][]byte)
		s.shops[k.ShopID] = entries
	}
	entries[k] = v
}

// Invalidate drops every entry of the given resources for a shop and returns
// how many were removed.
func (s *Store) Invalidate(shopID uuid.UUID, resources ...Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.generationFor(shopID)
	for _, r := range resources {
		g.resources[r]++
	}
	entries := s.shops[shopID]
	n := 0
	for k := range entries {
		for _, r := range resources {
			if k.Resource == r {
				delete(entries, k)
				n++
				break
			}
		}
	}
	if len(entries) == 0 {
		delete(s.shops, shopID)
	}
	return n
}

// Drop removes everything cached for a shop.
func (s *Store) Drop(shopID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generationFor(shopID).shop++
	delete(s.shops, shopID)
}

// Stats returns hit and miss counters.
func (s *Store) Stats() (hits, misses uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits, s.misses
}
