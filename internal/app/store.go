// Package app composes the five state containers over one dispatch bus. The
// composed store is created once at application start; container slices are
// reachable only through it and never mutate each other.
package app

import (
	"github.com/rs/zerolog"

	"github.com/vasiliy-maslov/stellar-burgers/internal/auth"
	"github.com/vasiliy-maslov/stellar-burgers/internal/catalog"
	"github.com/vasiliy-maslov/stellar-burgers/internal/constructor"
	"github.com/vasiliy-maslov/stellar-burgers/internal/feed"
	"github.com/vasiliy-maslov/stellar-burgers/internal/order"
	"github.com/vasiliy-maslov/stellar-burgers/internal/session"
	"github.com/vasiliy-maslov/stellar-burgers/internal/store"
)

// API is the full network collaborator surface the store needs. The real
// *api.Client satisfies it; tests plug in fakes per container.
type API interface {
	catalog.API
	session.API
	order.API
	feed.API
}

type Store struct {
	bus *store.Bus

	Catalog     *catalog.Store
	Constructor *constructor.Store
	Session     *session.Store
	Order       *order.Store
	Feed        *feed.Store
}

func New(api API, tokens auth.Tokens, log zerolog.Logger) *Store {
	bus := store.NewBus(log)
	return &Store{
		bus:         bus,
		Catalog:     catalog.New(bus, api),
		Constructor: constructor.New(bus),
		Session:     session.New(bus, api, tokens),
		Order:       order.New(bus, api),
		Feed:        feed.New(bus, api),
	}
}

// Snapshot mirrors the root state shape: one substructure per container.
type Snapshot struct {
	Ingredients catalog.State
	Constructor constructor.State
	Order       order.State
	User        session.State
	Feed        feed.State
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Ingredients: s.Catalog.Snapshot(),
		Constructor: s.Constructor.Snapshot(),
		Order:       s.Order.Snapshot(),
		User:        s.Session.Snapshot(),
		Feed:        s.Feed.Snapshot(),
	}
}

// Subscribe registers fn to run after every state transition in any
// container. Returns the unsubscribe function.
func (s *Store) Subscribe(fn func()) func() {
	return s.bus.Subscribe(fn)
}

// Version counts applied transitions across all containers.
func (s *Store) Version() uint64 {
	return s.bus.Version()
}
