// Package feed holds order-feed data: the global feed with its totals and the
// authenticated user's own orders.
//
// Known limitation, kept on purpose: both fetches share one loading/error
// pair and write the same orders field, so overlapping calls are not isolated
// — the later completion wins. Callers sequence the two fetches themselves.
package feed

import (
	"context"

	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
	"github.com/vasiliy-maslov/stellar-burgers/internal/store"
)

const (
	DefaultFeedError       = "Ошибка загрузки ленты"
	DefaultUserOrdersError = "Ошибка загрузки заказов"
)

type API interface {
	FetchFeed(ctx context.Context) (model.FeedSnapshot, error)
	FetchUserOrders(ctx context.Context) ([]model.Order, error)
}

type State struct {
	Orders     []model.Order
	Total      int
	TotalToday int
	Loading    bool
	Err        string
}

type Store struct {
	bus *store.Bus
	api API

	orders     []model.Order
	total      int
	totalToday int
	loading    bool
	err        string
}

func New(bus *store.Bus, api API) *Store {
	return &Store{bus: bus, api: api}
}

// LoadAll fetches the global feed: orders plus both counters.
func (s *Store) LoadAll(ctx context.Context) error {
	s.bus.Dispatch("feed/fetchFeeds/pending", func() {
		s.loading = true
		s.err = ""
	})

	snapshot, err := s.api.FetchFeed(ctx)
	if err != nil {
		s.bus.Dispatch("feed/fetchFeeds/rejected", func() {
			s.loading = false
			s.err = store.ErrorText(err, DefaultFeedError)
		})
		return err
	}

	s.bus.Dispatch("feed/fetchFeeds/fulfilled", func() {
		s.loading = false
		s.err = ""
		s.orders = snapshot.Orders
		s.total = snapshot.Total
		s.totalToday = snapshot.TotalToday
	})
	return nil
}

// LoadUserOrders fetches the current user's orders into the shared orders
// field. The totals are left as the last global fetch wrote them.
func (s *Store) LoadUserOrders(ctx context.Context) error {
	s.bus.Dispatch("feed/fetchUserOrders/pending", func() {
		s.loading = true
		s.err = ""
	})

	orders, err := s.api.FetchUserOrders(ctx)
	if err != nil {
		s.bus.Dispatch("feed/fetchUserOrders/rejected", func() {
			s.loading = false
			s.err = store.ErrorText(err, DefaultUserOrdersError)
		})
		return err
	}

	s.bus.Dispatch("feed/fetchUserOrders/fulfilled", func() {
		s.loading = false
		s.err = ""
		s.orders = orders
	})
	return nil
}

func (s *Store) Snapshot() State {
	var state State
	s.bus.View(func() {
		state = State{
			Orders:     append([]model.Order(nil), s.orders...),
			Total:      s.total,
			TotalToday: s.totalToday,
			Loading:    s.loading,
			Err:        s.err,
		}
	})
	return state
}
