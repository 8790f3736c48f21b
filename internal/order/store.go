// Package order tracks the order being submitted and the order shown in the
// detail modal. The two concerns share one container but write different
// slots: `order` is reserved for "just submitted by this session",
// `orderModalData` is whatever the detail view currently inspects.
package order

import (
	"context"

	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
	"github.com/vasiliy-maslov/stellar-burgers/internal/store"
)

const (
	DefaultSubmitError = "Ошибка создания заказа"
	DefaultLookupError = "Ошибка загрузки заказа"
)

type API interface {
	SubmitOrder(ctx context.Context, ingredientIDs []string) (model.Order, error)
	FetchOrderByNumber(ctx context.Context, number int) (model.Order, error)
}

type State struct {
	Order          *model.Order
	OrderRequest   bool
	OrderModalData *model.Order
	Err            string
}

type Store struct {
	bus *store.Bus
	api API

	order          *model.Order
	orderRequest   bool
	orderModalData *model.Order
	err            string
}

func New(bus *store.Bus, api API) *Store {
	return &Store{bus: bus, api: api}
}

// Submit sends the composition payload. On success the created order lands in
// both slots, so it is immediately viewable; on failure the prior order value
// is left untouched.
func (s *Store) Submit(ctx context.Context, ingredientIDs []string) error {
	s.bus.Dispatch("order/createOrder/pending", func() {
		s.orderRequest = true
		s.err = ""
	})

	created, err := s.api.SubmitOrder(ctx, ingredientIDs)
	if err != nil {
		s.bus.Dispatch("order/createOrder/rejected", func() {
			s.orderRequest = false
			s.err = store.ErrorText(err, DefaultSubmitError)
		})
		return err
	}

	s.bus.Dispatch("order/createOrder/fulfilled", func() {
		s.orderRequest = false
		s.err = ""
		o := created
		s.order = &o
		modal := created
		s.orderModalData = &modal
	})
	return nil
}

// LoadByNumber fetches an order for inspection. It writes the modal slot only.
func (s *Store) LoadByNumber(ctx context.Context, number int) error {
	s.bus.Dispatch("order/fetchOrderByNumber/pending", func() {
		s.orderRequest = true
		s.err = ""
	})

	found, err := s.api.FetchOrderByNumber(ctx, number)
	if err != nil {
		s.bus.Dispatch("order/fetchOrderByNumber/rejected", func() {
			s.orderRequest = false
			s.err = store.ErrorText(err, DefaultLookupError)
		})
		return err
	}

	s.bus.Dispatch("order/fetchOrderByNumber/fulfilled", func() {
		s.orderRequest = false
		s.err = ""
		modal := found
		s.orderModalData = &modal
	})
	return nil
}

func (s *Store) SetModalData(o model.Order) {
	s.bus.Dispatch("order/setOrderModalData", func() {
		modal := o
		s.orderModalData = &modal
	})
}

func (s *Store) ClearModalData() {
	s.bus.Dispatch("order/clearOrderModalData", func() {
		s.orderModalData = nil
	})
}

// ClearOrder resets the whole container after a completed checkout.
func (s *Store) ClearOrder() {
	s.bus.Dispatch("order/clearOrder", func() {
		s.order = nil
		s.orderModalData = nil
		s.orderRequest = false
		s.err = ""
	})
}

func (s *Store) Snapshot() State {
	var state State
	s.bus.View(func() {
		state = State{
			OrderRequest: s.orderRequest,
			Err:          s.err,
		}
		if s.order != nil {
			o := *s.order
			state.Order = &o
		}
		if s.orderModalData != nil {
			modal := *s.orderModalData
			state.OrderModalData = &modal
		}
	})
	return state
}
