// Package catalog holds the list of available ingredients, fetched once per
// application load. The list is replaced whole on success and left untouched
// on failure; there is no partial merge and no built-in retry.
package catalog

import (
	"context"

	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
	"github.com/vasiliy-maslov/stellar-burgers/internal/store"
)

// DefaultError is shown when a failed load carries no message of its own.
const DefaultError = "Ошибка загрузки ингредиентов"

type API interface {
	FetchIngredients(ctx context.Context) ([]model.Ingredient, error)
}

// State is a read-only snapshot of the container.
type State struct {
	Ingredients []model.Ingredient
	Loading     bool
	Err         string
}

type Store struct {
	bus *store.Bus
	api API

	ingredients []model.Ingredient
	loading     bool
	err         string
}

func New(bus *store.Bus, api API) *Store {
	return &Store{bus: bus, api: api}
}

// Load runs the three-phase fetch. Callers re-invoke it to retry.
func (s *Store) Load(ctx context.Context) error {
	s.bus.Dispatch("catalog/load/pending", func() {
		s.loading = true
		s.err = ""
	})

	ingredients, err := s.api.FetchIngredients(ctx)
	if err != nil {
		s.bus.Dispatch("catalog/load/rejected", func() {
			s.loading = false
			s.err = store.ErrorText(err, DefaultError)
		})
		return err
	}

	s.bus.Dispatch("catalog/load/fulfilled", func() {
		s.loading = false
		s.err = ""
		s.ingredients = ingredients
	})
	return nil
}

func (s *Store) Snapshot() State {
	var state State
	s.bus.View(func() {
		state = State{
			Ingredients: append([]model.Ingredient(nil), s.ingredients...),
			Loading:     s.loading,
			Err:         s.err,
		}
	})
	return state
}

// ByID resolves a catalog entry. An absent id is a benign not-found, not an
// error.
func (s *Store) ByID(id string) (model.Ingredient, bool) {
	var (
		found model.Ingredient
		ok    bool
	)
	s.bus.View(func() {
		for _, ing := range s.ingredients {
			if ing.ID == id {
				found = ing
				ok = true
				return
			}
		}
	})
	return found, ok
}
