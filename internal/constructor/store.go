// Package constructor holds the burger being assembled: at most one bun and
// an ordered, freely reorderable sequence of fillings. Every operation is
// synchronous and local — the composition never touches the network until the
// final order submission.
package constructor

import (
	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
	"github.com/vasiliy-maslov/stellar-burgers/internal/store"
)

// Filling is a catalog ingredient placed into the composition. InstanceID
// distinguishes duplicate uses of the same ingredient.
type Filling struct {
	model.Ingredient
	InstanceID string
}

type State struct {
	Bun      *model.Ingredient
	Fillings []Filling
}

type Store struct {
	bus *store.Bus

	bun      *model.Ingredient
	fillings []Filling

	newID func() string
}

func New(bus *store.Bus) *Store {
	return &Store{
		bus: bus,
		newID: func() string {
			return uuid.Must(uuid.NewV4()).String()
		},
	}
}

// Add places an ingredient into the composition. A bun replaces the current
// bun unconditionally (replace, not reject); everything else is appended to
// the filling sequence with a fresh instance id.
func (s *Store) Add(ing model.Ingredient) {
	if ing.Type == model.TypeBun {
		s.bus.Dispatch("constructor/addIngredient", func() {
			bun := ing
			s.bun = &bun
		})
		return
	}

	instanceID := s.newID()
	s.bus.Dispatch("constructor/addIngredient", func() {
		s.fillings = append(s.fillings, Filling{Ingredient: ing, InstanceID: instanceID})
	})
}

// Remove drops the filling with the given instance id. Absent id is a no-op.
func (s *Store) Remove(instanceID string) {
	s.bus.Dispatch("constructor/removeIngredient", func() {
		for i, f := range s.fillings {
			if f.InstanceID == instanceID {
				s.fillings = append(s.fillings[:i], s.fillings[i+1:]...)
				return
			}
		}
	})
}

// Move extracts the filling at from and reinserts it at to. Out-of-range
// indices are a no-op — a removal can race a drag in the UI and must not
// panic the process.
func (s *Store) Move(from, to int) {
	s.bus.Dispatch("constructor/moveIngredient", func() {
		n := len(s.fillings)
		if from < 0 || from >= n || to < 0 || to >= n || from == to {
			return
		}

		moved := s.fillings[from]
		rest := append(s.fillings[:from], s.fillings[from+1:]...)
		s.fillings = append(rest[:to], append([]Filling{moved}, rest[to:]...)...)
	})
}

// Clear resets the composition. Idempotent.
func (s *Store) Clear() {
	s.bus.Dispatch("constructor/clearConstructor", func() {
		s.bun = nil
		s.fillings = nil
	})
}

func (s *Store) Snapshot() State {
	var state State
	s.bus.View(func() {
		if s.bun != nil {
			bun := *s.bun
			state.Bun = &bun
		}
		state.Fillings = append([]Filling(nil), s.fillings...)
	})
	return state
}

// IngredientIDs builds the submission payload: instance-stripped catalog ids
// with the bun first and last, the way the original client submits it. Empty
// when no bun is chosen — an order needs a bun.
func (s *Store) IngredientIDs() []string {
	var ids []string
	s.bus.View(func() {
		if s.bun == nil {
			return
		}
		ids = make([]string, 0, len(s.fillings)+2)
		ids = append(ids, s.bun.ID)
		for _, f := range s.fillings {
			ids = append(ids, f.Ingredient.ID)
		}
		ids = append(ids, s.bun.ID)
	})
	return ids
}
