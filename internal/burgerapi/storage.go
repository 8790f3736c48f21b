package burgerapi

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
)

var (
	ErrEmailExists      = errors.New("email already exists")
	ErrAccountNotFound  = errors.New("account not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrResetCodeInvalid = errors.New("reset code is invalid")
)

// Account is a registered user as the backend stores it.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	RefreshToken string
	ResetCode    string
}

// Storage is the persistence seam of the reference backend. The memory driver
// backs unit and integration tests; the postgres driver backs local runs.
type Storage interface {
	CreateAccount(ctx context.Context, acc Account) error
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (Account, error)
	UpdateAccount(ctx context.Context, acc Account) error
	AccountByRefreshToken(ctx context.Context, token string) (Account, error)
	CreateResetCode(ctx context.Context, email, code string) error
	ConsumeResetCode(ctx context.Context, code, newPasswordHash string) error

	Ingredients(ctx context.Context) ([]model.Ingredient, error)
	SeedIngredients(ctx context.Context, ingredients []model.Ingredient) error

	// CreateOrder assigns the next order number and timestamps.
	CreateOrder(ctx context.Context, userID uuid.UUID, name string, ingredientIDs []string) (model.Order, error)
	OrderByNumber(ctx context.Context, number int) (model.Order, error)
	Feed(ctx context.Context) (model.FeedSnapshot, error)
	OrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
}

// MemoryStorage keeps everything in maps. Good enough for tests and demo
// runs; the postgres driver is the durable option.
type MemoryStorage struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]Account
	ingredients []model.Ingredient
	orders      []model.Order
	orderOwner  map[int]uuid.UUID
	nextNumber  int
	now         func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		accounts:   make(map[uuid.UUID]Account),
		orderOwner: make(map[int]uuid.UUID),
		nextNumber: 1000,
		now:        time.Now,
	}
}

func (m *MemoryStorage) CreateAccount(_ context.Context, acc Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Email == acc.Email {
			return ErrEmailExists
		}
	}
	m.accounts[acc.ID] = acc
	return nil
}

func (m *MemoryStorage) AccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acc := range m.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *MemoryStorage) AccountByID(_ context.Context, id uuid.UUID) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

func (m *MemoryStorage) UpdateAccount(_ context.Context, acc Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acc.ID]; !ok {
		return ErrAccountNotFound
	}
	for id, existing := range m.accounts {
		if id != acc.ID && existing.Email == acc.Email {
			return ErrEmailExists
		}
	}
	m.accounts[acc.ID] = acc
	return nil
}

func (m *MemoryStorage) AccountByRefreshToken(_ context.Context, token string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return Account{}, ErrAccountNotFound
	}
	for _, acc := range m.accounts {
		if acc.RefreshToken == token {
			return acc, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *MemoryStorage) CreateResetCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, acc := range m.accounts {
		if acc.Email == email {
			acc.ResetCode = code
			m.accounts[id] = acc
			return nil
		}
	}
	return ErrAccountNotFound
}

func (m *MemoryStorage) ConsumeResetCode(_ context.Context, code, newPasswordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if code == "" {
		return ErrResetCodeInvalid
	}
	for id, acc := range m.accounts {
		if acc.ResetCode == code {
			acc.ResetCode = ""
			acc.PasswordHash = newPasswordHash
			m.accounts[id] = acc
			return nil
		}
	}
	return ErrResetCodeInvalid
}

func (m *MemoryStorage) Ingredients(_ context.Context) ([]model.Ingredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Ingredient(nil), m.ingredients...), nil
}

func (m *MemoryStorage) SeedIngredients(_ context.Context, ingredients []model.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingredients = append([]model.Ingredient(nil), ingredients...)
	return nil
}

func (m *MemoryStorage) CreateOrder(_ context.Context, userID uuid.UUID, name string, ingredientIDs []string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	order := model.Order{
		ID:          uuid.Must(uuid.NewV4()).String(),
		Status:      model.OrderStatusDone,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
		Number:      m.nextNumber,
		Ingredients: append([]string(nil), ingredientIDs...),
	}
	m.nextNumber++
	m.orders = append(m.orders, order)
	m.orderOwner[order.Number] = userID
	return order, nil
}

func (m *MemoryStorage) OrderByNumber(_ context.Context, number int) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.orders {
		if order.Number == number {
			return order, nil
		}
	}
	return model.Order{}, ErrOrderNotFound
}

func (m *MemoryStorage) Feed(_ context.Context) (model.FeedSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := append([]model.Order(nil), m.orders...)
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Number > orders[j].Number
	})

	startOfDay := m.now().UTC().Truncate(24 * time.Hour)
	totalToday := 0
	for _, order := range orders {
		if !order.CreatedAt.Before(startOfDay) {
			totalToday++
		}
	}

	return model.FeedSnapshot{Orders: orders, Total: len(orders), TotalToday: totalToday}, nil
}

func (m *MemoryStorage) OrdersByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []model.Order
	for _, order := range m.orders {
		if m.orderOwner[order.Number] == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Number > orders[j].Number
	})
	return orders, nil
}
