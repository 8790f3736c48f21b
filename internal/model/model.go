// Package model holds the data types shared by the state containers and the
// API layer. The json tags follow the wire format of the burger API
// (mongo-style _id, createdAt timestamps and so on).
package model

import "time"

type IngredientType string

const (
	TypeBun   IngredientType = "bun"
	TypeMain  IngredientType = "main"
	TypeSauce IngredientType = "sauce"
)

func (t IngredientType) String() string {
	return string(t)
}

// Ingredient is an immutable catalog entry. Created only by a catalog load,
// never mutated afterwards.
type Ingredient struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Type          IngredientType `json:"type"`
	Proteins      int            `json:"proteins"`
	Fat           int            `json:"fat"`
	Carbohydrates int            `json:"carbohydrates"`
	Calories      int            `json:"calories"`
	Price         int            `json:"price"`
	Image         string         `json:"image"`
	ImageLarge    string         `json:"image_large"`
	ImageMobile   string         `json:"image_mobile"`
}

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPending OrderStatus = "pending"
	OrderStatusDone    OrderStatus = "done"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Order keeps ingredient ids, not full Ingredient objects. The presentation
// layer resolves them against the catalog.
type Order struct {
	ID          string      `json:"_id"`
	Status      OrderStatus `json:"status"`
	Name        string      `json:"name"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Number      int         `json:"number"`
	Ingredients []string    `json:"ingredients"`
}

type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FeedSnapshot is one resolved feed fetch: the orders plus the two counters.
type FeedSnapshot struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	TotalToday int     `json:"totalToday"`
}
