// Package cart holds the client-side shopping cart. Nothing here talks to the
// server; the cart becomes an order only at checkout.
package cart

import (
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidFish     = errors.New("fish with an id is required")
)

// Item is one line of the cart with the catalog name and price as they were
// when the fish was added.
type Item struct {
	FishID     primitive.ObjectID `json:"fishId"`
	Name       string             `json:"name"`
	PricePerKg float64            `json:"pricePerKg"`
	ImageURL   string             `json:"imageUrl,omitempty"`
	Quantity   int                `json:"quantity"`
}

// Storage persists cart contents between runs.
type Storage interface {
	Load() ([]Item, error)
	Save(items []Item) error
}

// Cart is an ordered list of items keyed by fish id. Every mutation is
// written through to its storage; a failed write leaves the cart unchanged.
type Cart struct {
	mu    sync.Mutex
	items []Item
	store Storage
}

// New restores the cart from store. A nil store keeps the cart in memory.
func New(store Storage) (*Cart, error) {
	if store == nil {
		store = NewMemoryStorage()
	}
	saved, err := store.Load()
	if err != nil {
		return nil, err
	}
	c := &Cart{store: store}
	for _, it := range saved {
		if it.Quantity < 1 || it.FishID.IsZero() {
			continue
		}
		c.items = merge(c.items, it)
	}
	return c, nil
}

func merge(items []Item, it Item) []Item {
	for i := range items {
		if items[i].FishID == it.FishID {
			items[i].Quantity += it.Quantity
			return items
		}
	}
	return append(items, it)
}

func (c *Cart) clone() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Cart) commit(next []Item) error {
	if err := c.store.Save(next); err != nil {
		return err
	}
	c.items = next
	return nil
}

// Add puts qty kilograms of fish in the cart. A fish already in the cart has
// its quantity increased; the stored name and price are kept.
func (c *Cart) Add(fish *models.Fish, qty int) error {
	if fish == nil || fish.ID.IsZero() {
		return ErrInvalidFish
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(merge(c.clone(), Item{
		FishID:     fish.ID,
		Name:       fish.Name,
		PricePerKg: fish.PricePerKg,
		ImageURL:   fish.ImageURL,
		Quantity:   qty,
	}))
}

// SetQuantity replaces the quantity of a fish. Zero or less removes it.
func (c *Cart) SetQuantity(fishID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return c.Remove(fishID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.clone()
	for i := range next {
		if next[i].FishID == fishID {
			next[i].Quantity = qty
			return c.commit(next)
		}
	}
	return nil
}

func (c *Cart) Remove(fishID primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if it.FishID != fishID {
			next = append(next, it)
		}
	}
	if len(next) == len(c.items) {
		return nil
	}
	return c.commit(next)
}

func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(nil)
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone()
}

// Count is the total quantity across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// OrderItems converts the cart into checkout items with computed subtotals.
func (c *Cart) OrderItems() []models.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.OrderItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, models.OrderItem{
			FishID:     it.FishID,
			Name:       it.Name,
			PricePerKg: it.PricePerKg,
			Quantity:   it.Quantity,
			Subtotal:   models.Subtotal(it.PricePerKg, it.Quantity),
		})
	}
	return out
}

// Subtotal is Σ price × quantity, rounded to two decimals.
func (c *Cart) Subtotal() float64 {
	return models.ItemsSubtotal(c.OrderItems())
}

// Total adds the delivery fee to the subtotal.
func (c *Cart) Total(deliveryFee float64) float64 {
	return models.OrderTotal(c.OrderItems(), deliveryFee)
}
