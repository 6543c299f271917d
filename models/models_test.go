package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSubtotalRounding(t *testing.T) {
	assert.Equal(t, 600.0, Subtotal(300, 2))
	assert.Equal(t, 0.3, Subtotal(0.1, 3))
	assert.Equal(t, 1351.5, Subtotal(450.5, 3))
	assert.Equal(t, 33.33, Subtotal(11.111, 3))
}

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{Subtotal: Subtotal(300, 2)},
		{Subtotal: Subtotal(0.1, 3)},
	}
	assert.Equal(t, 600.3, ItemsSubtotal(items))
	assert.Equal(t, 650.3, OrderTotal(items, DefaultDeliveryFee))
	assert.Equal(t, 0.0, ItemsSubtotal(nil))
}

func TestTotalsMatch(t *testing.T) {
	assert.True(t, TotalsMatch(650, 650))
	assert.True(t, TotalsMatch(650.01, 650))
	assert.True(t, TotalsMatch(649.99, 650))
	assert.False(t, TotalsMatch(650.02, 650))
	assert.False(t, TotalsMatch(600, 650))
}

func TestValidateItems(t *testing.T) {
	valid := OrderItem{FishID: primitive.NewObjectID(), Name: "Rohu", PricePerKg: 300, Quantity: 2}

	tests := []struct {
		name  string
		items []OrderItem
		want  string
	}{
		{"empty", nil, "Order must contain at least one item"},
		{"missing fish", []OrderItem{{Name: "Rohu", Quantity: 1}}, "item 1: fishId is required"},
		{"blank name", []OrderItem{valid, {FishID: valid.FishID, Name: "  ", Quantity: 1}}, "item 2: name is required"},
		{"negative price", []OrderItem{{FishID: valid.FishID, Name: "Rohu", PricePerKg: -1, Quantity: 1}}, "item 1: price cannot be negative"},
		{"zero quantity", []OrderItem{{FishID: valid.FishID, Name: "Rohu", Quantity: 0}}, "item 1: quantity must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}

	assert.NoError(t, ValidateItems([]OrderItem{valid}))
}

func TestFishDefaultsAndValidate(t *testing.T) {
	name := "  Tilapia "
	price := 280.0
	stock := 90
	f := NewFish(FishInput{Name: &name, PricePerKg: &price, Stock: &stock})
	f.Normalize()

	assert.Equal(t, "Tilapia", f.Name)
	assert.Equal(t, CategoryFreshwater, f.Category)
	assert.Equal(t, AvailabilityAvailable, f.Availability)
	assert.True(t, f.IsActive)
	assert.NoError(t, f.Validate())
}

func TestFishValidateMessages(t *testing.T) {
	f := &Fish{
		PricePerKg:   -1,
		Category:     "lake",
		Availability: AvailabilityLimited,
		Stock:        -5,
	}
	err := f.Validate()
	require.Error(t, err)
	assert.Equal(t,
		"Fish name is required, Price cannot be negative, Category must be one of: freshwater, saltwater, shellfish, exotic, Stock cannot be negative",
		err.Error())
}

func TestFishInputApplyTo(t *testing.T) {
	f := &Fish{Name: "Rohu", PricePerKg: 300, IsActive: true}
	inactive := false
	price := 320.0
	FishInput{PricePerKg: &price, IsActive: &inactive}.ApplyTo(f)

	assert.Equal(t, "Rohu", f.Name)
	assert.Equal(t, 320.0, f.PricePerKg)
	assert.False(t, f.IsActive)
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail("alice"))
	assert.Error(t, ValidateEmail(""))
}

func TestUserViewOmitsPassword(t *testing.T) {
	u := &User{ID: primitive.NewObjectID(), Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", Role: RoleCustomer}
	v := u.View()

	assert.Equal(t, u.ID, v.ID)
	assert.Equal(t, RoleCustomer, v.Role)
	assert.Equal(t, UserSnapshot{ID: u.ID, Name: "Alice", Email: "alice@example.com"}, u.Snapshot())
	assert.False(t, u.Identity().IsAdmin())
}

func TestNewOrderEvent(t *testing.T) {
	order := &Order{ID: primitive.NewObjectID(), User: UserSnapshot{ID: primitive.NewObjectID()}, Status: OrderStatusCancelled, Total: 650}
	e := NewOrderEvent(OrderEventStatusUpdated, order, "admin")

	assert.Equal(t, order.ID.Hex(), e.OrderID)
	assert.Equal(t, order.User.ID.Hex(), e.UserID)
	assert.Equal(t, OrderStatusCancelled, e.Status)
	assert.Equal(t, "admin", e.Actor)
	assert.False(t, e.Occurred.IsZero())
}
