package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
)

func fixedClock(s *Store) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
}

func TestUniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Users().CreateUser(ctx, &models.User{Email: "alice@example.com"}))

	err := s.Users().CreateUser(ctx, &models.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)

	_, err = s.Users().FindUserByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFishNameUniqueOnUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	rohu := &models.Fish{Name: "Rohu", IsActive: true}
	hilsa := &models.Fish{Name: "Hilsa", IsActive: true}
	require.NoError(t, s.Fish().CreateFish(ctx, rohu))
	require.NoError(t, s.Fish().CreateFish(ctx, hilsa))

	hilsa.Name = "Rohu"
	assert.ErrorIs(t, s.Fish().UpdateFish(ctx, hilsa), apperrors.ErrDuplicateKey)

	rohu.PricePerKg = 320
	assert.NoError(t, s.Fish().UpdateFish(ctx, rohu))

	ghost := &models.Fish{ID: primitive.NewObjectID(), Name: "Ghost"}
	assert.ErrorIs(t, s.Fish().UpdateFish(ctx, ghost), apperrors.ErrNotFound)
}

func TestListFishNewestFirstWithTies(t *testing.T) {
	s := New()
	fixedClock(s)
	ctx := context.Background()
	for _, name := range []string{"Rohu", "Hilsa", "Pabda"} {
		require.NoError(t, s.Fish().CreateFish(ctx, &models.Fish{Name: name, IsActive: true}))
	}

	fish, err := s.Fish().ListFish(ctx, models.FishFilter{})
	require.NoError(t, err)
	var names []string
	for _, f := range fish {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Pabda", "Hilsa", "Rohu"}, names)
}

func TestOrdersAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	order := &models.Order{Items: []models.OrderItem{{Name: "Rohu", PricePerKg: 300, Quantity: 1}}}
	require.NoError(t, s.Orders().CreateOrder(ctx, order))

	order.Items[0].PricePerKg = 1
	stored, err := s.Orders().FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.Items[0].PricePerKg)
}

func TestOrderScopedDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	for _, uid := range []primitive.ObjectID{alice, alice, bob} {
		require.NoError(t, s.Orders().CreateOrder(ctx, &models.Order{User: models.UserSnapshot{ID: uid}}))
	}

	n, err := s.Orders().DeleteOrders(ctx, models.OrderFilter{UserID: &alice})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.Orders().ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, bob, left[0].User.ID)

	_, err = s.Orders().UpdateOrderStatus(ctx, primitive.NewObjectID(), models.OrderStatusCompleted)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, s.Orders().DeleteOrder(ctx, primitive.NewObjectID()), apperrors.ErrNotFound)
}
