// Package repository declares the persistence contracts for users, fish and
// orders. Implementations live in the mongostore, mysqlstore and memstore
// subpackages and report apperrors.ErrNotFound and apperrors.ErrDuplicateKey
// for missing documents and unique-key violations.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/models"
)

type IUserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type IFishRepository interface {
	CreateFish(ctx context.Context, fish *models.Fish) error
	FindFishByID(ctx context.Context, id primitive.ObjectID) (*models.Fish, error)
	// ListFish returns matching fish, newest first.
	ListFish(ctx context.Context, filter models.FishFilter) ([]*models.Fish, error)
	UpdateFish(ctx context.Context, fish *models.Fish) error
}

type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// ListOrders returns matching orders, newest first.
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
	DeleteOrders(ctx context.Context, filter models.OrderFilter) (int64, error)
}

// Store bundles the three repositories with lifecycle hooks.
type Store interface {
	Users() IUserRepository
	Fish() IFishRepository
	Orders() IOrderRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
