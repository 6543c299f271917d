package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status an admin may assign. No status is terminal.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Order struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Items     []OrderItem        `json:"items" bson:"items"`
	Total     float64            `json:"total" bson:"total"`
	User      UserSnapshot       `json:"user" bson:"user"`
	Status    OrderStatus        `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OrderItem freezes the catalog name and price at checkout time.
type OrderItem struct {
	FishID     primitive.ObjectID `json:"fishId" bson:"fishId"`
	Name       string             `json:"name" bson:"name"`
	PricePerKg float64            `json:"pricePerKg" bson:"pricePerKg"`
	Quantity   int                `json:"quantity" bson:"quantity"`
	Subtotal   float64            `json:"subtotal" bson:"subtotal"`
}

// UserSnapshot is copied from the submitting user, not referenced.
type UserSnapshot struct {
	ID    primitive.ObjectID `json:"id" bson:"id"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email" bson:"email"`
}

// OrderFilter scopes list and bulk delete queries. A nil UserID means every user.
type OrderFilter struct {
	UserID *primitive.ObjectID
}

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "created"
	OrderEventStatusUpdated OrderEventType = "status_updated"
	OrderEventDeleted       OrderEventType = "deleted"
	OrderEventBulkDeleted   OrderEventType = "bulk_deleted"
)

type OrderEvent struct {
	OrderID  string         `json:"order_id,omitempty"`
	UserID   string         `json:"user_id,omitempty"`
	Type     OrderEventType `json:"type"`
	Status   OrderStatus    `json:"status,omitempty"`
	Total    float64        `json:"total,omitempty"`
	Count    int64          `json:"count,omitempty"`
	Actor    string         `json:"actor,omitempty"`
	Occurred time.Time      `json:"occurred"`
}

// NewOrderEvent builds an event describing a single order.
func NewOrderEvent(eventType OrderEventType, order *Order, actor string) OrderEvent {
	return OrderEvent{
		OrderID:  order.ID.Hex(),
		UserID:   order.User.ID.Hex(),
		Type:     eventType,
		Status:   order.Status,
		Total:    order.Total,
		Actor:    actor,
		Occurred: time.Now().UTC(),
	}
}
